package entities

import "time"

// DefaultLoanPeriod is the due date offset applied when lending a book.
const DefaultLoanPeriod = 14 * 24 * time.Hour

type Loan struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BookID         uint       `gorm:"index;not null" json:"book_id"`
	Book           *Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	LenderID       uint       `gorm:"index;not null" json:"lender_id"`
	Lender         *User      `gorm:"foreignKey:LenderID" json:"lender,omitempty"`
	BorrowerName   string     `gorm:"size:200;not null" json:"borrower_name"`
	BorrowedAt     time.Time  `json:"borrowed_at"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ReturnedAt     *time.Time `gorm:"index" json:"returned_at,omitempty"`
	PreviousStatus Status     `gorm:"size:20" json:"previous_status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (l *Loan) IsActive() bool {
	return l.ReturnedAt == nil
}

// IsOverdue reports whether the loan is open past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && l.DueDate != nil && now.After(*l.DueDate)
}
