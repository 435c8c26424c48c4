package entities

import "time"

type Status string

const (
	StatusToRead   Status = "To read"
	StatusToStudy  Status = "To study"
	StatusReading  Status = "Reading"
	StatusStudying Status = "Studying"
	StatusRead     Status = "Read"
	StatusPaused   Status = "Paused"
	StatusDropped  Status = "Dropped"

	// StatusLent overlays the lender's row while a loan is open. Users cannot
	// set it directly.
	StatusLent Status = "Lent"
)

// TrackableStatuses lists the statuses users may set, in display order.
var TrackableStatuses = []Status{
	StatusToRead,
	StatusToStudy,
	StatusReading,
	StatusStudying,
	StatusRead,
	StatusPaused,
	StatusDropped,
}

func (s Status) IsTrackable() bool {
	for _, t := range TrackableStatuses {
		if s == t {
			return true
		}
	}
	return false
}

type ReadingStatus struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex:idx_reading_user_book;not null" json:"user_id"`
	BookID     uint       `gorm:"uniqueIndex:idx_reading_user_book;index;not null" json:"book_id"`
	Status     Status     `gorm:"size:20;index;not null" json:"status"`
	// RewardedAt is set the first time the user finishes the book and is
	// never cleared, so XP is granted once per user and book.
	RewardedAt *time.Time `json:"rewarded_at,omitempty"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EffectiveStatus is the single place the implicit default lives: a user
// without a row for a book has it on their "To read" list.
func EffectiveStatus(rs *ReadingStatus) Status {
	if rs == nil || rs.Status == "" {
		return StatusToRead
	}
	return rs.Status
}
