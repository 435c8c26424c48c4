package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/database/loans"
	"github.com/mrlokans/biblion/internal/database/statuses"
	"github.com/mrlokans/biblion/internal/entities"
)

// LoanManager lends books to people outside the system. While a loan is open
// the lender's reading status is overridden with Lent; returning the book
// restores the status captured at lend time.
type LoanManager struct {
	db     *gorm.DB
	period time.Duration
	now    func() time.Time
}

// NewLoanManager creates a manager whose loans fall due after period.
// A non-positive period uses entities.DefaultLoanPeriod.
func NewLoanManager(db *gorm.DB, period time.Duration) *LoanManager {
	if period <= 0 {
		period = entities.DefaultLoanPeriod
	}
	return &LoanManager{db: db, period: period, now: time.Now}
}

// Lend opens a loan of the book to borrowerName on behalf of the lender.
func (m *LoanManager) Lend(ctx context.Context, lender Actor, bookID uint, borrowerName string) (*entities.Loan, error) {
	borrowerName = strings.TrimSpace(borrowerName)
	if borrowerName == "" {
		return nil, ErrBorrowerRequired
	}

	var loan *entities.Loan
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := books.NewRepository(tx).Exists(bookID)
		if err != nil {
			return fmt.Errorf("failed to load book: %w", err)
		}
		if !exists {
			return ErrBookNotFound
		}

		loanRepo := loans.NewRepository(tx)
		open, err := loanRepo.OpenForBook(bookID)
		if err != nil {
			return fmt.Errorf("failed to check open loans: %w", err)
		}
		if open != nil {
			return ErrAlreadyLent
		}

		statusRepo := statuses.NewRepository(tx)
		previous, err := statusRepo.Effective(lender.UserID, bookID)
		if err != nil {
			return fmt.Errorf("failed to load reading status: %w", err)
		}

		now := m.now()
		due := now.Add(m.period)
		loan = &entities.Loan{
			BookID:         bookID,
			LenderID:       lender.UserID,
			BorrowerName:   borrowerName,
			BorrowedAt:     now,
			DueDate:        &due,
			PreviousStatus: previous,
		}
		if err := loanRepo.Create(loan); err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyLent
			}
			return fmt.Errorf("failed to create loan: %w", err)
		}

		if err := statusRepo.Upsert(lender.UserID, bookID, entities.StatusLent); err != nil {
			return fmt.Errorf("failed to mark book as lent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Return closes a loan. Only the lender or an admin may do so. The lender's
// status goes back to what it was before the loan; if that was Reading and
// someone else started reading meanwhile, the lender gets Paused instead.
func (m *LoanManager) Return(ctx context.Context, actor Actor, loanID uint) (*entities.Loan, error) {
	var loan *entities.Loan
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loanRepo := loans.NewRepository(tx)

		var err error
		loan, err = loanRepo.GetByID(loanID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLoanNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load loan: %w", err)
		}

		if loan.LenderID != actor.UserID && !actor.IsAdmin() {
			return ErrUnauthorizedReturn
		}
		if !loan.IsActive() {
			return ErrAlreadyReturned
		}

		now := m.now()
		closed, err := loanRepo.Close(loan.ID, now)
		if err != nil {
			return fmt.Errorf("failed to close loan: %w", err)
		}
		if !closed {
			return ErrAlreadyReturned
		}
		loan.ReturnedAt = &now

		statusRepo := statuses.NewRepository(tx)
		restore := loan.PreviousStatus
		if restore == "" || restore == entities.StatusLent {
			restore = entities.StatusToRead
		}
		if restore == entities.StatusReading {
			other, err := statusRepo.ActiveReader(loan.BookID, loan.LenderID)
			if err != nil {
				return fmt.Errorf("failed to check active reader: %w", err)
			}
			if other != nil {
				log.Printf("Loan %d returned while book %d is read by user %d, restoring lender status as %s",
					loan.ID, loan.BookID, other.UserID, entities.StatusPaused)
				restore = entities.StatusPaused
			}
		}

		if err := statusRepo.Upsert(loan.LenderID, loan.BookID, restore); err != nil {
			return fmt.Errorf("failed to restore reading status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// MyLoans lists the actor's open loans, newest first.
func (m *LoanManager) MyLoans(actor Actor) ([]entities.Loan, error) {
	return loans.NewRepository(m.db).OpenByLender(actor.UserID)
}

// ActiveLoans lists every open loan. Admins only.
func (m *LoanManager) ActiveLoans(actor Actor) ([]entities.Loan, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return loans.NewRepository(m.db).Open()
}

// History lists all loans of a book.
func (m *LoanManager) History(bookID uint) ([]entities.Loan, error) {
	return loans.NewRepository(m.db).History(bookID)
}
