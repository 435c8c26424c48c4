package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/database/statuses"
	"github.com/mrlokans/biblion/internal/entities"
)

// ReadingTracker owns per-user reading statuses and the rule that only one
// user at a time may be Reading a given book.
type ReadingTracker struct {
	db   *gorm.DB
	hook ReadHook
}

// NewReadingTracker creates a tracker. hook may be nil.
func NewReadingTracker(db *gorm.DB, hook ReadHook) *ReadingTracker {
	return &ReadingTracker{db: db, hook: hook}
}

// Status returns the actor's effective status for a book.
func (t *ReadingTracker) Status(actor Actor, bookID uint) (entities.Status, error) {
	exists, err := books.NewRepository(t.db).Exists(bookID)
	if err != nil {
		return "", fmt.Errorf("failed to load book: %w", err)
	}
	if !exists {
		return "", ErrBookNotFound
	}
	return statuses.NewRepository(t.db).Effective(actor.UserID, bookID)
}

// SetStatus records a new status for the actor. Setting Reading fails with a
// *ReaderConflictError while another user reads the book. Finishing a book
// for the first time notifies the read hook once the write has committed.
func (t *ReadingTracker) SetStatus(ctx context.Context, actor Actor, bookID uint, status entities.Status) error {
	var finished bool
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		finished, err = t.apply(tx, actor.UserID, bookID, status)
		return err
	})
	if err != nil {
		return err
	}
	if finished {
		t.notify(actor.UserID, bookID)
	}
	return nil
}

// BulkSetStatus applies one status to several books. Either every book is
// updated or none is.
func (t *ReadingTracker) BulkSetStatus(ctx context.Context, actor Actor, bookIDs []uint, status entities.Status) error {
	if len(bookIDs) == 0 {
		return ErrNoBooksSelected
	}

	var finished []uint
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range bookIDs {
			done, err := t.apply(tx, actor.UserID, id, status)
			if err != nil {
				return err
			}
			if done {
				finished = append(finished, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range finished {
		t.notify(actor.UserID, id)
	}
	return nil
}

// apply runs inside a transaction and reports whether the user finished the
// book for the first time.
func (t *ReadingTracker) apply(tx *gorm.DB, userID, bookID uint, status entities.Status) (bool, error) {
	if !status.IsTrackable() {
		return false, ErrInvalidStatus
	}

	exists, err := books.NewRepository(tx).Exists(bookID)
	if err != nil {
		return false, fmt.Errorf("failed to load book: %w", err)
	}
	if !exists {
		return false, ErrBookNotFound
	}

	repo := statuses.NewRepository(tx)
	if status == entities.StatusReading {
		if err := checkNoOtherReader(repo, bookID, userID); err != nil {
			return false, err
		}
	}

	if err := repo.Upsert(userID, bookID, status); err != nil {
		if database.IsUniqueViolation(err) {
			// Another reader committed between the check and the write.
			if conflict := checkNoOtherReader(repo, bookID, userID); conflict != nil {
				return false, conflict
			}
			return false, ErrBookBeingRead
		}
		return false, fmt.Errorf("failed to save reading status: %w", err)
	}

	if status != entities.StatusRead {
		return false, nil
	}
	first, err := repo.MarkRewarded(userID, bookID)
	if err != nil {
		return false, fmt.Errorf("failed to mark book as rewarded: %w", err)
	}
	return first, nil
}

func (t *ReadingTracker) notify(userID, bookID uint) {
	if t.hook != nil {
		t.hook.BookRead(userID, bookID)
	}
}

func checkNoOtherReader(repo *statuses.Repository, bookID, userID uint) error {
	other, err := repo.ActiveReader(bookID, userID)
	if err != nil {
		return fmt.Errorf("failed to check active reader: %w", err)
	}
	if other == nil {
		return nil
	}
	name := "another user"
	if other.User != nil {
		name = other.User.DisplayName()
	}
	return &ReaderConflictError{Reader: name}
}
