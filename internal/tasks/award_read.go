package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/biblion/internal/services"
)

// RewardGranter applies the XP and badge pass for a finished book.
type RewardGranter interface {
	BookFinished(ctx context.Context, userID, bookID uint) (*services.Outcome, error)
}

// AwardReadTask grants reading XP and evaluates badges after a book was marked Read.
type AwardReadTask struct {
	UserID uint `json:"user_id"`
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for reward tasks.
func (t AwardReadTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "award_read",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// AwardReadProcessor creates a processor function for AwardReadTask.
func AwardReadProcessor(granter RewardGranter) backlite.QueueProcessor[AwardReadTask] {
	return func(ctx context.Context, task AwardReadTask) error {
		if granter == nil {
			return fmt.Errorf("reward granter not configured")
		}

		outcome, err := granter.BookFinished(ctx, task.UserID, task.BookID)
		if err != nil {
			return fmt.Errorf("award read for user %d, book %d: %w", task.UserID, task.BookID, err)
		}

		log.Printf("[TASK] User %d finished book %d: +%d XP (total %d, level %d), %d new badge(s)",
			task.UserID, task.BookID, outcome.XPGained, outcome.XP, outcome.Level, len(outcome.NewBadges))
		return nil
	}
}

// NewAwardReadQueue creates a backlite queue for reward tasks.
func NewAwardReadQueue(granter RewardGranter) backlite.Queue {
	return backlite.NewQueue(AwardReadProcessor(granter))
}
