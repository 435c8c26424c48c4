package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/biblion/internal/services"
)

// BiographyFetcher looks up and stores an author's biography.
type BiographyFetcher interface {
	FetchBiography(ctx context.Context, authorID uint) (bool, error)
}

// FetchAuthorBioTask fetches a biography for one author.
type FetchAuthorBioTask struct {
	AuthorID uint `json:"author_id"`
}

// Config returns the queue configuration for biography tasks.
func (t FetchAuthorBioTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fetch_author_bio",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FetchAuthorBioProcessor creates a processor function for FetchAuthorBioTask.
// A deleted author is not retried.
func FetchAuthorBioProcessor(fetcher BiographyFetcher) backlite.QueueProcessor[FetchAuthorBioTask] {
	return func(ctx context.Context, task FetchAuthorBioTask) error {
		if fetcher == nil {
			return fmt.Errorf("biography fetcher not configured")
		}

		found, err := fetcher.FetchBiography(ctx, task.AuthorID)
		if errors.Is(err, services.ErrAuthorNotFound) {
			log.Printf("[TASK] Author %d no longer exists, skipping biography", task.AuthorID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch biography for author %d: %w", task.AuthorID, err)
		}

		if found {
			log.Printf("[TASK] Stored biography for author %d", task.AuthorID)
		} else {
			log.Printf("[TASK] No biography found for author %d", task.AuthorID)
		}
		return nil
	}
}

// NewFetchAuthorBioQueue creates a backlite queue for biography tasks.
func NewFetchAuthorBioQueue(fetcher BiographyFetcher) backlite.Queue {
	return backlite.NewQueue(FetchAuthorBioProcessor(fetcher))
}
