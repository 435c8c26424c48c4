package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// TagPruner removes tags that no book carries.
type TagPruner interface {
	DeleteOrphanTags() (int64, error)
}

// CleanupOrphanTagsTask follows a book deletion. DeletedBooks is only
// reported in the log; the pass always scans the whole tag table.
type CleanupOrphanTagsTask struct {
	DeletedBooks int `json:"deleted_books"`
}

// Config keeps a single attempt. The next deletion schedules another pass,
// so a failed one only needs to be visible, not retried.
func (t CleanupOrphanTagsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_tags",
		MaxAttempts: 1,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   6 * time.Hour,
			OnlyFailed: true,
		},
	}
}

var errNoTagPruner = errors.New("tag pruner not configured")

func CleanupOrphanTagsProcessor(pruner TagPruner) backlite.QueueProcessor[CleanupOrphanTagsTask] {
	return func(ctx context.Context, task CleanupOrphanTagsTask) error {
		if pruner == nil {
			return errNoTagPruner
		}
		removed, err := pruner.DeleteOrphanTags()
		if err != nil {
			return fmt.Errorf("prune tags after deleting %d book(s): %w", task.DeletedBooks, err)
		}
		if removed > 0 {
			log.Printf("[TASK] Removed %d unused tag(s) after deleting %d book(s)", removed, task.DeletedBooks)
		}
		return nil
	}
}

func NewCleanupOrphanTagsQueue(pruner TagPruner) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanTagsProcessor(pruner))
}
