package tasks

import (
	"log"

	"github.com/mikestefanello/backlite"
)

// Dispatcher turns service hooks into queued tasks. It satisfies
// services.ReadHook and services.AuthorHook.
type Dispatcher struct {
	client *Client
}

func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// BookRead enqueues the reward pass for a finished book.
func (d *Dispatcher) BookRead(userID, bookID uint) {
	d.enqueue(AwardReadTask{UserID: userID, BookID: bookID})
}

// BiographyNeeded enqueues a biography fetch.
func (d *Dispatcher) BiographyNeeded(authorID uint) {
	d.enqueue(FetchAuthorBioTask{AuthorID: authorID})
}

// BooksDeleted enqueues an orphan tag cleanup.
func (d *Dispatcher) BooksDeleted(count int) {
	d.enqueue(CleanupOrphanTagsTask{DeletedBooks: count})
}

// CleanupAuditEvents enqueues removal of audit events older than retentionDays.
func (d *Dispatcher) CleanupAuditEvents(retentionDays int) (string, error) {
	return d.client.Enqueue(CleanupAuditEventsTask{RetentionDays: retentionDays})
}

func (d *Dispatcher) enqueue(task backlite.Task) {
	id, err := d.client.Enqueue(task)
	if err != nil {
		log.Printf("[TASK ERROR] %v", err)
		return
	}
	log.Printf("[TASK] Enqueued %s with ID: %s", task.Config().Name, id)
}
