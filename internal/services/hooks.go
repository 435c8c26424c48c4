package services

import "context"

// ReadHook is notified after a transition into Read has been committed.
// Implementations must not block the caller.
type ReadHook interface {
	BookRead(userID, bookID uint)
}

// AuthorHook is notified when an author should get a biography fetched, for
// instance right after the author row was created.
type AuthorHook interface {
	BiographyNeeded(authorID uint)
}

// CoverInliner turns a remote cover URL into the value stored on the book.
// It returns the URL unchanged when the image cannot be fetched.
type CoverInliner interface {
	Inline(ctx context.Context, url string) string
}
