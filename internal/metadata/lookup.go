package metadata

import (
	"context"
	"errors"
	"log"
)

// ISBNSource is one ISBN database.
type ISBNSource interface {
	LookupISBN(ctx context.Context, isbn string) (*BookRecord, error)
}

// Lookup asks the primary source first and falls back to the secondary one
// when the primary fails, has no record, or has a record without a cover
// that the secondary can supply.
type Lookup struct {
	primary   ISBNSource
	secondary ISBNSource
}

func NewLookup(primary, secondary ISBNSource) *Lookup {
	return &Lookup{primary: primary, secondary: secondary}
}

// ISBN never fails; ok is false when neither source knows the book.
func (l *Lookup) ISBN(ctx context.Context, isbn string) (*BookRecord, bool) {
	if CleanISBN(isbn) == "" {
		return nil, false
	}

	record, err := l.primary.LookupISBN(ctx, isbn)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("Primary ISBN lookup failed for %s, falling back: %v", isbn, err)
	}
	if err != nil {
		return l.fallback(ctx, isbn)
	}

	if record.CoverImage == "" {
		if alt, ok := l.fallback(ctx, isbn); ok && alt.CoverImage != "" {
			return alt, true
		}
	}
	return record, true
}

func (l *Lookup) fallback(ctx context.Context, isbn string) (*BookRecord, bool) {
	if l.secondary == nil {
		return nil, false
	}
	record, err := l.secondary.LookupISBN(ctx, isbn)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Fallback ISBN lookup failed for %s: %v", isbn, err)
		}
		return nil, false
	}
	return record, true
}
