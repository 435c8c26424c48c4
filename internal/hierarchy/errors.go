package hierarchy

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrSelfParent       = errors.New("node cannot be its own parent")
	ErrCircular         = errors.New("circular hierarchy")
	ErrMaxDepthExceeded = errors.New("maximum depth exceeded")
	ErrHasChildren      = errors.New("node has children")
	ErrHasItems         = errors.New("node has attached items")
	ErrNodeNotFound     = errors.New("node not found")
)

// Error is returned for every rejected tree operation. Its message is meant
// to be shown to the user as is.
type Error struct {
	Kind  Kind
	Err   error
	Count int64
}

func (e *Error) Error() string {
	switch e.Err {
	case ErrSelfParent:
		return fmt.Sprintf("%s cannot be its own parent", title(e.Kind.Name))
	case ErrCircular:
		return fmt.Sprintf("Cannot create circular %s hierarchy", e.Kind.Name)
	case ErrMaxDepthExceeded:
		return fmt.Sprintf("Maximum %s depth is %d levels", e.Kind.Name, e.Kind.MaxDepth)
	case ErrHasItems:
		return fmt.Sprintf("Cannot delete %s: contains %d book(s). Please move them first.", e.Kind.Name, e.Count)
	case ErrHasChildren:
		return fmt.Sprintf("Cannot delete %s: contains %d %s. Please delete or move them first.", e.Kind.Name, e.Count, e.Kind.ChildNoun)
	case ErrNodeNotFound:
		return fmt.Sprintf("Parent %s not found", e.Kind.Name)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}
