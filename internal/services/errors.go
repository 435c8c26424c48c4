package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/hierarchy"
)

// ErrorKind classifies domain failures so transports can pick a status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

// Error is a domain failure whose message is safe to show to users.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Msg: msg} }
func Forbidden(msg string) error  { return &Error{Kind: KindForbidden, Msg: msg} }

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

var (
	ErrBookNotFound     = NotFound("Book not found")
	ErrCategoryNotFound = NotFound("Category not found")
	ErrLocationNotFound = NotFound("Location not found")
	ErrAuthorNotFound   = NotFound("Author not found")
	ErrLoanNotFound     = NotFound("Loan not found")

	ErrTitleAuthorRequired = Validation("Title and Author are required")
	ErrNameRequired        = Validation("Name is required")
	ErrInvalidStatus       = Validation("Invalid reading status")
	ErrBorrowerRequired    = Validation("Borrower name is required")
	ErrNoBooksSelected     = Validation("No books selected")

	ErrDuplicateISBN     = Conflict("A book with this ISBN already exists in the library")
	ErrDuplicateCategory = Conflict("A category with this name already exists")
	ErrDuplicateLocation = Conflict("A location with this name already exists")
	ErrAlreadyLent       = Conflict("Book is currently borrowed")
	ErrAlreadyReturned   = Conflict("Book already returned")
	ErrBookBeingRead     = Conflict("Book is currently being read")

	ErrUnauthorizedReturn = Forbidden("Unauthorized to return this book")
	ErrAdminOnly          = Forbidden("Unauthorized: Admins only")
)

// ReaderConflictError rejects a Reading status while another user reads the
// book. errors.Is(err, ErrBookBeingRead) holds for it.
type ReaderConflictError struct {
	Reader string
}

func (e *ReaderConflictError) Error() string {
	return "Book is currently being read by " + e.Reader
}

func (e *ReaderConflictError) Is(target error) bool {
	return target == ErrBookBeingRead
}

// KindOf classifies any error returned by this package.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	var conflictErr *ReaderConflictError
	if errors.As(err, &conflictErr) {
		return KindConflict
	}
	var treeErr *hierarchy.Error
	if errors.As(err, &treeErr) {
		if errors.Is(err, hierarchy.ErrNodeNotFound) {
			return KindNotFound
		}
		return KindValidation
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}
