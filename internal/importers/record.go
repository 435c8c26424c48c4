package importers

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category is a category reference carried by a record.
type Category struct {
	Name  string
	Color string
	Icon  string
}

// Record is one book parsed from an import file.
type Record struct {
	// ID is the book id from a JSON backup, 0 when unknown.
	ID           uint
	Title        string
	Author       string
	AuthorGender string
	ISBN         string
	Language     string
	Publisher    string
	PublishYear  int
	Pages        int
	Owner        string
	Description  string
	CoverImage   string
	Categories   []Category
	// Tags is nil when the source carries no tag information.
	Tags []string
	// Err marks a row that could not be parsed; the pipeline counts it as
	// failed.
	Err error
}

// Mode controls how a matched book is updated.
type Mode int

const (
	// ModeReplace overwrites the matched book's fields and categories.
	ModeReplace Mode = iota
	// ModeConnect only adds the record's categories to the matched book.
	ModeConnect
)

// Converter turns a raw import file into records.
type Converter interface {
	Convert() ([]Record, error)
	Mode() Mode
	// AllowIDMatch reports whether records carry ids of this library.
	AllowIDMatch() bool
}

// Stats summarizes an import run.
type Stats struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// normalize trims and NFC-normalizes a matching key.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
