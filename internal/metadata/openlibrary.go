package metadata

import (
	"context"
	"fmt"
	"strings"
)

// OpenLibraryClient fetches book metadata from the OpenLibrary books API.
type OpenLibraryClient struct {
	client
}

func NewOpenLibraryClient(opts Options) *OpenLibraryClient {
	return &OpenLibraryClient{client: newClient(opts, "https://openlibrary.org")}
}

func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*BookRecord, error) {
	isbn = CleanISBN(isbn)
	if isbn == "" {
		return nil, ErrNotFound
	}

	key := "ISBN:" + isbn
	endpoint := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json", c.baseURL, key)
	var result map[string]openLibraryBook
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	book, ok := result[key]
	if !ok {
		return nil, ErrNotFound
	}

	record := &BookRecord{
		Title:       book.Title,
		Author:      "Unknown Author",
		ISBN:        isbn,
		PublishYear: extractYear(book.PublishDate),
		Pages:       book.NumberOfPages,
		Description: book.description(),
		Source:      "openlibrary",
	}
	if names := names(book.Authors); len(names) > 0 {
		record.Author = strings.Join(names, ", ")
	}
	if names := names(book.Publishers); len(names) > 0 {
		record.Publisher = strings.Join(names, ", ")
	}
	switch {
	case book.Cover.Large != "":
		record.CoverImage = book.Cover.Large
	case book.Cover.Medium != "":
		record.CoverImage = book.Cover.Medium
	default:
		record.CoverImage = book.Cover.Small
	}
	return record, nil
}

type named struct {
	Name string `json:"name"`
}

func names(list []named) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}

type openLibraryBook struct {
	Title         string  `json:"title"`
	Authors       []named `json:"authors"`
	Publishers    []named `json:"publishers"`
	PublishDate   string  `json:"publish_date"`
	NumberOfPages int     `json:"number_of_pages"`
	// Description can be a string or {type, value}.
	Description any `json:"description"`
	Cover       struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

func (b *openLibraryBook) description() string {
	switch v := b.Description.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}
