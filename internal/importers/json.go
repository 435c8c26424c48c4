package importers

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrMissingBooks = errors.New("Invalid JSON format: missing books array")

// JSONConverter reads the backup written by exporters.WriteJSON. Fields it
// does not know are ignored; ids that are not numbers are treated as absent.
type JSONConverter struct {
	data []byte
}

func NewJSONConverter(data []byte) *JSONConverter {
	return &JSONConverter{data: data}
}

func (c *JSONConverter) Mode() Mode         { return ModeReplace }
func (c *JSONConverter) AllowIDMatch() bool { return true }

type jsonBackup struct {
	Books *[]jsonBook `json:"books"`
}

type jsonBook struct {
	ID     any    `json:"id"`
	Title  string `json:"title"`
	Author *struct {
		Name   string `json:"name"`
		Gender string `json:"gender"`
	} `json:"author"`
	ISBN        string `json:"isbn"`
	Language    string `json:"language"`
	Publisher   string `json:"publisher"`
	PublishYear int    `json:"publishYear"`
	Pages       int    `json:"pages"`
	Owner       string `json:"owner"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage"`
	Categories  []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	} `json:"categories"`
	Tags []string `json:"tags"`
}

func (c *JSONConverter) Convert() ([]Record, error) {
	var backup jsonBackup
	if err := json.Unmarshal(c.data, &backup); err != nil || backup.Books == nil {
		return nil, ErrMissingBooks
	}

	records := make([]Record, 0, len(*backup.Books))
	for _, b := range *backup.Books {
		r := Record{
			ID:          numericID(b.ID),
			Title:       b.Title,
			ISBN:        b.ISBN,
			Language:    b.Language,
			Publisher:   b.Publisher,
			PublishYear: b.PublishYear,
			Pages:       b.Pages,
			Owner:       b.Owner,
			Description: b.Description,
			CoverImage:  b.CoverImage,
			Tags:        b.Tags,
		}
		if b.Author != nil {
			r.Author = b.Author.Name
			r.AuthorGender = b.Author.Gender
		}
		for _, cat := range b.Categories {
			r.Categories = append(r.Categories, Category{Name: cat.Name, Color: cat.Color, Icon: cat.Icon})
		}
		records = append(records, r)
	}
	return records, nil
}

func numericID(v any) uint {
	if f, ok := v.(float64); ok && f > 0 && f == float64(uint(f)) {
		return uint(f)
	}
	return 0
}
