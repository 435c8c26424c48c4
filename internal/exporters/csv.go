package exporters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/biblion/internal/entities"
)

// CSVHeader is the column layout shared with importers.CSVConverter.
var CSVHeader = []string{"Title", "Author", "ISBN", "Language", "Publish Year", "Pages", "Owner", "Description", "Categories", "My Status"}

// CategorySeparator joins category names in the Categories column.
const CategorySeparator = "; "

func CSVFilename(t time.Time) string {
	return fmt.Sprintf("library_export_%s.csv", t.UTC().Format("2006-01-02"))
}

// WriteCSV writes one row per book with the status of userID in the last
// column. Books must carry their author, categories and reading statuses.
func WriteCSV(w io.Writer, books []entities.Book, userID uint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range books {
		if err := cw.Write(csvRow(b, userID)); err != nil {
			return fmt.Errorf("failed to write %q: %w", b.Title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(b entities.Book, userID uint) []string {
	return []string{
		b.Title,
		b.Author.Name,
		b.ISBN,
		b.Language,
		optionalInt(b.PublishYear),
		optionalInt(b.Pages),
		b.Owner,
		b.Description,
		strings.Join(b.CategoryNames(), CategorySeparator),
		string(b.StatusFor(userID)),
	}
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
