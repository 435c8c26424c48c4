package importers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrEmptyCSV = errors.New("Empty CSV")

// CSVConverter reads the column layout written by exporters.WriteCSV:
// Title, Author, ISBN, Language, Publish Year, Pages, Owner, Description,
// Categories (separated by ";"), My Status. The status column is ignored.
type CSVConverter struct {
	data []byte
}

func NewCSVConverter(data []byte) *CSVConverter {
	return &CSVConverter{data: data}
}

func (c *CSVConverter) Mode() Mode         { return ModeConnect }
func (c *CSVConverter) AllowIDMatch() bool { return false }

func (c *CSVConverter) Convert() ([]Record, error) {
	reader := csv.NewReader(bytes.NewReader(c.data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	var parseErrs []error
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, nil)
				parseErrs = append(parseErrs, err)
				continue
			}
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, row)
		parseErrs = append(parseErrs, nil)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyCSV
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if err := parseErrs[i+1]; err != nil {
			records = append(records, Record{Err: err})
			continue
		}
		records = append(records, csvRecord(row))
	}
	return records, nil
}

func csvRecord(cols []string) Record {
	col := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	r := Record{
		Title:       col(0),
		Author:      col(1),
		ISBN:        col(2),
		Language:    col(3),
		PublishYear: atoi(col(4)),
		Pages:       atoi(col(5)),
		Owner:       col(6),
		Description: col(7),
	}
	if len(cols) < 2 {
		r.Err = errSkip
	}
	for _, name := range strings.Split(col(8), ";") {
		if name = strings.TrimSpace(name); name != "" {
			r.Categories = append(r.Categories, Category{Name: name})
		}
	}
	return r
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
