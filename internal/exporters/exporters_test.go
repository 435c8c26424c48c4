package exporters

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/entities"
)

func fixtureBooks() []entities.Book {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	borrowed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &entities.User{ID: 1, Name: "Reader", Email: "reader@example.com"}

	return []entities.Book{
		{
			ID:          1,
			Title:       "Dune",
			Author:      entities.Author{Name: "Frank Herbert", Gender: "Male"},
			ISBN:        "9780441013593",
			Language:    "English",
			PublishYear: 1965,
			Pages:       412,
			Owner:       "reader",
			Description: `Spice, "sand" and worms`,
			Categories: []entities.Category{
				{Name: "Science Fiction", Color: "#3b82f6", Icon: "rocket"},
				{Name: "Classics"},
			},
			Tags: []entities.Tag{{Name: "signed"}},
			ReadingStatuses: []entities.ReadingStatus{
				{UserID: 1, BookID: 1, Status: entities.StatusRead, UpdatedAt: updated, User: reader},
			},
			Loans: []entities.Loan{
				{BookID: 1, LenderID: 1, BorrowerName: "Alice", BorrowedAt: borrowed, DueDate: &due, PreviousStatus: entities.StatusRead, Lender: reader},
			},
			CreatedAt: created,
			UpdatedAt: updated,
		},
		{
			ID:        2,
			Title:     "Untitled Notes",
			Author:    entities.Author{Name: entities.UnknownAuthor},
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteJSON(t *testing.T) {
	exportedAt := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	backup := NewBackup(fixtureBooks(), "reader@example.com", exportedAt)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, backup))
	golden(t).Assert(t, "backup_json", buf.Bytes())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixtureBooks(), 1))
	golden(t).Assert(t, "export_csv", buf.Bytes())
}

func TestNewBackup_EmptyLibrary(t *testing.T) {
	backup := NewBackup(nil, "reader@example.com", time.Now())
	assert.Equal(t, BackupVersion, backup.Version)
	assert.NotNil(t, backup.Books)
	assert.Empty(t, backup.Books)
}

func TestFilenames(t *testing.T) {
	at := time.Date(2024, 4, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "library_backup_2024-04-01.json", JSONFilename(at))
	assert.Equal(t, "library_export_2024-04-01.csv", CSVFilename(at))
}
