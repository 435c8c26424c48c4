package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/entities"
)

func book(id uint, gender, lang string, created time.Time, cats ...string) entities.Book {
	b := entities.Book{
		ID:        id,
		Title:     "Book",
		Language:  lang,
		Author:    entities.Author{Name: "A", Gender: gender},
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, c := range cats {
		b.Categories = append(b.Categories, entities.Category{Name: c})
	}
	return b
}

func withStatus(b entities.Book, userID uint, status entities.Status, at time.Time) entities.Book {
	b.ReadingStatuses = append(b.ReadingStatuses, entities.ReadingStatus{UserID: userID, BookID: b.ID, Status: status, UpdatedAt: at})
	return b
}

func TestCompute(t *testing.T) {
	jan := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	old := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)

	books := []entities.Book{
		withStatus(book(1, "Female", "English", jan, "Fiction"), 7, entities.StatusRead, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)),
		withStatus(book(2, "Male", "English", mar, "Fiction", "History"), 7, entities.StatusReading, mar),
		book(3, "", "", old),
		// Another user's status does not count.
		withStatus(book(4, "Female", "French", mar), 8, entities.StatusRead, mar),
	}

	s := Compute(books, 7, 2024)

	assert.Equal(t, 4, s.TotalBooks)
	assert.Equal(t, 1, s.TotalRead)
	assert.Equal(t, 2, s.TotalToRead)
	assert.Equal(t, 1, s.TotalReading)
	assert.Zero(t, s.TotalStudying)

	assert.Equal(t, []Segment{
		{Name: "Female", Value: 2, BookIDs: []uint{1, 4}},
		{Name: "Male", Value: 1, BookIDs: []uint{2}},
		{Name: "Unknown", Value: 1, BookIDs: []uint{3}},
	}, s.Gender)

	assert.Equal(t, []Segment{
		{Name: "To read", Value: 2, BookIDs: []uint{3, 4}},
		{Name: "Read", Value: 1, BookIDs: []uint{1}},
		{Name: "Reading", Value: 1, BookIDs: []uint{2}},
	}, s.Status)

	assert.Equal(t, []Segment{{Name: "2023", Value: 1, BookIDs: []uint{1}}}, s.Activity)

	require.Len(t, s.Categories, 2)
	assert.Equal(t, "Fiction", s.Categories[0].Name)
	assert.Equal(t, 2, s.Categories[0].Value)

	assert.Equal(t, "English", s.Languages[0].Name)
	assert.Equal(t, 2, s.Languages[0].Value)

	require.Len(t, s.BooksAdded, 12)
	assert.Equal(t, Segment{Name: "Jan", Value: 1, BookIDs: []uint{1}}, s.BooksAdded[0])
	assert.Equal(t, 2, s.BooksAdded[2].Value)
	assert.Zero(t, s.BooksAdded[5].Value)
}

func TestCompute_TopTenCategories(t *testing.T) {
	now := time.Now()
	var books []entities.Book
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for i, n := range names {
		books = append(books, book(uint(i+1), "", "", now, n))
	}

	s := Compute(books, 1, 0)
	assert.Len(t, s.Categories, 10)
	assert.Equal(t, now.Year(), s.Year)
	assert.Equal(t, "a", s.Categories[0].Name)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, 1, 2024)
	assert.Zero(t, s.TotalBooks)
	assert.Empty(t, s.Gender)
	assert.Len(t, s.BooksAdded, 12)
}
