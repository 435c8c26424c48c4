package importers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/entities"
)

func setupDB(t *testing.T) (*gorm.DB, *entities.User) {
	t.Helper()
	d, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	user := &entities.User{Name: "Importer", Email: "importer@example.com"}
	require.NoError(t, d.DB.Create(user).Error)
	return d.DB, user
}

func loadBook(t *testing.T, db *gorm.DB, title string) entities.Book {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.Preload("Author").Preload("Categories").Preload("Tags").Preload("ReadingStatuses").
		Where("title = ?", title).First(&book).Error)
	return book
}

func TestJSONImport_CreatesBooks(t *testing.T) {
	db, user := setupDB(t)
	data := []byte(`{
		"version": "1.0",
		"exportUser": "someone@example.com",
		"books": [
			{"id": "ckx1", "title": "Dune", "author": {"name": "Frank Herbert", "gender": "Male"},
			 "isbn": "9780441013593", "pages": 412,
			 "categories": [{"name": "Science Fiction", "color": "#3b82f6", "icon": "rocket"}],
			 "tags": ["signed"]},
			{"title": "Anonymous Notes"}
		]
	}`)

	stats, err := NewPipeline(db).Import(context.Background(), NewJSONConverter(data), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Created)
	assert.Zero(t, stats.Failed)

	dune := loadBook(t, db, "Dune")
	assert.Equal(t, "Frank Herbert", dune.Author.Name)
	assert.Equal(t, "Male", dune.Author.Gender)
	require.Len(t, dune.Categories, 1)
	assert.Equal(t, "#3b82f6", dune.Categories[0].Color)
	require.Len(t, dune.Tags, 1)
	assert.Equal(t, entities.StatusToRead, dune.StatusFor(user.ID))
	require.Len(t, dune.ReadingStatuses, 1)

	notes := loadBook(t, db, "Anonymous Notes")
	assert.Equal(t, entities.UnknownAuthor, notes.Author.Name)
}

func TestJSONImport_UpdatesByISBN(t *testing.T) {
	db, user := setupDB(t)
	pipeline := NewPipeline(db)
	ctx := context.Background()

	first := []byte(`{"books":[{"title":"Dune","author":{"name":"Frank Herbert"},"isbn":"9780441013593","pages":400,
		"categories":[{"name":"Classics"}]}]}`)
	_, err := pipeline.Import(ctx, NewJSONConverter(first), user.ID)
	require.NoError(t, err)

	second := []byte(`{"books":[{"title":"Dune (Deluxe)","author":{"name":"Frank Herbert"},"isbn":"9780441013593","pages":412,
		"categories":[{"name":"Science Fiction"}]}]}`)
	stats, err := pipeline.Import(ctx, NewJSONConverter(second), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Zero(t, stats.Created)

	var count int64
	require.NoError(t, db.Model(&entities.Book{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	book := loadBook(t, db, "Dune (Deluxe)")
	assert.Equal(t, 412, book.Pages)
	assert.Equal(t, []string{"Science Fiction"}, book.CategoryNames())
}

func TestJSONImport_InvalidDocument(t *testing.T) {
	db, user := setupDB(t)
	for _, data := range []string{`{"version":"1.0"}`, `not json`} {
		_, err := NewPipeline(db).Import(context.Background(), NewJSONConverter([]byte(data)), user.ID)
		assert.ErrorIs(t, err, ErrMissingBooks)
		assert.Equal(t, "Invalid JSON format: missing books array", err.Error())
	}
}

func TestCSVImport(t *testing.T) {
	db, user := setupDB(t)
	pipeline := NewPipeline(db)
	ctx := context.Background()

	data := []byte("Title,Author,ISBN,Language,Publish Year,Pages,Owner,Description,Categories,My Status\n" +
		"Dune,Frank Herbert,9780441013593,English,1965,412,Importer,\"Spice, sand\",Science Fiction; Classics,Read\n" +
		",Nobody,,,,,,,,\n" +
		"lonely\n" +
		"\n")

	stats, err := pipeline.Import(ctx, NewCSVConverter(data), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "Title and Author required")

	book := loadBook(t, db, "Dune")
	assert.Equal(t, 1965, book.PublishYear)
	assert.Equal(t, "Spice, sand", book.Description)
	assert.ElementsMatch(t, []string{"Science Fiction", "Classics"}, book.CategoryNames())
	// The status column does not carry over.
	assert.Equal(t, entities.StatusToRead, book.StatusFor(user.ID))

	// A second import connects categories without removing existing ones.
	again := []byte("Title,Author,ISBN\nDune,Frank Herbert,9780441013593,,,,,,Favourites\n")
	stats, err = pipeline.Import(ctx, NewCSVConverter(again), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	book = loadBook(t, db, "Dune")
	assert.ElementsMatch(t, []string{"Science Fiction", "Classics", "Favourites"}, book.CategoryNames())
	assert.Equal(t, 412, book.Pages)
}

func TestCSVImport_Empty(t *testing.T) {
	db, user := setupDB(t)
	_, err := NewPipeline(db).Import(context.Background(), NewCSVConverter([]byte("Title,Author\n")), user.ID)
	assert.ErrorIs(t, err, ErrEmptyCSV)
}

func TestNormalize(t *testing.T) {
	// e followed by a combining acute accent becomes the precomposed form.
	assert.Equal(t, "Caf\u00e9", normalize("  Cafe\u0301 "))
}
