package books

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/entities"
)

type fixture struct {
	repo    *Repository
	db      *gorm.DB
	user    *entities.User
	author  *entities.Author
	scifi   *entities.Category
	history *entities.Category
	shelf   *entities.Location
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "books.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		repo:    NewRepository(db),
		db:      db,
		user:    &entities.User{Name: "Ada", Email: "ada@example.com"},
		author:  &entities.Author{Name: "Frank Herbert"},
		scifi:   &entities.Category{Name: "Sci-Fi"},
		history: &entities.Category{Name: "History"},
		shelf:   &entities.Location{Name: "Shelf"},
	}
	require.NoError(t, db.Create(f.user).Error)
	require.NoError(t, db.Create(f.author).Error)
	require.NoError(t, db.Create(f.scifi).Error)
	require.NoError(t, db.Create(f.history).Error)
	require.NoError(t, db.Create(f.shelf).Error)
	return f
}

func (f *fixture) book(t *testing.T, b entities.Book) *entities.Book {
	t.Helper()
	if b.AuthorID == 0 {
		b.AuthorID = f.author.ID
	}
	require.NoError(t, f.repo.Create(&b))
	return &b
}

func titles(list []entities.Book) []string {
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.Title)
	}
	return out
}

func TestRepository_ListFilters(t *testing.T) {
	f := setup(t)

	dune := f.book(t, entities.Book{Title: "Dune", ISBN: "9780441013593", Categories: []entities.Category{*f.scifi}, LocationID: &f.shelf.ID})
	f.book(t, entities.Book{Title: "SPQR", Categories: []entities.Category{*f.history}})
	f.book(t, entities.Book{Title: "Untitled"})
	require.NoError(t, f.db.Create(&entities.ReadingStatus{UserID: f.user.ID, BookID: dune.ID, Status: entities.StatusReading}).Error)

	t.Run("default sort is title ascending", func(t *testing.T) {
		list, err := f.repo.List(Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dune", "SPQR", "Untitled"}, titles(list))
	})

	t.Run("title descending", func(t *testing.T) {
		list, err := f.repo.List(Filter{Sort: SortTitleDesc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Untitled", "SPQR", "Dune"}, titles(list))
	})

	t.Run("category", func(t *testing.T) {
		list, err := f.repo.List(Filter{CategoryID: &f.scifi.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dune"}, titles(list))

		list, err = f.repo.List(Filter{NoCategory: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Untitled"}, titles(list))
	})

	t.Run("location", func(t *testing.T) {
		list, err := f.repo.List(Filter{LocationID: &f.shelf.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dune"}, titles(list))

		list, err = f.repo.List(Filter{NoLocation: true})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("status", func(t *testing.T) {
		list, err := f.repo.List(Filter{Status: entities.StatusReading})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dune"}, titles(list))
	})

	t.Run("query matches author, category or isbn", func(t *testing.T) {
		list, err := f.repo.List(Filter{Query: "herbert", NoLocation: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"SPQR", "Untitled"}, titles(list))

		list, err = f.repo.List(Filter{Query: "histo"})
		require.NoError(t, err)
		assert.Equal(t, []string{"SPQR"}, titles(list))

		list, err = f.repo.List(Filter{Query: "0441013593"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Dune"}, titles(list))
	})

	t.Run("relations are loaded", func(t *testing.T) {
		list, err := f.repo.List(Filter{CategoryID: &f.scifi.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Frank Herbert", list[0].Author.Name)
		assert.Equal(t, []string{"Sci-Fi"}, list[0].CategoryNames())
		require.NotNil(t, list[0].Location)
		assert.Equal(t, entities.StatusReading, list[0].StatusFor(f.user.ID))
	})
}

func TestRepository_UpdateReplacesAssociations(t *testing.T) {
	f := setup(t)
	b := f.book(t, entities.Book{Title: "Dune", Categories: []entities.Category{*f.scifi}})

	loaded, err := f.repo.GetByID(b.ID)
	require.NoError(t, err)
	loaded.Pages = 412
	require.NoError(t, f.repo.Update(loaded, []entities.Category{*f.history}, nil))

	reloaded, err := f.repo.GetByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 412, reloaded.Pages)
	assert.Equal(t, []string{"History"}, reloaded.CategoryNames())
}

func TestRepository_BulkOperations(t *testing.T) {
	f := setup(t)
	a := f.book(t, entities.Book{Title: "A"})
	b := f.book(t, entities.Book{Title: "B", Categories: []entities.Category{*f.scifi}})

	require.NoError(t, f.repo.AddCategoryToBooks([]uint{a.ID, b.ID}, f.scifi.ID))
	list, err := f.repo.List(Filter{CategoryID: &f.scifi.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	moved, err := f.repo.SetLocation([]uint{a.ID, b.ID}, &f.shelf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	require.NoError(t, f.db.Create(&entities.ReadingStatus{UserID: f.user.ID, BookID: a.ID, Status: entities.StatusRead}).Error)
	deleted, err := f.repo.Delete([]uint{a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var statuses int64
	f.db.Model(&entities.ReadingStatus{}).Count(&statuses)
	assert.Zero(t, statuses)

	exists, err := f.repo.Exists(a.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_Lookups(t *testing.T) {
	f := setup(t)
	b := f.book(t, entities.Book{Title: "Dune", ISBN: "9780441013593", Language: "English"})
	f.book(t, entities.Book{Title: "Le Petit Prince", Language: "French"})
	f.book(t, entities.Book{Title: "No language"})

	found, err := f.repo.FindByISBN("9780441013593")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, b.ID, found.ID)

	missing, err := f.repo.FindByISBN("123")
	require.NoError(t, err)
	assert.Nil(t, missing)

	taken, err := f.repo.ISBNTaken("9780441013593", b.ID)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = f.repo.ISBNTaken("9780441013593", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	byTitle, err := f.repo.FindByTitleAndAuthor("Dune", f.author.ID)
	require.NoError(t, err)
	require.NotNil(t, byTitle)

	langs, err := f.repo.Languages()
	require.NoError(t, err)
	assert.Equal(t, []string{"English", "French"}, langs)
}

func TestRepository_Owned(t *testing.T) {
	f := setup(t)
	f.book(t, entities.Book{Title: "Linked", OwnerID: &f.user.ID})
	f.book(t, entities.Book{Title: "By name", Owner: "Ada"})
	f.book(t, entities.Book{Title: "Someone else's", Owner: "Bob"})

	list, err := f.repo.Owned(f.user, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Linked", "By name"}, titles(list))

	list, err = f.repo.Owned(f.user, "link")
	require.NoError(t, err)
	assert.Equal(t, []string{"Linked"}, titles(list))
}

func TestRepository_RandomUnread(t *testing.T) {
	f := setup(t)
	read := f.book(t, entities.Book{Title: "Read already", Pages: 100})
	f.book(t, entities.Book{Title: "Doorstopper", Pages: 900, Language: "English"})
	require.NoError(t, f.db.Create(&entities.ReadingStatus{UserID: f.user.ID, BookID: read.ID, Status: entities.StatusRead}).Error)

	got, err := f.repo.RandomUnread(f.user.ID, SuggestionFilter{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Doorstopper", got.Title)

	got, err = f.repo.RandomUnread(f.user.ID, SuggestionFilter{Length: LengthShort})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.repo.RandomUnread(f.user.ID, SuggestionFilter{Length: LengthLong, Language: "English"})
	require.NoError(t, err)
	require.NotNil(t, got)
}
