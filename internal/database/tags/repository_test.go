package tags

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

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tags.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return NewRepository(db), db
}

func TestRepository_GetOrCreateTag_CaseInsensitive(t *testing.T) {
	repo, _ := setupTestDB(t)

	first, err := repo.GetOrCreateTag("Signed")
	require.NoError(t, err)

	second, err := repo.GetOrCreateTag("signed")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Signed", second.Name)
}

func TestRepository_Resolve(t *testing.T) {
	repo, _ := setupTestDB(t)

	list, err := repo.Resolve([]string{"hardcover", " ", "Hardcover", "gift"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hardcover", list[0].Name)
	assert.Equal(t, "gift", list[1].Name)

	all, err := repo.ListTags()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_SearchTags(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.Resolve([]string{"first edition", "signed edition", "paperback"})
	require.NoError(t, err)

	found, err := repo.SearchTags("EDITION")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestRepository_DeleteOrphanTags(t *testing.T) {
	repo, db := setupTestDB(t)

	list, err := repo.Resolve([]string{"kept", "orphan"})
	require.NoError(t, err)

	author := entities.Author{Name: "Someone"}
	require.NoError(t, db.Create(&author).Error)
	book := entities.Book{Title: "Tagged", AuthorID: author.ID, Tags: []entities.Tag{list[0]}}
	require.NoError(t, db.Omit("Author").Create(&book).Error)

	deleted, err := repo.DeleteOrphanTags()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.ListTags()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "kept", remaining[0].Name)
}
