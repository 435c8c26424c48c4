package loans

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/entities"
)

func setup(t *testing.T) (*Repository, *entities.User, []entities.Book) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "loans.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	lender := &entities.User{Name: "Lender", Email: "lender@example.com"}
	require.NoError(t, db.Create(lender).Error)

	author := entities.Author{Name: "Author"}
	require.NoError(t, db.Create(&author).Error)
	books := []entities.Book{{Title: "First", AuthorID: author.ID}, {Title: "Second", AuthorID: author.ID}}
	for i := range books {
		require.NoError(t, db.Omit("Author").Create(&books[i]).Error)
	}
	return NewRepository(db), lender, books
}

func TestRepository_OpenForBookAndClose(t *testing.T) {
	repo, lender, books := setup(t)

	open, err := repo.OpenForBook(books[0].ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	loan := &entities.Loan{BookID: books[0].ID, LenderID: lender.ID, BorrowerName: "Alice", BorrowedAt: time.Now()}
	require.NoError(t, repo.Create(loan))

	open, err = repo.OpenForBook(books[0].ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, loan.ID, open.ID)

	closed, err := repo.Close(loan.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = repo.Close(loan.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, closed)

	open, err = repo.OpenForBook(books[0].ID)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestRepository_OpenByLender(t *testing.T) {
	repo, lender, books := setup(t)

	older := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Create(&entities.Loan{BookID: books[0].ID, LenderID: lender.ID, BorrowerName: "Alice", BorrowedAt: older}))
	require.NoError(t, repo.Create(&entities.Loan{BookID: books[1].ID, LenderID: lender.ID, BorrowerName: "Bob", BorrowedAt: time.Now()}))

	list, err := repo.OpenByLender(lender.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].BorrowerName)
	require.NotNil(t, list[0].Book)
	assert.Equal(t, "Author", list[0].Book.Author.Name)

	all, err := repo.Open()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Lender)
	assert.Equal(t, "Lender", all[0].Lender.Name)
}
