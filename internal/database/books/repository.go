// Package books provides database operations for the book catalogue.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	list, err := repo.List(books.Filter{Query: "le guin", Sort: books.SortCreatedDesc})
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/biblion/internal/entities"
)

const (
	SortTitleAsc    = "title_asc"
	SortTitleDesc   = "title_desc"
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
)

var sortOrders = map[string]string{
	SortTitleAsc:    "books.title ASC",
	SortTitleDesc:   "books.title DESC",
	SortCreatedDesc: "books.created_at DESC",
	SortCreatedAsc:  "books.created_at ASC",
}

// Filter narrows List. Nil pointers and empty strings mean "any".
type Filter struct {
	CategoryID *uint
	NoCategory bool
	LocationID *uint
	NoLocation bool
	// Status matches books where any user stored this status.
	Status entities.Status
	// Query matches title, ISBN, author, category or tag names.
	Query string
	Sort  string
}

// Length buckets books by page count for suggestions.
type Length string

const (
	LengthAny    Length = ""
	LengthShort  Length = "short"  // under 250 pages
	LengthMedium Length = "medium" // 250 to 500 pages
	LengthLong   Length = "long"   // over 500 pages
)

// SuggestionFilter narrows RandomUnread.
type SuggestionFilter struct {
	CategoryID *uint
	Length     Length
	Language   string
}

// Statuses that take a book out of the suggestion pool for a user.
var settledStatuses = []entities.Status{
	entities.StatusRead,
	entities.StatusReading,
	entities.StatusPaused,
	entities.StatusDropped,
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRelations() *gorm.DB {
	return r.db.
		Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name") }).
		Preload("Tags").
		Preload("Location").
		Preload("ReadingStatuses").
		Preload("Loans", "returned_at IS NULL")
}

// List returns books matching the filter with their relations loaded.
func (r *Repository) List(f Filter) ([]entities.Book, error) {
	q := r.withRelations().Model(&entities.Book{})

	switch {
	case f.NoCategory:
		q = q.Where("NOT EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = books.id)")
	case f.CategoryID != nil:
		q = q.Where("EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = books.id AND bc.category_id = ?)", *f.CategoryID)
	}

	switch {
	case f.NoLocation:
		q = q.Where("books.location_id IS NULL")
	case f.LocationID != nil:
		q = q.Where("books.location_id = ?", *f.LocationID)
	}

	if f.Status != "" {
		q = q.Where("EXISTS (SELECT 1 FROM reading_statuses rs WHERE rs.book_id = books.id AND rs.status = ?)", f.Status)
	}

	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + query + "%"
		q = q.Where(`(books.title LIKE @q OR books.isbn LIKE @q
			OR EXISTS (SELECT 1 FROM authors a WHERE a.id = books.author_id AND a.name LIKE @q)
			OR EXISTS (SELECT 1 FROM book_categories bc JOIN categories c ON c.id = bc.category_id WHERE bc.book_id = books.id AND c.name LIKE @q)
			OR EXISTS (SELECT 1 FROM book_tags bt JOIN tags t ON t.id = bt.tag_id WHERE bt.book_id = books.id AND t.name LIKE @q))`,
			map[string]interface{}{"q": like})
	}

	order, ok := sortOrders[f.Sort]
	if !ok {
		order = sortOrders[SortTitleAsc]
	}

	var list []entities.Book
	err := q.Order(order).Find(&list).Error
	return list, err
}

// GetByID loads one book with its relations and the users behind each
// reading status.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.withRelations().Preload("ReadingStatuses.User").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIDs loads the given books in title order. Unknown ids are skipped.
func (r *Repository) GetByIDs(ids []uint) ([]entities.Book, error) {
	if len(ids) == 0 {
		return []entities.Book{}, nil
	}
	var list []entities.Book
	err := r.withRelations().Where("books.id IN ?", ids).Order("books.title").Find(&list).Error
	return list, err
}

// Exists reports whether a book with the id exists.
func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Pages returns the page count of a book.
func (r *Repository) Pages(id uint) (int, error) {
	var book entities.Book
	if err := r.db.Select("id", "pages").First(&book, id).Error; err != nil {
		return 0, err
	}
	return book.Pages, nil
}

// FindByISBN returns the book with the ISBN, or nil.
func (r *Repository) FindByISBN(isbn string) (*entities.Book, error) {
	if isbn == "" {
		return nil, nil
	}
	return r.first(r.db.Where("isbn = ?", isbn))
}

// FindByTitleAndAuthor returns the first book with the exact title by the
// author, or nil.
func (r *Repository) FindByTitleAndAuthor(title string, authorID uint) (*entities.Book, error) {
	return r.first(r.db.Where("title = ? AND author_id = ?", title, authorID))
}

func (r *Repository) first(q *gorm.DB) (*entities.Book, error) {
	var book entities.Book
	err := q.Order("id").First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ISBNTaken reports whether another book already uses the ISBN.
func (r *Repository) ISBNTaken(isbn string, exceptID uint) (bool, error) {
	if isbn == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&entities.Book{}).Where("isbn = ? AND id <> ?", isbn, exceptID).Count(&count).Error
	return count > 0, err
}

// Create inserts a book together with its category and tag links. The author
// and location must already exist.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Omit("Author", "Location", "ReadingStatuses", "Loans").Create(book).Error
}

// Update saves the scalar fields of a book and replaces its categories and
// tags.
func (r *Repository) Update(book *entities.Book, categories []entities.Category, tags []entities.Tag) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(book).Error; err != nil {
			return err
		}
		if err := tx.Model(book).Association("Categories").Replace(categories); err != nil {
			return fmt.Errorf("failed to update categories: %w", err)
		}
		if err := tx.Model(book).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to update tags: %w", err)
		}
		book.Categories = categories
		book.Tags = tags
		return nil
	})
}

// AddCategories links categories to a book, keeping existing links.
func (r *Repository) AddCategories(bookID uint, categoryIDs []uint) error {
	for _, categoryID := range categoryIDs {
		err := r.db.Exec("INSERT OR IGNORE INTO book_categories (book_id, category_id) VALUES (?, ?)", bookID, categoryID).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCategories sets the exact category links of a book.
func (r *Repository) ReplaceCategories(bookID uint, categoryIDs []uint) error {
	if err := r.db.Exec("DELETE FROM book_categories WHERE book_id = ?", bookID).Error; err != nil {
		return err
	}
	return r.AddCategories(bookID, categoryIDs)
}

// AddCategoryToBooks links one category to many books.
func (r *Repository) AddCategoryToBooks(bookIDs []uint, categoryID uint) error {
	for _, id := range bookIDs {
		if err := r.AddCategories(id, []uint{categoryID}); err != nil {
			return err
		}
	}
	return nil
}

// SetLocation moves books to a location; nil clears it.
func (r *Repository) SetLocation(bookIDs []uint, locationID *uint) (int64, error) {
	if len(bookIDs) == 0 {
		return 0, nil
	}
	result := r.db.Model(&entities.Book{}).Where("id IN ?", bookIDs).Update("location_id", locationID)
	return result.RowsAffected, result.Error
}

// Delete removes books with their statuses, loans and links. It returns how
// many books were deleted.
func (r *Repository) Delete(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM book_categories WHERE book_id IN ?",
			"DELETE FROM book_tags WHERE book_id IN ?",
			"DELETE FROM reading_statuses WHERE book_id IN ?",
			"DELETE FROM loans WHERE book_id IN ?",
		} {
			if err := tx.Exec(stmt, ids).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id IN ?", ids).Delete(&entities.Book{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

// Languages lists the distinct non-empty languages in the catalogue.
func (r *Repository) Languages() ([]string, error) {
	var langs []string
	err := r.db.Model(&entities.Book{}).
		Where("language <> ''").
		Distinct("language").
		Order("language").
		Pluck("language", &langs).Error
	return langs, err
}

// Owned returns the books owned by a user, most recently updated first. A
// book is owned when it is linked to the user or when its free-text owner is
// the user's name or email.
func (r *Repository) Owned(user *entities.User, query string) ([]entities.Book, error) {
	q := r.withRelations().Model(&entities.Book{}).Where(ownedBy(r.db, user))
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + query + "%"
		q = q.Where("(books.title LIKE ? OR EXISTS (SELECT 1 FROM authors a WHERE a.id = books.author_id AND a.name LIKE ?))", like, like)
	}
	var list []entities.Book
	err := q.Order("books.updated_at DESC").Find(&list).Error
	return list, err
}

// ForStats loads every book, or only the user's own when ownedOnly is set,
// with author, categories and the user's reading statuses.
func (r *Repository) ForStats(user *entities.User, ownedOnly bool) ([]entities.Book, error) {
	q := r.db.
		Preload("Author").
		Preload("Categories").
		Preload("ReadingStatuses", "user_id = ?", user.ID)
	if ownedOnly {
		q = q.Where(ownedBy(r.db, user))
	}
	var list []entities.Book
	err := q.Find(&list).Error
	return list, err
}

// ForExport loads the whole catalogue in creation order with everything a
// full backup needs.
func (r *Repository) ForExport() ([]entities.Book, error) {
	var list []entities.Book
	err := r.db.
		Preload("Author").
		Preload("Categories").
		Preload("Tags").
		Preload("ReadingStatuses.User").
		Preload("Loans.Lender").
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

// RandomUnread picks a random book the user has not settled on yet, or nil.
func (r *Repository) RandomUnread(userID uint, f SuggestionFilter) (*entities.Book, error) {
	q := r.withRelations().Model(&entities.Book{}).
		Where("NOT EXISTS (SELECT 1 FROM reading_statuses rs WHERE rs.book_id = books.id AND rs.user_id = ? AND rs.status IN ?)",
			userID, settledStatuses)

	if f.CategoryID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = books.id AND bc.category_id = ?)", *f.CategoryID)
	}
	switch f.Length {
	case LengthShort:
		q = q.Where("books.pages > 0 AND books.pages < 250")
	case LengthMedium:
		q = q.Where("books.pages BETWEEN 250 AND 500")
	case LengthLong:
		q = q.Where("books.pages > 500")
	}
	if f.Language != "" {
		q = q.Where("books.language = ?", f.Language)
	}

	var book entities.Book
	err := q.Order("RANDOM()").Take(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func ownedBy(db *gorm.DB, user *entities.User) *gorm.DB {
	cond := db.Where("books.owner_id = ?", user.ID)
	if user.Name != "" {
		cond = cond.Or("books.owner = ?", user.Name)
	}
	if user.Email != "" {
		cond = cond.Or("books.owner = ?", user.Email)
	}
	return cond
}
