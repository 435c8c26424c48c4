package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/authors"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/database/categories"
	"github.com/mrlokans/biblion/internal/database/locations"
	"github.com/mrlokans/biblion/internal/database/statuses"
	"github.com/mrlokans/biblion/internal/database/tags"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/metadata"
)

// BookInput carries the editable fields of a book. Categories may be given by
// id, by name or both; unknown names are created.
type BookInput struct {
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	ISBN          string          `json:"isbn"`
	Language      string          `json:"language"`
	Publisher     string          `json:"publisher"`
	PublishYear   int             `json:"publish_year"`
	Pages         int             `json:"pages"`
	Owner         string          `json:"owner"`
	Description   string          `json:"description"`
	CoverImage    string          `json:"cover_image"`
	LocationID    *uint           `json:"location_id"`
	CategoryIDs   []uint          `json:"category_ids"`
	CategoryNames []string        `json:"category_names"`
	Tags          []string        `json:"tags"`
	InitialStatus entities.Status `json:"initial_status"`
}

// BookService manages the catalogue.
type BookService struct {
	db         *gorm.DB
	covers     CoverInliner
	readHook   ReadHook
	authorHook AuthorHook
}

// NewBookService creates the service. Any collaborator may be nil.
func NewBookService(db *gorm.DB, covers CoverInliner, readHook ReadHook, authorHook AuthorHook) *BookService {
	return &BookService{db: db, covers: covers, readHook: readHook, authorHook: authorHook}
}

func (s *BookService) List(f books.Filter) ([]entities.Book, error) {
	return books.NewRepository(s.db).List(f)
}

func (s *BookService) Get(id uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db).GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	return book, err
}

func (s *BookService) GetByIDs(ids []uint) ([]entities.Book, error) {
	return books.NewRepository(s.db).GetByIDs(ids)
}

func (s *BookService) Languages() ([]string, error) {
	return books.NewRepository(s.db).Languages()
}

// Create adds a book and the actor's initial reading status, "To read" unless
// the input names another one.
func (s *BookService) Create(ctx context.Context, actor Actor, in BookInput) (*entities.Book, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	initial := in.InitialStatus
	if initial == "" {
		initial = entities.StatusToRead
	}
	if !initial.IsTrackable() {
		return nil, ErrInvalidStatus
	}

	var (
		book          *entities.Book
		authorCreated bool
		rewarded      bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		if err := checkISBNFree(repo, in.ISBN, 0); err != nil {
			return err
		}

		author, created, err := authors.NewRepository(tx).FindOrCreate(in.Author)
		if err != nil {
			return fmt.Errorf("failed to resolve author: %w", err)
		}
		authorCreated = created

		book = &entities.Book{AuthorID: author.ID}
		applyInput(book, actor, in)
		if book.Categories, err = resolveCategories(tx, in); err != nil {
			return err
		}
		if book.Tags, err = tags.NewRepository(tx).Resolve(in.Tags); err != nil {
			return err
		}
		if err := checkLocation(tx, in.LocationID); err != nil {
			return err
		}

		if err := repo.Create(book); err != nil {
			return err
		}
		statusRepo := statuses.NewRepository(tx)
		if err := statusRepo.Upsert(actor.UserID, book.ID, initial); err != nil {
			return fmt.Errorf("failed to save reading status: %w", err)
		}
		if initial == entities.StatusRead {
			if rewarded, err = statusRepo.MarkRewarded(actor.UserID, book.ID); err != nil {
				return fmt.Errorf("failed to mark book as rewarded: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, bookWriteError(err)
	}

	if authorCreated && s.authorHook != nil {
		s.authorHook.BiographyNeeded(book.AuthorID)
	}
	if rewarded && s.readHook != nil {
		s.readHook.BookRead(actor.UserID, book.ID)
	}
	return s.Get(book.ID)
}

// Update replaces the editable fields of a book, including its categories
// and tags.
func (s *BookService) Update(ctx context.Context, actor Actor, id uint, in BookInput) (*entities.Book, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	var authorCreated bool
	var authorID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		book, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if err := checkISBNFree(repo, in.ISBN, id); err != nil {
			return err
		}

		author, created, err := authors.NewRepository(tx).FindOrCreate(in.Author)
		if err != nil {
			return fmt.Errorf("failed to resolve author: %w", err)
		}
		authorCreated, authorID = created, author.ID

		book.AuthorID = author.ID
		book.Author = *author
		applyInput(book, actor, in)
		if err := checkLocation(tx, in.LocationID); err != nil {
			return err
		}
		cats, err := resolveCategories(tx, in)
		if err != nil {
			return err
		}
		tagList, err := tags.NewRepository(tx).Resolve(in.Tags)
		if err != nil {
			return err
		}
		return repo.Update(book, cats, tagList)
	})
	if err != nil {
		return nil, bookWriteError(err)
	}

	if authorCreated && s.authorHook != nil {
		s.authorHook.BiographyNeeded(authorID)
	}
	return s.Get(id)
}

// Delete removes books with everything attached to them and returns how many
// were deleted.
func (s *BookService) Delete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoBooksSelected
	}
	deleted, err := books.NewRepository(s.db.WithContext(ctx)).Delete(ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete books: %w", err)
	}
	if deleted == 0 {
		return 0, ErrBookNotFound
	}
	return deleted, nil
}

// AssignCategory adds one category to every listed book.
func (s *BookService) AssignCategory(ctx context.Context, ids []uint, categoryID uint) error {
	if len(ids) == 0 {
		return ErrNoBooksSelected
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := categories.NewRepository(tx).GetByID(categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		return books.NewRepository(tx).AddCategoryToBooks(ids, categoryID)
	})
}

// AssignLocation moves every listed book to a location; nil clears it.
func (s *BookService) AssignLocation(ctx context.Context, ids []uint, locationID *uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoBooksSelected
	}
	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkLocation(tx, locationID); err != nil {
			return err
		}
		var err error
		updated, err = books.NewRepository(tx).SetLocation(ids, locationID)
		return err
	})
	return updated, err
}

// ISBNCheck reports whether the catalogue already has a book with an ISBN.
type ISBNCheck struct {
	Exists bool   `json:"exists"`
	ID     uint   `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
}

func (s *BookService) CheckISBN(isbn string) (*ISBNCheck, error) {
	repo := books.NewRepository(s.db)
	candidates := []string{strings.TrimSpace(isbn)}
	if cleaned := metadata.CleanISBN(isbn); cleaned != candidates[0] {
		candidates = append(candidates, cleaned)
	}
	for _, candidate := range candidates {
		book, err := repo.FindByISBN(candidate)
		if err != nil {
			return nil, err
		}
		if book != nil {
			return &ISBNCheck{Exists: true, ID: book.ID, Title: book.Title}, nil
		}
	}
	return &ISBNCheck{}, nil
}

// MyBook is a book owned by the actor along with the actor's status.
type MyBook struct {
	entities.Book
	MyStatus entities.Status `json:"my_status"`
}

// MyBooks lists the actor's own books. An empty status or "All" keeps every
// book.
func (s *BookService) MyBooks(actor Actor, status, query string) ([]MyBook, error) {
	list, err := books.NewRepository(s.db).Owned(actor.User(), query)
	if err != nil {
		return nil, err
	}
	result := make([]MyBook, 0, len(list))
	for _, b := range list {
		mine := b.StatusFor(actor.UserID)
		if status != "" && status != "All" && string(mine) != status {
			continue
		}
		result = append(result, MyBook{Book: b, MyStatus: mine})
	}
	return result, nil
}

// Suggest picks a random book the actor has not read, started or dropped.
// It returns nil when nothing matches.
func (s *BookService) Suggest(actor Actor, f books.SuggestionFilter) (*entities.Book, error) {
	return books.NewRepository(s.db).RandomUnread(actor.UserID, f)
}

// prepare validates and normalizes input outside any transaction, including
// the cover download.
func (s *BookService) prepare(ctx context.Context, in BookInput) (BookInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" {
		return in, ErrTitleAuthorRequired
	}
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Owner = strings.TrimSpace(in.Owner)
	in.Language = strings.TrimSpace(in.Language)
	if s.covers != nil && isRemote(in.CoverImage) {
		in.CoverImage = s.covers.Inline(ctx, in.CoverImage)
	}
	return in, nil
}

func applyInput(book *entities.Book, actor Actor, in BookInput) {
	book.Title = in.Title
	book.ISBN = in.ISBN
	book.Language = in.Language
	book.Publisher = in.Publisher
	book.PublishYear = in.PublishYear
	book.Pages = in.Pages
	book.Owner = in.Owner
	book.Description = in.Description
	book.CoverImage = in.CoverImage
	book.LocationID = in.LocationID
	book.OwnerID = nil
	if in.Owner != "" && actor.Owns(in.Owner) {
		id := actor.UserID
		book.OwnerID = &id
	}
}

func checkISBNFree(repo *books.Repository, isbn string, exceptID uint) error {
	taken, err := repo.ISBNTaken(isbn, exceptID)
	if err != nil {
		return fmt.Errorf("failed to check isbn: %w", err)
	}
	if taken {
		return ErrDuplicateISBN
	}
	return nil
}

func checkLocation(tx *gorm.DB, locationID *uint) error {
	if locationID == nil {
		return nil
	}
	if _, err := locations.NewRepository(tx).GetByID(*locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocationNotFound
		}
		return err
	}
	return nil
}

func resolveCategories(tx *gorm.DB, in BookInput) ([]entities.Category, error) {
	repo := categories.NewRepository(tx)
	list, err := repo.GetByIDs(in.CategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(list) != len(uniqueIDs(in.CategoryIDs)) {
		return nil, ErrCategoryNotFound
	}

	seen := make(map[uint]bool, len(list))
	for _, c := range list {
		seen[c.ID] = true
	}
	for _, name := range in.CategoryNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, err := repo.FindOrCreate(name, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
		}
		if !seen[c.ID] {
			seen[c.ID] = true
			list = append(list, *c)
		}
	}
	return list, nil
}

func bookWriteError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookNotFound
	}
	if database.IsUniqueViolation(err) {
		return ErrDuplicateISBN
	}
	if KindOf(err) != KindInternal {
		return err
	}
	return fmt.Errorf("failed to save book: %w", err)
}

func uniqueIDs(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
