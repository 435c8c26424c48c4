package importers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/authors"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/database/categories"
	"github.com/mrlokans/biblion/internal/database/statuses"
	"github.com/mrlokans/biblion/internal/database/tags"
	"github.com/mrlokans/biblion/internal/entities"
)

var (
	ErrTitleAuthorRequired = errors.New("Title and Author required")

	// errSkip marks rows that are too short to be books.
	errSkip = errors.New("malformed row")
)

// Pipeline applies converted records to the database.
type Pipeline struct {
	db *gorm.DB
}

func NewPipeline(db *gorm.DB) *Pipeline {
	return &Pipeline{db: db}
}

type outcome int

const (
	created outcome = iota
	updated
)

// Import converts the input and applies every record on behalf of userID.
// Only a conversion failure is returned as an error; row failures end up in
// Stats.Errors.
func (p *Pipeline) Import(ctx context.Context, conv Converter, userID uint) (*Stats, error) {
	records, err := conv.Convert()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(records), Errors: []string{}}
	for _, r := range records {
		if errors.Is(r.Err, errSkip) {
			stats.Skipped++
			continue
		}
		if r.Err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("Failed to import line: %v", r.Err))
			continue
		}

		result, err := p.apply(ctx, conv, r, userID)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, fmt.Sprintf("Failed to import %q: %v", r.Title, err))
			log.Printf("Import of %q failed: %v", r.Title, err)
			continue
		}
		switch result {
		case created:
			stats.Created++
		case updated:
			stats.Updated++
		}
	}
	return stats, nil
}

func (p *Pipeline) apply(ctx context.Context, conv Converter, r Record, userID uint) (outcome, error) {
	r.Title = normalize(r.Title)
	r.Author = normalize(r.Author)
	r.ISBN = normalize(r.ISBN)
	// JSON backups may lack an author; CSV rows must name one.
	if r.Title == "" || (conv.Mode() == ModeConnect && r.Author == "") {
		return 0, ErrTitleAuthorRequired
	}

	var result outcome
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, _, err := authors.NewRepository(tx).FindOrCreate(r.Author)
		if err != nil {
			return fmt.Errorf("failed to resolve author: %w", err)
		}
		if r.AuthorGender != "" && author.Gender == "" {
			if err := authors.NewRepository(tx).UpdateGender(author.ID, r.AuthorGender); err != nil {
				return err
			}
		}

		cats, err := resolveCategories(tx, r.Categories)
		if err != nil {
			return err
		}

		repo := books.NewRepository(tx)
		existing, err := match(repo, conv.AllowIDMatch(), r, author.ID)
		if err != nil {
			return err
		}

		if existing != nil {
			result = updated
			if conv.Mode() == ModeConnect {
				return repo.AddCategories(existing.ID, categoryIDs(cats))
			}
			tagList := existing.Tags
			if r.Tags != nil {
				if tagList, err = tags.NewRepository(tx).Resolve(r.Tags); err != nil {
					return err
				}
			}
			existing.AuthorID = author.ID
			existing.Author = *author
			fill(existing, r)
			return repo.Update(existing, cats, tagList)
		}

		result = created
		book := &entities.Book{AuthorID: author.ID, Categories: cats}
		fill(book, r)
		if book.Tags, err = tags.NewRepository(tx).Resolve(r.Tags); err != nil {
			return err
		}
		if err := repo.Create(book); err != nil {
			return err
		}
		return statuses.NewRepository(tx).Upsert(userID, book.ID, entities.StatusToRead)
	})
	if database.IsUniqueViolation(err) {
		return 0, errors.New("ISBN already used by another book")
	}
	return result, err
}

func match(repo *books.Repository, byID bool, r Record, authorID uint) (*entities.Book, error) {
	if byID && r.ID != 0 {
		book, err := repo.GetByID(r.ID)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var found *entities.Book
	var err error
	if r.ISBN != "" {
		if found, err = repo.FindByISBN(r.ISBN); err != nil {
			return nil, err
		}
	}
	if found == nil {
		if found, err = repo.FindByTitleAndAuthor(r.Title, authorID); err != nil {
			return nil, err
		}
	}
	if found == nil {
		return nil, nil
	}
	return repo.GetByID(found.ID)
}

func fill(b *entities.Book, r Record) {
	b.Title = r.Title
	b.ISBN = r.ISBN
	b.Language = r.Language
	b.Publisher = r.Publisher
	b.PublishYear = r.PublishYear
	b.Pages = r.Pages
	b.Owner = r.Owner
	b.Description = r.Description
	b.CoverImage = r.CoverImage
}

func resolveCategories(tx *gorm.DB, refs []Category) ([]entities.Category, error) {
	repo := categories.NewRepository(tx)
	seen := make(map[uint]bool, len(refs))
	list := make([]entities.Category, 0, len(refs))
	for _, ref := range refs {
		name := normalize(ref.Name)
		if name == "" {
			continue
		}
		c, err := repo.FindOrCreate(name, ref.Color, ref.Icon)
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

func categoryIDs(list []entities.Category) []uint {
	ids := make([]uint, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return ids
}
