package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database/authors"
	"github.com/mrlokans/biblion/internal/entities"
)

// BiographySource finds a short biography for an author name. ok is false
// when nothing was found.
type BiographySource interface {
	Biography(ctx context.Context, name string) (bio string, ok bool, err error)
}

// AuthorService reads and edits authors. Biographies are fetched through the
// hook in the background, or directly with FetchBiography.
type AuthorService struct {
	db     *gorm.DB
	source BiographySource
	hook   AuthorHook
}

func NewAuthorService(db *gorm.DB, source BiographySource, hook AuthorHook) *AuthorService {
	return &AuthorService{db: db, source: source, hook: hook}
}

func (s *AuthorService) List(query string) ([]entities.Author, error) {
	return authors.NewRepository(s.db).List(query)
}

func (s *AuthorService) Get(id uint) (*entities.Author, error) {
	author, err := authors.NewRepository(s.db).GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	return author, err
}

// UpdateGender stores the free-text gender used by the statistics.
func (s *AuthorService) UpdateGender(id uint, gender string) (*entities.Author, error) {
	err := authors.NewRepository(s.db).UpdateGender(id, strings.TrimSpace(gender))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update author: %w", err)
	}
	return s.Get(id)
}

// RequestBiography schedules a biography fetch for one author.
func (s *AuthorService) RequestBiography(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if s.hook != nil {
		s.hook.BiographyNeeded(id)
	}
	return nil
}

// RequestMissingBiographies schedules a fetch for every author without a
// biography and returns how many were scheduled.
func (s *AuthorService) RequestMissingBiographies() (int, error) {
	ids, err := authors.NewRepository(s.db).WithoutBiography()
	if err != nil {
		return 0, fmt.Errorf("failed to list authors: %w", err)
	}
	if s.hook != nil {
		for _, id := range ids {
			s.hook.BiographyNeeded(id)
		}
	}
	return len(ids), nil
}

// FetchBiography looks the biography up and stores it. It reports false when
// the source had nothing, leaving the author untouched.
func (s *AuthorService) FetchBiography(ctx context.Context, id uint) (bool, error) {
	if s.source == nil {
		return false, nil
	}
	repo := authors.NewRepository(s.db.WithContext(ctx))
	author, err := repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrAuthorNotFound
	}
	if err != nil {
		return false, err
	}
	if author.Name == entities.UnknownAuthor {
		return false, nil
	}

	bio, ok, err := s.source.Biography(ctx, author.Name)
	if err != nil {
		return false, fmt.Errorf("failed to fetch biography for %s: %w", author.Name, err)
	}
	if !ok {
		return false, nil
	}
	if err := repo.SetBiography(id, bio); err != nil {
		return false, fmt.Errorf("failed to save biography: %w", err)
	}
	return true, nil
}

// BackgroundBiographies is an AuthorHook that fetches biographies in
// goroutines. It is used when the task queue is disabled and must be bound
// to the AuthorService it serves before use.
type BackgroundBiographies struct {
	authors *AuthorService
	wg      sync.WaitGroup
}

// Bind sets the service that performs the fetch.
func (b *BackgroundBiographies) Bind(svc *AuthorService) {
	b.authors = svc
}

func (b *BackgroundBiographies) BiographyNeeded(authorID uint) {
	if b.authors == nil {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := b.authors.FetchBiography(ctx, authorID); err != nil {
			log.Printf("Failed to fetch biography for author %d: %v", authorID, err)
		}
	}()
}

// Wait blocks until every pending fetch has finished.
func (b *BackgroundBiographies) Wait() {
	b.wg.Wait()
}
