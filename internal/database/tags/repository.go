// Package tags provides database operations for tag management.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tags, err := repo.Resolve([]string{"signed", "first edition"})
package tags

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/entities"
)

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreateTag retrieves or creates a tag (case-insensitive).
func (r *Repository) GetOrCreateTag(name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tag = entities.Tag{Name: name}
		if err := r.db.Create(&tag).Error; err != nil {
			return nil, err
		}
		return &tag, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// Resolve turns tag names into tags, creating missing ones. Blank and
// duplicate names are dropped.
func (r *Repository) Resolve(names []string) ([]entities.Tag, error) {
	seen := make(map[string]bool, len(names))
	result := make([]entities.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		tag, err := r.GetOrCreateTag(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		result = append(result, *tag)
	}
	return result, nil
}

// ListTags returns all tags ordered by name.
func (r *Repository) ListTags() ([]entities.Tag, error) {
	var list []entities.Tag
	err := r.db.Order("name").Find(&list).Error
	return list, err
}

// SearchTags searches tags by name (case-insensitive partial match).
func (r *Repository) SearchTags(query string) ([]entities.Tag, error) {
	var list []entities.Tag
	err := r.db.Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%").Order("name").Find(&list).Error
	return list, err
}

// DeleteOrphanTags removes tags no book refers to.
func (r *Repository) DeleteOrphanTags() (int64, error) {
	result := r.db.Where("id NOT IN (SELECT tag_id FROM book_tags)").Delete(&entities.Tag{})
	return result.RowsAffected, result.Error
}
