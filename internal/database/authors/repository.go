// Package authors provides database operations for authors.
package authors

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOrCreate returns the author with the exact name, creating it when
// missing. The boolean reports whether a row was created.
func (r *Repository) FindOrCreate(name string) (*entities.Author, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = entities.UnknownAuthor
	}

	var author entities.Author
	err := r.db.Where("name = ?", name).First(&author).Error
	if err == nil {
		return &author, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	author = entities.Author{Name: name}
	if err := r.db.Create(&author).Error; err != nil {
		return nil, false, err
	}
	return &author, true, nil
}

func (r *Repository) GetByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("title")
	}).First(&author, id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// List returns authors ordered by name with their books. A non-empty query
// filters by name.
func (r *Repository) List(query string) ([]entities.Author, error) {
	var list []entities.Author
	q := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("title")
	}).Order("name")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%")
	}
	err := q.Find(&list).Error
	return list, err
}

// WithoutBiography returns the ids of authors with an empty biography.
func (r *Repository) WithoutBiography() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Author{}).
		Where("biography = '' OR biography IS NULL").
		Where("name <> ?", entities.UnknownAuthor).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) UpdateGender(id uint, gender string) error {
	return r.update(id, "gender", gender)
}

func (r *Repository) SetBiography(id uint, biography string) error {
	return r.update(id, "biography", biography)
}

func (r *Repository) update(id uint, column string, value string) error {
	result := r.db.Model(&entities.Author{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
