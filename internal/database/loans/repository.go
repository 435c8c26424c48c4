// Package loans provides database operations for book loans.
package loans

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(loan *entities.Loan) error {
	return r.db.Omit("Book", "Lender").Create(loan).Error
}

func (r *Repository) GetByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	if err := r.db.First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// OpenForBook returns the unreturned loan of a book, or nil.
func (r *Repository) OpenForBook(bookID uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Where("book_id = ? AND returned_at IS NULL", bookID).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Close marks the loan returned. It reports false when the loan was already
// closed, so two concurrent returns cannot both succeed.
func (r *Repository) Close(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND returned_at IS NULL", id).
		Update("returned_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// OpenByLender lists a lender's open loans with book and author, newest first.
func (r *Repository) OpenByLender(lenderID uint) ([]entities.Loan, error) {
	var list []entities.Loan
	err := r.db.Preload("Book").Preload("Book.Author").
		Where("lender_id = ? AND returned_at IS NULL", lenderID).
		Order("borrowed_at DESC").
		Find(&list).Error
	return list, err
}

// Open lists every open loan with book, author and lender, newest first.
func (r *Repository) Open() ([]entities.Loan, error) {
	var list []entities.Loan
	err := r.db.Preload("Book").Preload("Book.Author").Preload("Lender").
		Where("returned_at IS NULL").
		Order("borrowed_at DESC").
		Find(&list).Error
	return list, err
}

// History lists every loan of a book, newest first.
func (r *Repository) History(bookID uint) ([]entities.Loan, error) {
	var list []entities.Loan
	err := r.db.Preload("Lender").Where("book_id = ?", bookID).Order("borrowed_at DESC").Find(&list).Error
	return list, err
}

// DeleteForBooks removes every loan of the given books.
func (r *Repository) DeleteForBooks(bookIDs []uint) error {
	if len(bookIDs) == 0 {
		return nil
	}
	return r.db.Where("book_id IN ?", bookIDs).Delete(&entities.Loan{}).Error
}
