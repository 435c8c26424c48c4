// Package statuses provides database operations for per-user reading
// statuses. A missing row means the book is on the user's "To read" list;
// Effective applies that default.
package statuses

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/biblion/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the stored row, or nil when the user never set a status.
func (r *Repository) Get(userID, bookID uint) (*entities.ReadingStatus, error) {
	var rs entities.ReadingStatus
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&rs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// Effective returns the status with the implicit default applied.
func (r *Repository) Effective(userID, bookID uint) (entities.Status, error) {
	rs, err := r.Get(userID, bookID)
	if err != nil {
		return "", err
	}
	return entities.EffectiveStatus(rs), nil
}

// Upsert writes the status for (user, book), creating the row if needed.
func (r *Repository) Upsert(userID, bookID uint, status entities.Status) error {
	now := time.Now()
	row := entities.ReadingStatus{
		UserID:    userID,
		BookID:    bookID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&row).Error
}

// MarkRewarded stamps the row as rewarded and reports whether this call did
// it. Rows rewarded earlier, and missing rows, report false.
func (r *Repository) MarkRewarded(userID, bookID uint) (bool, error) {
	result := r.db.Model(&entities.ReadingStatus{}).
		Where("user_id = ? AND book_id = ? AND rewarded_at IS NULL", userID, bookID).
		Update("rewarded_at", time.Now())
	return result.RowsAffected == 1, result.Error
}

// ActiveReader returns another user's Reading row for the book, with the
// user preloaded, or nil when nobody else is reading it.
func (r *Repository) ActiveReader(bookID, exceptUserID uint) (*entities.ReadingStatus, error) {
	var rs entities.ReadingStatus
	err := r.db.Preload("User").
		Where("book_id = ? AND status = ? AND user_id <> ?", bookID, entities.StatusReading, exceptUserID).
		First(&rs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// ForUser returns all stored rows of a user keyed by book id.
func (r *Repository) ForUser(userID uint) (map[uint]entities.ReadingStatus, error) {
	var rows []entities.ReadingStatus
	if err := r.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[uint]entities.ReadingStatus, len(rows))
	for _, row := range rows {
		result[row.BookID] = row
	}
	return result, nil
}

// DeleteForBooks removes every row that refers to the given books.
func (r *Repository) DeleteForBooks(bookIDs []uint) error {
	if len(bookIDs) == 0 {
		return nil
	}
	return r.db.Where("book_id IN ?", bookIDs).Delete(&entities.ReadingStatus{}).Error
}
