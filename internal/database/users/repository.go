// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail("reader@example.com")
package users

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserWithStats is a user row plus the number of books they own.
type UserWithStats struct {
	entities.User
	BookCount int64 `json:"book_count"`
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user with an owned-books count, newest first.
func (r *Repository) ListUsers() ([]UserWithStats, error) {
	var list []entities.User
	if err := r.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}

	result := make([]UserWithStats, 0, len(list))
	for _, u := range list {
		var count int64
		err := r.db.Model(&entities.Book{}).
			Where("owner_id = ? OR (owner_id IS NULL AND owner <> '' AND (owner = ? OR owner = ?))", u.ID, u.Name, u.Email).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		result = append(result, UserWithStats{User: u, BookCount: count})
	}
	return result, nil
}

// CountAdmins returns the number of users with the admin role.
func (r *Repository) CountAdmins() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("role = ?", entities.UserRoleAdmin).Count(&count).Error
	return count, err
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(id uint, role entities.UserRole) error {
	return r.updateColumn(id, "role", role)
}

// UpdatePasswordHash stores a new password hash and clears any lockout.
func (r *Repository) UpdatePasswordHash(id uint, hash string) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash":      hash,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser removes a user together with their statuses, badges and loans.
// Books they own stay in the library without an owning account.
func (r *Repository) DeleteUser(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entities.ReadingStatus{}).Error; err != nil {
			return fmt.Errorf("failed to delete reading statuses: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&entities.UserBadge{}).Error; err != nil {
			return fmt.Errorf("failed to delete badges: %w", err)
		}
		if err := tx.Where("lender_id = ?", id).Delete(&entities.Loan{}).Error; err != nil {
			return fmt.Errorf("failed to delete loans: %w", err)
		}
		if err := tx.Model(&entities.Book{}).Where("owner_id = ?", id).Update("owner_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach books: %w", err)
		}
		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *Repository) updateColumn(id uint, column string, value interface{}) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
