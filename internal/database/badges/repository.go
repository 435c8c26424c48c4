// Package badges persists XP totals and badge awards.
package badges

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/gamification"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Catalog returns the seeded badges in catalog order.
func (r *Repository) Catalog() ([]entities.Badge, error) {
	var list []entities.Badge
	err := r.db.Order("id").Find(&list).Error
	return list, err
}

// AddXP atomically increments a user's XP and recomputes the level. It
// returns the updated user.
func (r *Repository) AddXP(userID uint, amount int) (*entities.User, error) {
	if amount < 0 {
		return nil, fmt.Errorf("xp increments must not be negative: %d", amount)
	}

	var user entities.User
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.User{}).Where("id = ?", userID).
			UpdateColumn("xp", gorm.Expr("xp + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		user.Level = gamification.LevelOf(user.XP)
		return tx.Model(&entities.User{}).Where("id = ?", userID).UpdateColumn("level", user.Level).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ReaderStats aggregates the figures badge predicates need. Only the user's
// stored Read rows count.
func (r *Repository) ReaderStats(userID uint) (gamification.Stats, error) {
	var row struct {
		BooksRead        int
		LongestReadPages int
	}
	err := r.db.Table("reading_statuses").
		Select("COUNT(*) AS books_read, COALESCE(MAX(books.pages), 0) AS longest_read_pages").
		Joins("JOIN books ON books.id = reading_statuses.book_id").
		Where("reading_statuses.user_id = ? AND reading_statuses.status = ?", userID, entities.StatusRead).
		Scan(&row).Error
	if err != nil {
		return gamification.Stats{}, err
	}
	return gamification.Stats{BooksRead: row.BooksRead, LongestReadPages: row.LongestReadPages}, nil
}

// HeldSlugs returns the slugs of the badges a user already has.
func (r *Repository) HeldSlugs(userID uint) (map[string]bool, error) {
	var slugs []string
	err := r.db.Table("user_badges").
		Select("badges.slug").
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ?", userID).
		Pluck("badges.slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		held[s] = true
	}
	return held, nil
}

// Award records a badge for a user. It reports false when the user already
// had it.
func (r *Repository) Award(userID, badgeID uint) (bool, error) {
	award := entities.UserBadge{UserID: userID, BadgeID: badgeID, AwardedAt: time.Now()}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Badge").Create(&award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UserBadges lists a user's awards with the badge loaded, oldest first.
func (r *Repository) UserBadges(userID uint) ([]entities.UserBadge, error) {
	var list []entities.UserBadge
	err := r.db.Preload("Badge").Where("user_id = ?", userID).Order("awarded_at, id").Find(&list).Error
	return list, err
}
