package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database/badges"
	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/database/users"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/gamification"
)

// Rewards grants XP and badges.
type Rewards struct {
	db *gorm.DB
}

func NewRewards(db *gorm.DB) *Rewards {
	return &Rewards{db: db}
}

// Outcome describes what a reward pass granted.
type Outcome struct {
	XPGained  int              `json:"xp_gained"`
	XP        int              `json:"xp"`
	Level     int              `json:"level"`
	NewBadges []entities.Badge `json:"new_badges"`
}

// BookFinished grants the XP for finishing a book and then awards any badge
// the user now qualifies for.
func (r *Rewards) BookFinished(ctx context.Context, userID, bookID uint) (*Outcome, error) {
	db := r.db.WithContext(ctx)

	pages, err := books.NewRepository(db).Pages(bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	gain := gamification.ReadXP(pages)
	if _, err := badges.NewRepository(db).AddXP(userID, gain); err != nil {
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}

	outcome, err := r.EvaluateBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	outcome.XPGained += gain
	return outcome, nil
}

// EvaluateBadges awards every badge whose threshold the user meets and does
// not hold yet, adding each badge's XP bonus. Running it again with the same
// stats awards nothing. Bonus XP does not trigger another pass.
func (r *Rewards) EvaluateBadges(ctx context.Context, userID uint) (*Outcome, error) {
	repo := badges.NewRepository(r.db.WithContext(ctx))

	catalog, err := repo.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	stats, err := repo.ReaderStats(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading stats: %w", err)
	}
	held, err := repo.HeldSlugs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load awarded badges: %w", err)
	}

	bySlug := make(map[string]entities.Badge, len(catalog))
	defs := make([]gamification.BadgeDef, 0, len(catalog))
	for _, b := range catalog {
		bySlug[b.Slug] = b
		defs = append(defs, badgeDef(b))
	}

	outcome := &Outcome{NewBadges: []entities.Badge{}}
	for _, def := range gamification.Evaluate(defs, stats, held) {
		badge := bySlug[def.Slug]
		awarded, err := repo.Award(userID, badge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to award badge %s: %w", badge.Slug, err)
		}
		if !awarded {
			continue
		}
		outcome.NewBadges = append(outcome.NewBadges, badge)
		if badge.XPBonus > 0 {
			if _, err := repo.AddXP(userID, badge.XPBonus); err != nil {
				return nil, fmt.Errorf("failed to add badge xp: %w", err)
			}
			outcome.XPGained += badge.XPBonus
		}
	}

	user, err := users.NewRepository(r.db.WithContext(ctx)).GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	outcome.XP = user.XP
	outcome.Level = user.Level
	return outcome, nil
}

// BadgeProgress is one catalog badge as seen by a user.
type BadgeProgress struct {
	entities.Badge
	Earned    bool       `json:"earned"`
	AwardedAt *time.Time `json:"awarded_at,omitempty"`
}

type Profile struct {
	UserID   uint                  `json:"user_id"`
	Name     string                `json:"name"`
	Progress gamification.Progress `json:"progress"`
	Badges   []BadgeProgress       `json:"badges"`
}

// Profile returns the user's level progress and the badge catalog with the
// earned ones marked.
func (r *Rewards) Profile(userID uint) (*Profile, error) {
	user, err := users.NewRepository(r.db).GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	repo := badges.NewRepository(r.db)
	catalog, err := repo.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	awards, err := repo.UserBadges(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load awarded badges: %w", err)
	}
	awardedAt := make(map[uint]time.Time, len(awards))
	for _, a := range awards {
		awardedAt[a.BadgeID] = a.AwardedAt
	}

	profile := &Profile{
		UserID:   user.ID,
		Name:     user.DisplayName(),
		Progress: gamification.ProgressOf(user.XP),
		Badges:   make([]BadgeProgress, 0, len(catalog)),
	}
	for _, b := range catalog {
		bp := BadgeProgress{Badge: b}
		if at, ok := awardedAt[b.ID]; ok {
			bp.Earned = true
			bp.AwardedAt = &at
		}
		profile.Badges = append(profile.Badges, bp)
	}
	return profile, nil
}

func badgeDef(b entities.Badge) gamification.BadgeDef {
	return gamification.BadgeDef{
		Slug:        b.Slug,
		Name:        b.Name,
		Description: b.Description,
		Icon:        b.Icon,
		XPBonus:     b.XPBonus,
		Metric:      gamification.Metric(b.Metric),
		Threshold:   b.Threshold,
	}
}

// BackgroundRewards is a ReadHook that runs the reward pass in a goroutine
// and only logs failures. It is used when the task queue is disabled.
type BackgroundRewards struct {
	rewards *Rewards
	wg      sync.WaitGroup
}

func NewBackgroundRewards(rewards *Rewards) *BackgroundRewards {
	return &BackgroundRewards{rewards: rewards}
}

func (b *BackgroundRewards) BookRead(userID, bookID uint) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := b.rewards.BookFinished(ctx, userID, bookID); err != nil {
			log.Printf("Failed to grant rewards for user %d, book %d: %v", userID, bookID, err)
		}
	}()
}

// Wait blocks until every pending reward pass has finished.
func (b *BackgroundRewards) Wait() {
	b.wg.Wait()
}
