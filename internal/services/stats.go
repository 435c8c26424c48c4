package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database/books"
	"github.com/mrlokans/biblion/internal/stats"
)

const (
	ScopeAll   = "all"
	ScopeOwned = "owned"
)

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Library computes the dashboard for the actor over the whole catalogue or
// only the books the actor owns.
func (s *StatsService) Library(actor Actor, scope string, year int) (*stats.Stats, error) {
	if scope == "" {
		scope = ScopeAll
	}
	if scope != ScopeAll && scope != ScopeOwned {
		return nil, Validation("Invalid scope")
	}
	list, err := books.NewRepository(s.db).ForStats(actor.User(), scope == ScopeOwned)
	if err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	result := stats.Compute(list, actor.UserID, year)
	return &result, nil
}
