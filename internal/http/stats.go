package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/services"
)

type StatsController struct {
	stats   *services.StatsService
	rewards *services.Rewards
}

func NewStatsController(stats *services.StatsService, rewards *services.Rewards) *StatsController {
	return &StatsController{stats: stats, rewards: rewards}
}

// Library handles GET /api/stats?scope=all|owned&year=YYYY
func (sc *StatsController) Library(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	result, err := sc.stats.Library(actor, c.Query("scope"), parseIntQuery(c, "year", 0))
	if err != nil {
		respondServiceError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Profile handles GET /api/profile
func (sc *StatsController) Profile(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	profile, err := sc.rewards.Profile(actor.UserID)
	if err != nil {
		respondServiceError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Badges handles GET /api/badges
func (sc *StatsController) Badges(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	profile, err := sc.rewards.Profile(actor.UserID)
	if err != nil {
		respondServiceError(c, err, "badges")
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": profile.Badges})
}
