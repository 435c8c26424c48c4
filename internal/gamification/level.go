// Package gamification holds the XP, level and badge rules. Everything here
// is pure; persistence lives in database/badges and services.Rewards.
package gamification

import "math"

const (
	xpPerLevelUnit = 100

	// ReadBonusXP is granted on top of the page count for every finished book.
	ReadBonusXP = 100
)

// LevelOf maps cumulative XP to a level: floor(sqrt(xp/100)) + 1.
func LevelOf(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Floor(math.Sqrt(float64(xp)/xpPerLevelUnit))) + 1
}

// LevelBaseXP is the XP at which a level starts: (level-1)^2 * 100.
func LevelBaseXP(level int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * (level - 1) * xpPerLevelUnit
}

// ReadXP is the reward for finishing a book with the given page count.
func ReadXP(pages int) int {
	if pages < 0 {
		pages = 0
	}
	return pages + ReadBonusXP
}

type Progress struct {
	XP             int     `json:"xp"`
	Level          int     `json:"level"`
	CurrentLevelXP int     `json:"current_level_xp"`
	NextLevelXP    int     `json:"next_level_xp"`
	Percent        float64 `json:"percent"`
}

// ProgressOf reports how far xp is into its level, as a percentage clamped to
// [0, 100].
func ProgressOf(xp int) Progress {
	level := LevelOf(xp)
	base := LevelBaseXP(level)
	next := LevelBaseXP(level + 1)

	percent := float64(xp-base) / float64(next-base) * 100
	percent = math.Max(0, math.Min(100, percent))

	return Progress{
		XP:             xp,
		Level:          level,
		CurrentLevelXP: base,
		NextLevelXP:    next,
		Percent:        percent,
	}
}
