package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{-50, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelOf(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelOf_Monotonic(t *testing.T) {
	prev := LevelOf(0)
	for xp := 1; xp <= 20000; xp += 7 {
		level := LevelOf(xp)
		require.GreaterOrEqual(t, level, prev, "xp=%d", xp)
		prev = level
	}
}

func TestLevelBaseXP(t *testing.T) {
	assert.Equal(t, 0, LevelBaseXP(1))
	assert.Equal(t, 100, LevelBaseXP(2))
	assert.Equal(t, 400, LevelBaseXP(3))
	for level := 1; level < 20; level++ {
		assert.Equal(t, level, LevelOf(LevelBaseXP(level)))
	}
}

func TestReadXP_ThreeHundredPagesReachesLevelThree(t *testing.T) {
	xp := ReadXP(300)
	assert.Equal(t, 400, xp)
	assert.Equal(t, 3, LevelOf(xp))
	assert.Equal(t, ReadBonusXP, ReadXP(0))
	assert.Equal(t, ReadBonusXP, ReadXP(-10))
}

func TestProgressOf(t *testing.T) {
	p := ProgressOf(250)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 100, p.CurrentLevelXP)
	assert.Equal(t, 400, p.NextLevelXP)
	assert.InDelta(t, 50.0, p.Percent, 0.001)

	assert.InDelta(t, 0.0, ProgressOf(0).Percent, 0.001)
	assert.InDelta(t, 0.0, ProgressOf(400).Percent, 0.001)
}

func TestCatalog(t *testing.T) {
	catalog, err := Catalog()
	require.NoError(t, err)
	require.Len(t, catalog, 4)

	slugs := make([]string, 0, len(catalog))
	for _, b := range catalog {
		slugs = append(slugs, b.Slug)
	}
	assert.Equal(t, []string{"first-read", "bookworm", "scholar", "page-turner"}, slugs)
	assert.Equal(t, 50, catalog[0].XPBonus)
}

func TestEvaluate(t *testing.T) {
	catalog, err := Catalog()
	require.NoError(t, err)

	t.Run("nothing read", func(t *testing.T) {
		assert.Empty(t, Evaluate(catalog, Stats{}, nil))
	})

	t.Run("first long book", func(t *testing.T) {
		got := Evaluate(catalog, Stats{BooksRead: 1, LongestReadPages: 650}, nil)
		require.Len(t, got, 2)
		assert.Equal(t, "first-read", got[0].Slug)
		assert.Equal(t, "page-turner", got[1].Slug)
	})

	t.Run("held badges are skipped", func(t *testing.T) {
		held := map[string]bool{"first-read": true}
		got := Evaluate(catalog, Stats{BooksRead: 5}, held)
		require.Len(t, got, 1)
		assert.Equal(t, "bookworm", got[0].Slug)
	})

	t.Run("exactly 500 pages is not enough", func(t *testing.T) {
		got := Evaluate(catalog, Stats{BooksRead: 1, LongestReadPages: 500}, map[string]bool{"first-read": true})
		assert.Empty(t, got)
	})
}
