package gamification

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Metric string

const (
	MetricBooksRead        Metric = "books_read"
	MetricLongestReadPages Metric = "longest_read_pages"
)

// Stats are the aggregate reading figures badge predicates look at.
type Stats struct {
	BooksRead        int
	LongestReadPages int
}

func (s Stats) Value(m Metric) (int, bool) {
	switch m {
	case MetricBooksRead:
		return s.BooksRead, true
	case MetricLongestReadPages:
		return s.LongestReadPages, true
	default:
		return 0, false
	}
}

type BadgeDef struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	XPBonus     int    `yaml:"xp_bonus"`
	Metric      Metric `yaml:"metric"`
	Threshold   int    `yaml:"threshold"`
}

// Unlocked reports whether stats satisfy the badge predicate. Unknown metrics
// never unlock.
func (b BadgeDef) Unlocked(s Stats) bool {
	v, ok := s.Value(b.Metric)
	return ok && v >= b.Threshold
}

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog returns the built-in badge catalog.
func Catalog() ([]BadgeDef, error) {
	var doc struct {
		Badges []BadgeDef `yaml:"badges"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse badge catalog: %w", err)
	}
	for _, b := range doc.Badges {
		if _, ok := (Stats{}).Value(b.Metric); !ok {
			return nil, fmt.Errorf("badge %q uses unknown metric %q", b.Slug, b.Metric)
		}
	}
	return doc.Badges, nil
}

// Evaluate returns the badges from catalog that stats unlock and that are not
// in held (keyed by slug). Catalog order is preserved.
func Evaluate(catalog []BadgeDef, stats Stats, held map[string]bool) []BadgeDef {
	var unlocked []BadgeDef
	for _, b := range catalog {
		if held[b.Slug] {
			continue
		}
		if b.Unlocked(stats) {
			unlocked = append(unlocked, b)
		}
	}
	return unlocked
}
