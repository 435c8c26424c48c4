package database

import (
	_ "embed"
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/gamification"
)

//go:embed seed.yaml
var seedYAML []byte

type seedCategory struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

// DefaultCategories returns the categories a new library starts with.
func DefaultCategories() ([]entities.Category, error) {
	var doc struct {
		Categories []seedCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	categories := make([]entities.Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		categories = append(categories, entities.Category{Name: c.Name, Color: c.Color, Icon: c.Icon})
	}
	return categories, nil
}

// SeedDefaultCategories creates the default categories that do not exist
// yet and returns how many were created.
func (d *Database) SeedDefaultCategories() (int, error) {
	categories, err := DefaultCategories()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, category := range categories {
		result := d.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&category)
		if result.Error != nil {
			return created, fmt.Errorf("failed to create category %s: %w", category.Name, result.Error)
		}
		if result.RowsAffected > 0 {
			created++
		}
	}
	if created > 0 {
		log.Printf("Created %d default categories", created)
	}
	return created, nil
}

// seedBadges keeps the badges table in line with the built-in catalog.
func (d *Database) seedBadges() error {
	catalog, err := gamification.Catalog()
	if err != nil {
		return err
	}
	return SeedBadges(d.DB, catalog)
}

func SeedBadges(db *gorm.DB, catalog []gamification.BadgeDef) error {
	for _, def := range catalog {
		badge := entities.Badge{
			Slug:        def.Slug,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			XPBonus:     def.XPBonus,
			Metric:      string(def.Metric),
			Threshold:   def.Threshold,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "xp_bonus", "metric", "threshold"}),
		}).Create(&badge).Error
		if err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", def.Slug, err)
		}
	}
	return nil
}
