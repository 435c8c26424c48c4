// Package locations stores the tree of physical locations (rooms, shelves,
// boxes). Repository implements hierarchy.Store.
package locations

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/hierarchy"
)

var _ hierarchy.Store = (*Repository)(nil)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ParentOf(id uint) (*uint, error) {
	var c entities.Location
	err := r.db.Select("id", "parent_id").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, hierarchy.ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return c.ParentID, nil
}

func (r *Repository) ChildIDs(id uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Location{}).Where("parent_id = ?", id).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// CountItems counts the books attached to a location.
func (r *Repository) CountItems(id uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("location_id = ?", id).Count(&count).Error
	return count, err
}

func (r *Repository) GetByID(id uint) (*entities.Location, error) {
	var c entities.Location
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByName matches names case-insensitively.
func (r *Repository) GetByName(name string) (*entities.Location, error) {
	var c entities.Location
	err := r.db.Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindOrCreate returns the named root-level or nested location, creating a
// root when missing.
func (r *Repository) FindOrCreate(name string) (*entities.Location, error) {
	c, err := r.GetByName(name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = &entities.Location{Name: strings.TrimSpace(name)}
	if err := r.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) Create(c *entities.Location) error {
	return r.db.Create(c).Error
}

func (r *Repository) Rename(id uint, name string) error {
	result := r.db.Model(&entities.Location{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) SetParent(id uint, parentID *uint) error {
	result := r.db.Model(&entities.Location{}).Where("id = ?", id).Update("parent_id", parentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Location{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns every location ordered by name with book counts filled in.
func (r *Repository) List() ([]entities.Location, error) {
	var list []entities.Location
	if err := r.db.Order("name").Find(&list).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		LocationID uint
		Total      int64
	}
	err := r.db.Model(&entities.Book{}).
		Select("location_id, COUNT(*) AS total").
		Where("location_id IS NOT NULL").
		Group("location_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.LocationID] = c.Total
	}
	for i := range list {
		list[i].BookCount = byID[list[i].ID]
	}
	return list, nil
}

// Tree returns the root locations with their children nested.
func (r *Repository) Tree() ([]entities.Location, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

// BuildTree nests a flat, parent-pointer list. Nodes that cannot be reached
// from a root are left out.
func BuildTree(list []entities.Location) []entities.Location {
	children := make(map[uint][]entities.Location)
	var roots []entities.Location
	for _, c := range list {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var attach func(c entities.Location) entities.Location
	attach = func(c entities.Location) entities.Location {
		for _, child := range children[c.ID] {
			c.Children = append(c.Children, attach(child))
		}
		return c
	}

	result := make([]entities.Location, 0, len(roots))
	for _, root := range roots {
		result = append(result, attach(root))
	}
	return result
}
