// Package categories stores the category tree. Repository implements
// hierarchy.Store so the validator can walk it.
package categories

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
	var c entities.Category
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
	err := r.db.Model(&entities.Category{}).Where("parent_id = ?", id).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// CountItems counts the books attached to a category.
func (r *Repository) CountItems(id uint) (int64, error) {
	var count int64
	err := r.db.Table("book_categories").Where("category_id = ?", id).Count(&count).Error
	return count, err
}

func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var c entities.Category
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByName matches names case-insensitively.
func (r *Repository) GetByName(name string) (*entities.Category, error) {
	var c entities.Category
	err := r.db.Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindOrCreate returns the named category, creating it with the given display
// metadata when missing.
func (r *Repository) FindOrCreate(name, color, icon string) (*entities.Category, error) {
	c, err := r.GetByName(name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = &entities.Category{Name: strings.TrimSpace(name), Color: color, Icon: icon}
	if err := r.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetByIDs loads the categories with the given ids, ignoring unknown ones.
func (r *Repository) GetByIDs(ids []uint) ([]entities.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []entities.Category
	err := r.db.Where("id IN ?", ids).Order("name").Find(&list).Error
	return list, err
}

func (r *Repository) Create(c *entities.Category) error {
	return r.db.Create(c).Error
}

// UpdateDetails changes name, color and icon.
func (r *Repository) UpdateDetails(id uint, name, color, icon string) error {
	result := r.db.Model(&entities.Category{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":  name,
		"color": color,
		"icon":  icon,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) SetParent(id uint, parentID *uint) error {
	result := r.db.Model(&entities.Category{}).Where("id = ?", id).Update("parent_id", parentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns every category ordered by name with book counts filled in.
func (r *Repository) List() ([]entities.Category, error) {
	var list []entities.Category
	if err := r.db.Order("name").Find(&list).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CategoryID uint
		Total      int64
	}
	err := r.db.Table("book_categories").
		Select("category_id, COUNT(*) AS total").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Total
	}
	for i := range list {
		list[i].BookCount = byID[list[i].ID]
	}
	return list, nil
}

// Tree returns the root categories with their children nested.
func (r *Repository) Tree() ([]entities.Category, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	return BuildTree(list), nil
}

// BuildTree nests a flat, parent-pointer list. Nodes that cannot be reached
// from a root are left out.
func BuildTree(list []entities.Category) []entities.Category {
	children := make(map[uint][]entities.Category)
	var roots []entities.Category
	for _, c := range list {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var attach func(c entities.Category) entities.Category
	attach = func(c entities.Category) entities.Category {
		for _, child := range children[c.ID] {
			c.Children = append(c.Children, attach(child))
		}
		return c
	}

	result := make([]entities.Category, 0, len(roots))
	for _, root := range roots {
		result = append(result, attach(root))
	}
	return result
}
