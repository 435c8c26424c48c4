package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/categories"
	"github.com/mrlokans/biblion/internal/database/locations"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/hierarchy"
)

// CategoryInput carries the editable fields of a category.
type CategoryInput struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	ParentID *uint  `json:"parent_id"`
}

// CategoryService manages the category tree. Every write that touches the
// shape of the tree is validated and applied in the same transaction.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) Tree() ([]entities.Category, error) {
	return categories.NewRepository(s.db).Tree()
}

func (s *CategoryService) List() ([]entities.Category, error) {
	return categories.NewRepository(s.db).List()
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*entities.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	category := &entities.Category{Name: name, Color: in.Color, Icon: in.Icon, ParentID: in.ParentID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		if err := hierarchy.NewValidator(hierarchy.Categories, repo).ValidateReparent(0, in.ParentID); err != nil {
			return err
		}
		return repo.Create(category)
	})
	if err != nil {
		return nil, categoryWriteError(err)
	}
	return category, nil
}

// Update changes the details of a category. A parent change in the input is
// validated like Move.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*entities.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var category *entities.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if !sameParent(current.ParentID, in.ParentID) {
			if err := hierarchy.NewValidator(hierarchy.Categories, repo).ValidateReparent(id, in.ParentID); err != nil {
				return err
			}
			if err := repo.SetParent(id, in.ParentID); err != nil {
				return err
			}
		}
		if err := repo.UpdateDetails(id, name, in.Color, in.Icon); err != nil {
			return err
		}
		category, err = repo.GetByID(id)
		return err
	})
	if err != nil {
		return nil, categoryWriteError(err)
	}
	return category, nil
}

// Move re-parents a category; a nil parent makes it a root.
func (s *CategoryService) Move(ctx context.Context, id uint, parentID *uint) (*entities.Category, error) {
	var category *entities.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}
		if err := hierarchy.NewValidator(hierarchy.Categories, repo).ValidateReparent(id, parentID); err != nil {
			return err
		}
		if err := repo.SetParent(id, parentID); err != nil {
			return err
		}
		var err error
		category, err = repo.GetByID(id)
		return err
	})
	if err != nil {
		return nil, categoryWriteError(err)
	}
	return category, nil
}

// Delete removes a category that holds no books and no subcategories.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := categories.NewRepository(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}
		if err := hierarchy.NewValidator(hierarchy.Categories, repo).ValidateDelete(id); err != nil {
			return err
		}
		return repo.Delete(id)
	})
	return categoryWriteError(err)
}

func categoryWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrCategoryNotFound
	case database.IsUniqueViolation(err):
		return ErrDuplicateCategory
	}
	var treeErr *hierarchy.Error
	if errors.As(err, &treeErr) {
		return err
	}
	return fmt.Errorf("failed to save category: %w", err)
}

// LocationInput carries the editable fields of a location.
type LocationInput struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id"`
}

// LocationService manages the physical location tree.
type LocationService struct {
	db *gorm.DB
}

func NewLocationService(db *gorm.DB) *LocationService {
	return &LocationService{db: db}
}

func (s *LocationService) Tree() ([]entities.Location, error) {
	return locations.NewRepository(s.db).Tree()
}

func (s *LocationService) List() ([]entities.Location, error) {
	return locations.NewRepository(s.db).List()
}

func (s *LocationService) Create(ctx context.Context, in LocationInput) (*entities.Location, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	location := &entities.Location{Name: name, ParentID: in.ParentID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := locations.NewRepository(tx)
		if err := hierarchy.NewValidator(hierarchy.Locations, repo).ValidateReparent(0, in.ParentID); err != nil {
			return err
		}
		return repo.Create(location)
	})
	if err != nil {
		return nil, locationWriteError(err)
	}
	return location, nil
}

func (s *LocationService) Update(ctx context.Context, id uint, in LocationInput) (*entities.Location, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var location *entities.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := locations.NewRepository(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if !sameParent(current.ParentID, in.ParentID) {
			if err := hierarchy.NewValidator(hierarchy.Locations, repo).ValidateReparent(id, in.ParentID); err != nil {
				return err
			}
			if err := repo.SetParent(id, in.ParentID); err != nil {
				return err
			}
		}
		if err := repo.Rename(id, name); err != nil {
			return err
		}
		location, err = repo.GetByID(id)
		return err
	})
	if err != nil {
		return nil, locationWriteError(err)
	}
	return location, nil
}

func (s *LocationService) Move(ctx context.Context, id uint, parentID *uint) (*entities.Location, error) {
	var location *entities.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := locations.NewRepository(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}
		if err := hierarchy.NewValidator(hierarchy.Locations, repo).ValidateReparent(id, parentID); err != nil {
			return err
		}
		if err := repo.SetParent(id, parentID); err != nil {
			return err
		}
		var err error
		location, err = repo.GetByID(id)
		return err
	})
	if err != nil {
		return nil, locationWriteError(err)
	}
	return location, nil
}

// Delete removes a location that holds no books and no sub-locations.
func (s *LocationService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := locations.NewRepository(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}
		if err := hierarchy.NewValidator(hierarchy.Locations, repo).ValidateDelete(id); err != nil {
			return err
		}
		return repo.Delete(id)
	})
	return locationWriteError(err)
}

func locationWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrLocationNotFound
	case database.IsUniqueViolation(err):
		return ErrDuplicateLocation
	}
	var treeErr *hierarchy.Error
	if errors.As(err, &treeErr) {
		return err
	}
	return fmt.Errorf("failed to save location: %w", err)
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
