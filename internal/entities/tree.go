package entities

import "time"

type Category struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Color     string     `gorm:"size:20" json:"color,omitempty"`
	Icon      string     `gorm:"size:50" json:"icon,omitempty"`
	ParentID  *uint      `gorm:"index" json:"parent_id,omitempty"`
	Children  []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Books     []Book     `gorm:"many2many:book_categories;" json:"-"`
	BookCount int64      `gorm:"-" json:"book_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Location struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	ParentID  *uint      `gorm:"index" json:"parent_id,omitempty"`
	Children  []Location `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Books     []Book     `gorm:"foreignKey:LocationID" json:"-"`
	BookCount int64      `gorm:"-" json:"book_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
