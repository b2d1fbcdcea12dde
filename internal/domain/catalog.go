// Package domain defines the persistence models of the portfolio backend and
// the single-language views they are projected to on read. The models are
// mapped with GORM and shared by the repository and service layers.
package domain

import (
	"time"

	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

// Category groups projects. Its name is unique across all categories.
//
// Timestamps are assigned by the service layer, so GORM's automatic
// create/update time tracking is disabled on both columns.
type Category struct {
	ID          string             `json:"id"                    gorm:"type:char(36);primaryKey"`
	Name        multilingual.Text  `json:"name"                  gorm:"type:text;not null;uniqueIndex:ux_categories_name"`
	Description *multilingual.Text `json:"description,omitempty" gorm:"type:text"`
	IsActive    bool               `json:"isActive"              gorm:"not null;index:idx_categories_active"`
	CreatedAt   time.Time          `json:"createdAt"             gorm:"autoCreateTime:false;index:idx_categories_created"`
	UpdatedAt   time.Time          `json:"updatedAt"             gorm:"autoUpdateTime:false"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Project is a portfolio entry with a mandatory image.
//
// CategoryID is a plain reference with no foreign key constraint: deleting a
// category leaves its projects pointing at a missing row. Category is filled
// by the repository when the referenced row exists and is never persisted.
type Project struct {
	ID          string             `json:"id"                    gorm:"type:char(36);primaryKey"`
	Title       multilingual.Text  `json:"title"                 gorm:"type:text;not null"`
	Description *multilingual.Text `json:"description,omitempty" gorm:"type:text"`
	Image       string             `json:"image"                 gorm:"type:varchar(500);not null"`
	ProjectURL  *string            `json:"projectUrl,omitempty"  gorm:"column:project_url;type:varchar(2048)"`
	CategoryID  string             `json:"categoryId"            gorm:"type:char(36);not null;index:idx_projects_category"`
	IsActive    bool               `json:"isActive"              gorm:"not null;index:idx_projects_active"`
	CreatedAt   time.Time          `json:"createdAt"             gorm:"autoCreateTime:false;index:idx_projects_created"`
	UpdatedAt   time.Time          `json:"updatedAt"             gorm:"autoUpdateTime:false"`

	Category *Category `json:"category,omitempty" gorm:"-"`
}

// TableName returns the database table name for Project.
func (Project) TableName() string { return "projects" }
