// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Category
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - A missing category yields ErrNotFound.
//   - A name that collides with another category yields ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// CreateCategory inserts c as is. The caller assigns ID and timestamps.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListCategories returns categories newest first, optionally only the active
// ones.
func ListCategories(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Category, error) {
	out := []domain.Category{}
	q := db.WithContext(ctx).Order("created_at desc, id asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetCategory fetches one category by id.
func GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryExists reports whether a category with id is stored.
func CategoryExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CategoriesByID loads the categories whose ids are listed, keyed by id.
// Unknown ids are simply absent from the result.
func CategoriesByID(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Category, error) {
	out := make(map[string]domain.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Category
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

// SaveCategory writes every column of c.
func SaveCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	res := db.WithContext(ctx).
		Model(&domain.Category{}).
		Where("id = ?", c.ID).
		Select("name", "description", "is_active", "updated_at").
		Updates(c)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category. Projects that reference it are left in
// place.
func DeleteCategory(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
