package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
)

// CreateProject inserts p as is. The caller assigns ID and timestamps.
func CreateProject(ctx context.Context, db *gorm.DB, p *domain.Project) error {
	return db.WithContext(ctx).Create(p).Error
}

// ListProjects returns all projects newest first with their categories
// attached where the referenced category still exists.
func ListProjects(ctx context.Context, db *gorm.DB) ([]domain.Project, error) {
	out := []domain.Project{}
	if err := db.WithContext(ctx).Order("created_at desc, id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	if err := attachCategories(ctx, db, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches one project by id with its category attached.
func GetProject(ctx context.Context, db *gorm.DB, id string) (*domain.Project, error) {
	var p domain.Project
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	ps := []domain.Project{p}
	if err := attachCategories(ctx, db, ps); err != nil {
		return nil, err
	}
	return &ps[0], nil
}

// SaveProject writes every mutable column of p.
func SaveProject(ctx context.Context, db *gorm.DB, p *domain.Project) error {
	res := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", p.ID).
		Select("title", "description", "image", "project_url", "category_id", "is_active", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes the project row.
func DeleteProject(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// attachCategories fills Project.Category with one IN query. Projects whose
// category no longer exists keep a nil Category.
func attachCategories(ctx context.Context, db *gorm.DB, ps []domain.Project) error {
	seen := make(map[string]struct{}, len(ps))
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		if _, ok := seen[p.CategoryID]; ok || p.CategoryID == "" {
			continue
		}
		seen[p.CategoryID] = struct{}{}
		ids = append(ids, p.CategoryID)
	}
	cats, err := CategoriesByID(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range ps {
		if c, ok := cats[ps[i].CategoryID]; ok {
			c := c
			ps[i].Category = &c
		}
	}
	return nil
}
