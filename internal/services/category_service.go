// Package services – CategoryService
//
// This file implements the CategoryService, which manages project
// categories. It validates bilingual names and descriptions, keeps names
// unique through the storage index and projects categories to a single
// language on read.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

// CategoryInput is the payload for creating a category. Name and
// Description may arrive as legacy plain strings; they are then stored in
// the request language only.
type CategoryInput struct {
	Name        multilingual.Text  `json:"name"`
	Description *multilingual.Text `json:"description,omitempty"`
	IsActive    *bool              `json:"isActive,omitempty"`
}

// CategoryPatch is a partial update. Nil fields are left unchanged and each
// language slot of a bilingual field is merged independently.
type CategoryPatch struct {
	Name        *multilingual.Patch `json:"name,omitempty"`
	Description *multilingual.Patch `json:"description,omitempty"`
	IsActive    *bool               `json:"isActive,omitempty"`
}

// CategoryService implements category use-cases on top of the repo layer.
type CategoryService struct {
	DB *gorm.DB
	// Now is the clock used for timestamps; defaults to time.Now in UTC.
	Now func() time.Time
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{DB: db}
}

// Create validates in and inserts a new category. IsActive defaults to true.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput, lang multilingual.Language) (*domain.Category, error) {
	name := trimText(in.Name.Adopt(lang))
	if err := categoryNameRule.checkText(name); err != nil {
		return nil, err
	}
	var desc *multilingual.Text
	if in.Description != nil {
		d := trimText(in.Description.Adopt(lang))
		if err := categoryDescriptionRule.checkText(d); err != nil {
			return nil, err
		}
		desc = &d
	}

	now := clock(s.Now)
	c := &domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: desc,
		IsActive:    boolOr(in.IsActive, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateCategory(ctx, s.DB, c); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return c, nil
}

// List returns stored categories newest first.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return repo.ListCategories(ctx, s.DB, activeOnly)
}

// ListLocalized returns categories projected to lang.
func (s *CategoryService) ListLocalized(ctx context.Context, activeOnly bool, lang multilingual.Language) ([]domain.CategoryView, error) {
	cs, err := s.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return domain.CategoryViews(cs, lang), nil
}

// Get returns one stored category.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	c, err := repo.GetCategory(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetLocalized returns one category projected to lang.
func (s *CategoryService) GetLocalized(ctx context.Context, id string, lang multilingual.Language) (*domain.CategoryView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := c.View(lang)
	return &v, nil
}

// Update merges p into the stored category.
func (s *CategoryService) Update(ctx context.Context, id string, p CategoryPatch) (*domain.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		np := trimPatch(*p.Name)
		if err := categoryNameRule.checkPatch(np); err != nil {
			return nil, err
		}
		merged := c.Name.Merge(np)
		if err := categoryNameRule.checkText(merged); err != nil {
			return nil, err
		}
		c.Name = merged
	}
	if p.Description != nil {
		dp := trimPatch(*p.Description)
		if err := categoryDescriptionRule.checkPatch(dp); err != nil {
			return nil, err
		}
		var base multilingual.Text
		if c.Description != nil {
			base = *c.Description
		}
		merged := base.Merge(dp)
		c.Description = &merged
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	c.UpdatedAt = clock(s.Now)

	if err := repo.SaveCategory(ctx, s.DB, c); err != nil {
		switch {
		case isNotFound(err):
			return nil, ErrCategoryNotFound
		case isDuplicate(err):
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a category. Projects referencing it keep their categoryId.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteCategory(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// clock returns now() in UTC, defaulting to the wall clock.
func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
