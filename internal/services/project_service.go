// Package services – ProjectService
//
// This file implements the ProjectService. Every project owns exactly one
// stored image. The service keeps storage and rows consistent: an image
// written for a request that then fails (bad category, DB error) is removed
// again, and an image that is replaced or whose project is deleted is
// removed best effort, with failures only logged.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/observability"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

// ImageStore persists project images. *media.Store implements it.
type ImageStore interface {
	Save(u media.Upload) (media.Stored, error)
	Remove(publicPath string) error
}

// ProjectInput is the payload for creating a project.
type ProjectInput struct {
	Title       multilingual.Text
	Description *multilingual.Text
	ProjectURL  *string
	CategoryID  string
	IsActive    *bool
}

// ProjectPatch is a partial update. Nil fields are left unchanged. An empty
// ProjectURL clears the link.
type ProjectPatch struct {
	Title       *multilingual.Patch
	Description *multilingual.Patch
	ProjectURL  *string
	CategoryID  *string
	IsActive    *bool
}

// ProjectService implements project use-cases.
type ProjectService struct {
	DB     *gorm.DB
	Images ImageStore
	// Now is the clock used for timestamps; defaults to time.Now in UTC.
	Now func() time.Time
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB, images ImageStore) *ProjectService {
	return &ProjectService{DB: db, Images: images}
}

// Create validates in, stores image and inserts the project. The category
// must exist; otherwise the stored image is removed and ErrCategoryMissing
// is returned.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput, image *media.Upload, lang multilingual.Language) (*domain.Project, error) {
	if image == nil {
		return nil, ErrImageRequired
	}

	title := trimText(in.Title.Adopt(lang))
	if err := projectTitleRule.checkText(title); err != nil {
		return nil, err
	}
	var desc *multilingual.Text
	if in.Description != nil {
		d := trimText(in.Description.Adopt(lang))
		if err := projectDescriptionRule.checkText(d); err != nil {
			return nil, err
		}
		desc = &d
	}
	url, err := normalizeURL(in.ProjectURL)
	if err != nil {
		return nil, err
	}
	categoryID := strings.TrimSpace(in.CategoryID)
	if err := projectCategoryRule.check(categoryID); err != nil {
		return nil, err
	}

	stored, err := s.saveImage(ctx, *image)
	if err != nil {
		return nil, err
	}

	exists, err := repo.CategoryExists(ctx, s.DB, categoryID)
	if err != nil || !exists {
		s.discard(ctx, stored.PublicPath, "category check failed")
		if err != nil {
			return nil, err
		}
		return nil, ErrCategoryMissing
	}

	now := clock(s.Now)
	p := &domain.Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: desc,
		Image:       stored.PublicPath,
		ProjectURL:  url,
		CategoryID:  categoryID,
		IsActive:    boolOr(in.IsActive, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateProject(ctx, s.DB, p); err != nil {
		s.discard(ctx, stored.PublicPath, "insert failed")
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// List returns stored projects newest first with their categories attached.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return repo.ListProjects(ctx, s.DB)
}

// ListLocalized returns all projects, and their categories, projected to lang.
func (s *ProjectService) ListLocalized(ctx context.Context, lang multilingual.Language) ([]domain.ProjectView, error) {
	ps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ProjectViews(ps, lang), nil
}

// Get returns one stored project with its category attached.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := repo.GetProject(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetLocalized returns one project projected to lang.
func (s *ProjectService) GetLocalized(ctx context.Context, id string, lang multilingual.Language) (*domain.ProjectView, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := p.View(lang)
	return &v, nil
}

// Update merges p into the stored project. When image is given it replaces
// the current one; the old file is removed only after the row points at the
// new file.
func (s *ProjectService) Update(ctx context.Context, id string, patch ProjectPatch, image *media.Upload) (*domain.Project, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur
	next.Category = nil

	if patch.Title != nil {
		tp := trimPatch(*patch.Title)
		if err := projectTitleRule.checkPatch(tp); err != nil {
			return nil, err
		}
		merged := cur.Title.Merge(tp)
		if err := projectTitleRule.checkText(merged); err != nil {
			return nil, err
		}
		next.Title = merged
	}
	if patch.Description != nil {
		dp := trimPatch(*patch.Description)
		if err := projectDescriptionRule.checkPatch(dp); err != nil {
			return nil, err
		}
		var base multilingual.Text
		if cur.Description != nil {
			base = *cur.Description
		}
		merged := base.Merge(dp)
		next.Description = &merged
	}
	if patch.ProjectURL != nil {
		url, err := normalizeURL(patch.ProjectURL)
		if err != nil {
			return nil, err
		}
		next.ProjectURL = url
	}
	if patch.CategoryID != nil {
		cid := strings.TrimSpace(*patch.CategoryID)
		if err := projectCategoryRule.check(cid); err != nil {
			return nil, err
		}
		next.CategoryID = cid
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}

	var stored *media.Stored
	if image != nil {
		st, err := s.saveImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		stored = &st
		next.Image = st.PublicPath
	}
	rollback := func(reason string) {
		if stored != nil {
			s.discard(ctx, stored.PublicPath, reason)
		}
	}

	if patch.CategoryID != nil {
		exists, err := repo.CategoryExists(ctx, s.DB, next.CategoryID)
		if err != nil {
			rollback("category check failed")
			return nil, err
		}
		if !exists {
			rollback("category check failed")
			return nil, ErrCategoryMissing
		}
	}

	next.UpdatedAt = clock(s.Now)
	if err := repo.SaveProject(ctx, s.DB, &next); err != nil {
		rollback("update failed")
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if stored != nil && cur.Image != "" && cur.Image != next.Image {
		s.discard(ctx, cur.Image, "image replaced")
	}
	return s.Get(ctx, id)
}

// Delete removes the project row and then its image. A missing or
// undeletable image file does not fail the call.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := repo.DeleteProject(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrProjectNotFound
		}
		return err
	}
	if cur.Image != "" {
		s.discard(ctx, cur.Image, "project deleted")
	}
	return nil
}

// saveImage stores u inside a child span.
func (s *ProjectService) saveImage(ctx context.Context, u media.Upload) (media.Stored, error) {
	_, span := observability.Start(ctx, "projects.save_image",
		attribute.String("image.content_type", u.ContentType),
		attribute.Int64("image.size", u.Size),
	)
	defer span.End()

	st, err := s.Images.Save(u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save image")
		return st, err
	}
	span.SetAttributes(attribute.String("image.name", st.Name))
	return st, nil
}

// discard removes a stored image best effort and logs failures with the
// request-scoped logger.
func (s *ProjectService) discard(ctx context.Context, publicPath, reason string) {
	err := s.Images.Remove(publicPath)
	if err == nil {
		return
	}
	lg := zerolog.Ctx(ctx)
	ev := lg.Warn()
	if errors.Is(err, media.ErrNotFound) {
		ev = lg.Info()
	}
	ev.Err(err).Str("image", publicPath).Str("reason", reason).Msg("image cleanup failed")
}

// normalizeURL trims the link and validates it. Blank input clears the
// value.
func normalizeURL(u *string) (*string, error) {
	if u == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*u)
	if v == "" {
		return nil, nil
	}
	if err := projectURLRule.check(v); err != nil {
		return nil, err
	}
	return &v, nil
}
