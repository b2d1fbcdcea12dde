package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

func seedCategory(t *testing.T, db *gorm.DB, en, ar string, active bool, at time.Time) *domain.Category {
	t.Helper()
	c := &domain.Category{ID: uuid.NewString(), Name: multilingual.New(en, ar), IsActive: active, CreatedAt: at, UpdatedAt: at}
	if err := CreateCategory(context.Background(), db, c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func seedProject(t *testing.T, db *gorm.DB, categoryID string, at time.Time) *domain.Project {
	t.Helper()
	p := &domain.Project{
		ID: uuid.NewString(), Title: multilingual.New("P", "ب"), Image: "/uploads/projects/p.jpg",
		CategoryID: categoryID, IsActive: true, CreatedAt: at, UpdatedAt: at,
	}
	if err := CreateProject(context.Background(), db, p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func TestCreateCategory_Duplicate(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	seedCategory(t, db, "Web", "ويب", true, now)

	dup := &domain.Category{ID: uuid.NewString(), Name: multilingual.New("Web", "ويب"), CreatedAt: now, UpdatedAt: now}
	if err := CreateCategory(context.Background(), db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateCategory_Error_NoTable(t *testing.T) {
	db := newTestDB(t, nil)
	c := &domain.Category{ID: "x", Name: multilingual.New("a", "b")}
	if err := CreateCategory(context.Background(), db, c); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestListCategories_OrderAndActiveFilter(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC()
	old := seedCategory(t, db, "Old", "", true, base.Add(-time.Hour))
	inactive := seedCategory(t, db, "Hidden", "", false, base.Add(-time.Minute))
	newest := seedCategory(t, db, "New", "", true, base)

	all, err := ListCategories(context.Background(), db, false)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(all) != 3 || all[0].ID != newest.ID || all[1].ID != inactive.ID || all[2].ID != old.ID {
		t.Fatalf("unexpected order: %+v", all)
	}

	active, err := ListCategories(context.Background(), db, true)
	if err != nil {
		t.Fatalf("ListCategories active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active, got %d", len(active))
	}
	for _, c := range active {
		if !c.IsActive {
			t.Fatalf("inactive category returned: %+v", c)
		}
	}
}

func TestGetSaveDeleteCategory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now().UTC()
	c := seedCategory(t, db, "Web", "ويب", true, now)
	other := seedCategory(t, db, "Apps", "تطبيقات", true, now)

	if _, err := GetCategory(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	desc := multilingual.New("d", "")
	c.Description = &desc
	c.IsActive = false
	c.UpdatedAt = now.Add(time.Minute)
	if err := SaveCategory(ctx, db, c); err != nil {
		t.Fatalf("SaveCategory: %v", err)
	}
	got, err := GetCategory(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.IsActive || got.Description == nil || got.Description.EN != "d" || !got.UpdatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("unexpected saved row: %+v", got)
	}

	other.Name = c.Name
	if err := SaveCategory(ctx, db, other); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on rename collision, got %v", err)
	}

	if err := SaveCategory(ctx, db, &domain.Category{ID: "missing", Name: multilingual.New("z", "z")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on save, got %v", err)
	}

	ok, err := CategoryExists(ctx, db, c.ID)
	if err != nil || !ok {
		t.Fatalf("CategoryExists = %v, %v", ok, err)
	}
	if err := DeleteCategory(ctx, db, c.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if err := DeleteCategory(ctx, db, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	ok, _ = CategoryExists(ctx, db, c.ID)
	if ok {
		t.Fatalf("category should be gone")
	}
}

func TestProjects_AttachCategoryAndDangling(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now().UTC()
	cat := seedCategory(t, db, "Web", "ويب", true, now)
	p1 := seedProject(t, db, cat.ID, now.Add(-time.Minute))
	p2 := seedProject(t, db, cat.ID, now)

	list, err := ListProjects(ctx, db)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 2 || list[0].ID != p2.ID || list[1].ID != p1.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
	for _, p := range list {
		if p.Category == nil || p.Category.ID != cat.ID {
			t.Fatalf("category not attached: %+v", p)
		}
	}

	// deleting the category leaves the reference dangling
	if err := DeleteCategory(ctx, db, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	got, err := GetProject(ctx, db, p1.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Category != nil || got.CategoryID != cat.ID {
		t.Fatalf("expected dangling categoryId without category, got %+v", got)
	}
}

func TestSaveDeleteProject(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now().UTC()
	p := seedProject(t, db, "c1", now)

	url := "https://example.com"
	p.ProjectURL = &url
	p.Image = "/uploads/projects/new.jpg"
	p.Title = multilingual.New("New", "جديد")
	if err := SaveProject(ctx, db, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	got, err := GetProject(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.ProjectURL == nil || *got.ProjectURL != url || got.Image != p.Image || got.Title.AR != "جديد" {
		t.Fatalf("unexpected row: %+v", got)
	}

	if err := SaveProject(ctx, db, &domain.Project{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := DeleteProject(ctx, db, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := GetProject(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteProject(ctx, db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCategoriesByID_Empty(t *testing.T) {
	db := newTestDB(t)
	got, err := CategoriesByID(context.Background(), db, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}
