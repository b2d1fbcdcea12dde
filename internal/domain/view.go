package domain

import (
	"time"

	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

// CategoryView is a Category with every bilingual field collapsed to one
// language.
type CategoryView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategorySummary is the projected category embedded in a ProjectView.
type CategorySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectView is a Project with its own bilingual fields and those of its
// category collapsed to one language.
type ProjectView struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	ProjectURL  *string          `json:"projectUrl,omitempty"`
	CategoryID  string           `json:"categoryId"`
	Category    *CategorySummary `json:"category,omitempty"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// View projects c to lang. The receiver is not modified.
func (c Category) View(lang multilingual.Language) CategoryView {
	return CategoryView{
		ID:          c.ID,
		Name:        c.Name.In(lang),
		Description: optionalIn(c.Description, lang),
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// Summary projects the fields of c that are embedded in project views.
func (c Category) Summary(lang multilingual.Language) CategorySummary {
	return CategorySummary{
		ID:          c.ID,
		Name:        c.Name.In(lang),
		Description: optionalIn(c.Description, lang),
	}
}

// View projects p, and its loaded category if any, to lang with the same
// language threaded through both levels. The receiver is not modified.
func (p Project) View(lang multilingual.Language) ProjectView {
	v := ProjectView{
		ID:          p.ID,
		Title:       p.Title.In(lang),
		Description: optionalIn(p.Description, lang),
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ProjectURL != nil {
		u := *p.ProjectURL
		v.ProjectURL = &u
	}
	if p.Category != nil {
		s := p.Category.Summary(lang)
		v.Category = &s
	}
	return v
}

// CategoryViews projects a list of categories.
func CategoryViews(cs []Category, lang multilingual.Language) []CategoryView {
	out := make([]CategoryView, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.View(lang))
	}
	return out
}

// ProjectViews projects a list of projects.
func ProjectViews(ps []Project, lang multilingual.Language) []ProjectView {
	out := make([]ProjectView, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.View(lang))
	}
	return out
}

func optionalIn(t *multilingual.Text, lang multilingual.Language) string {
	if t == nil {
		return ""
	}
	return t.In(lang)
}
