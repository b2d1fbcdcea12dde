// Package services – ContactService
//
// This file implements the ContactService, which accepts public contact
// requests and backs the admin inbox. Free text from the public form is
// stripped of markup before it is stored. Only one request per email is
// accepted inside the duplicate window; the check reads before it writes,
// so two concurrent submissions may both pass.
package services

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
	"github.com/tbourn/go-portfolio-backend/internal/utils"
)

// DefaultDuplicateWindow is how long an email is blocked after submitting.
const DefaultDuplicateWindow = 24 * time.Hour

// Paging defaults for ContactService.List.
const (
	DefaultContactPageSize = 10
	MaxContactPageSize     = 100
)

// ContactInput is a public contact submission.
type ContactInput struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	RequestedService *string `json:"requestedService,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// ContactPage is one page of the admin inbox.
type ContactPage struct {
	Items      []domain.Contact `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// ContactStats summarizes the inbox.
type ContactStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Unread     int64 `json:"unread"`
}

// ContactService implements contact use-cases.
type ContactService struct {
	DB *gorm.DB
	// Window is the duplicate-submission window per email.
	Window time.Duration
	// Now is the clock used for timestamps and the window check.
	Now func() time.Time

	policy *bluemonday.Policy
}

// NewContactService constructs a ContactService with a 24h duplicate window.
func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{
		DB:     db,
		Window: DefaultDuplicateWindow,
		policy: bluemonday.StrictPolicy(),
	}
}

// Create validates and stores a public contact request. The email is
// compared case-insensitively for the duplicate check.
func (s *ContactService) Create(ctx context.Context, in ContactInput) (*domain.Contact, error) {
	name := s.clean(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	service := s.cleanOptional(in.RequestedService)
	notes := s.cleanOptional(in.Notes)

	checks := []struct {
		rule  fieldRule
		value string
	}{
		{contactRules.Name, name},
		{contactRules.Email, email},
		{contactRules.Phone, phone},
		{contactRules.RequestedService, deref(service)},
		{contactRules.Notes, deref(notes)},
	}
	for _, c := range checks {
		if err := c.rule.check(c.value); err != nil {
			return nil, err
		}
	}

	now := clock(s.Now)
	window := s.Window
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	dup, err := repo.ContactSubmittedSince(ctx, s.DB, email, now.Add(-window))
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateContact
	}

	c := &domain.Contact{
		ID:               uuid.NewString(),
		Name:             name,
		Email:            email,
		Phone:            phone,
		RequestedService: service,
		Notes:            notes,
		Status:           domain.ContactPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := repo.CreateContact(ctx, s.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns one page of contacts newest first, optionally filtered by
// status. page defaults to 1 and limit to 10, capped at 100.
func (s *ContactService) List(ctx context.Context, status string, page, limit int) (*ContactPage, error) {
	st := domain.ContactStatus(strings.TrimSpace(status))
	if st != "" && !st.IsValid() {
		return nil, &ValidationError{Field: "status", Message: "must be one of pending, in-progress, completed, cancelled"}
	}
	pg := utils.NewPage(page, limit, DefaultContactPageSize, MaxContactPageSize)

	out := &ContactPage{Items: []domain.Contact{}, Page: pg.Number, Limit: pg.Limit}
	total, err := repo.CountContacts(ctx, s.DB, st)
	if err != nil {
		return nil, err
	}
	out.Total = total
	out.TotalPages = pg.TotalPages(total)
	if total == 0 {
		return out, nil
	}

	items, err := repo.ListContactsPage(ctx, s.DB, st, pg.Offset(), pg.Limit)
	if err != nil {
		return nil, err
	}
	out.Items = items
	return out, nil
}

// Unread returns every unread contact newest first.
func (s *ContactService) Unread(ctx context.Context) ([]domain.Contact, error) {
	return repo.ListUnreadContacts(ctx, s.DB)
}

// Get returns one contact and marks it read on the first access.
func (s *ContactService) Get(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := repo.GetContact(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	if c.IsRead {
		return c, nil
	}
	return s.MarkRead(ctx, id)
}

// UpdateStatus sets the handling state. Any status may follow any other.
func (s *ContactService) UpdateStatus(ctx context.Context, id, status string) (*domain.Contact, error) {
	st := domain.ContactStatus(strings.TrimSpace(status))
	if !st.IsValid() {
		return nil, &ValidationError{Field: "status", Message: "must be one of pending, in-progress, completed, cancelled"}
	}
	return s.update(ctx, id, map[string]any{"status": st})
}

// MarkRead flags a contact as read.
func (s *ContactService) MarkRead(ctx context.Context, id string) (*domain.Contact, error) {
	return s.update(ctx, id, map[string]any{"is_read": true})
}

// Delete removes a contact.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteContact(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrContactNotFound
		}
		return err
	}
	return nil
}

// Stats returns inbox counters.
func (s *ContactService) Stats(ctx context.Context) (*ContactStats, error) {
	c, err := repo.ContactStats(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return &ContactStats{
		Total:      c.Total,
		Pending:    c.ByStatus[domain.ContactPending],
		InProgress: c.ByStatus[domain.ContactInProgress],
		Completed:  c.ByStatus[domain.ContactCompleted],
		Cancelled:  c.ByStatus[domain.ContactCancelled],
		Unread:     c.Unread,
	}, nil
}

func (s *ContactService) update(ctx context.Context, id string, fields map[string]any) (*domain.Contact, error) {
	fields["updated_at"] = clock(s.Now)
	c, err := repo.UpdateContact(ctx, s.DB, id, fields)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// clean strips markup and surrounding whitespace from public free text.
// Entities produced by the sanitizer are decoded again so that plain
// characters such as '&' are stored as typed.
func (s *ContactService) clean(v string) string {
	p := s.policy
	if p == nil {
		p = bluemonday.StrictPolicy()
	}
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(v)))
}

func (s *ContactService) cleanOptional(v *string) *string {
	if v == nil {
		return nil
	}
	out := s.clean(*v)
	if out == "" {
		return nil
	}
	return &out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
