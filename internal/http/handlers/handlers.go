// Portfolio HTTP handlers.
//
// This file declares the service contracts the handlers depend on, the
// Handlers type that groups every endpoint and the helpers shared by the
// category, project, contact and auth endpoints.
//
// Handlers are transport-thin: they decode input, resolve the request
// language, call application services and translate results into the
// standard envelopes.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/domain"
	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/services"
	"github.com/tbourn/go-portfolio-backend/internal/sysutil"
)

//
// Service contracts (context-aware)
//

// CategoryService defines category operations consumed by HTTP handlers.
type CategoryService interface {
	Create(ctx context.Context, in services.CategoryInput, lang multilingual.Language) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	ListLocalized(ctx context.Context, activeOnly bool, lang multilingual.Language) ([]domain.CategoryView, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	GetLocalized(ctx context.Context, id string, lang multilingual.Language) (*domain.CategoryView, error)
	Update(ctx context.Context, id string, p services.CategoryPatch) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// ProjectService defines project operations consumed by HTTP handlers.
type ProjectService interface {
	Create(ctx context.Context, in services.ProjectInput, image *media.Upload, lang multilingual.Language) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	ListLocalized(ctx context.Context, lang multilingual.Language) ([]domain.ProjectView, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	GetLocalized(ctx context.Context, id string, lang multilingual.Language) (*domain.ProjectView, error)
	Update(ctx context.Context, id string, p services.ProjectPatch, image *media.Upload) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// ContactService defines contact inbox operations consumed by HTTP handlers.
type ContactService interface {
	Create(ctx context.Context, in services.ContactInput) (*domain.Contact, error)
	List(ctx context.Context, status string, page, limit int) (*services.ContactPage, error)
	Unread(ctx context.Context) ([]domain.Contact, error)
	Get(ctx context.Context, id string) (*domain.Contact, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Contact, error)
	MarkRead(ctx context.Context, id string) (*domain.Contact, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*services.ContactStats, error)
}

// AuthService checks admin credentials.
type AuthService interface {
	Login(email, password string) (*services.LoginResult, error)
}

// IdempotencyStore remembers which resource a create request produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (resourceID string, ok bool, err error)
	Remember(ctx context.Context, scope, key, resourceID string, status int) error
}

// ImageFiles resolves stored image names to files on disk.
type ImageFiles interface {
	Resolve(filename string) (string, error)
}

//
// Handler wiring
//

// Deps carries the services the handlers call. Idempotency may be nil, in
// which case Idempotency-Key headers are ignored by the handlers.
type Deps struct {
	Categories  CategoryService
	Projects    ProjectService
	Contacts    ContactService
	Auth        AuthService
	Idempotency IdempotencyStore
	Images      ImageFiles

	// MaxUploadBytes bounds the in-memory part of multipart parsing.
	MaxUploadBytes int64
}

// Handlers groups the HTTP endpoints of the portfolio API.
type Handlers struct {
	categories CategoryService
	projects   ProjectService
	contacts   ContactService
	auth       AuthService
	idem       IdempotencyStore
	images     ImageFiles

	maxMemory int64
}

// New constructs and returns a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	mem := d.MaxUploadBytes
	if mem <= 0 || mem > defaultMultipartMemory {
		mem = defaultMultipartMemory
	}
	return &Handlers{
		categories: d.Categories,
		projects:   d.Projects,
		contacts:   d.Contacts,
		auth:       d.Auth,
		idem:       d.Idempotency,
		images:     d.Images,
		maxMemory:  mem,
	}
}

// defaultMultipartMemory is how much of a multipart body is kept in memory
// before the rest spills to temporary files.
const defaultMultipartMemory = 32 << 20

//
// Helpers
//

// wantsRaw reports whether the caller asked for stored multilingual documents
// instead of projected views (?raw=true).
func wantsRaw(c *gin.Context) bool {
	return sysutil.IsTruthy(c.Query("raw"))
}

// replayCreated answers a repeated create request from the remembered
// resource. It reports whether a response was written.
func (h *Handlers) replayCreated(c *gin.Context, msg string, load func(ctx context.Context, id string) (any, error)) bool {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil {
		return false
	}
	ctx := c.Request.Context()
	id, found, err := h.idem.Lookup(ctx, middleware.IdempotencyScope(c), key)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Msg("idempotency lookup failed")
		return false
	}
	if !found {
		return false
	}

	v, err := load(ctx, id)
	if err != nil {
		if isNotFoundErr(err) {
			// The remembered resource was deleted since; create it again.
			return false
		}
		failErr(c, err)
		return true
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	success(c, http.StatusOK, msg, v)
	return true
}

// rememberCreated records the resource produced for the request's
// Idempotency-Key. Failures are logged and do not affect the response.
func (h *Handlers) rememberCreated(c *gin.Context, id string) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil {
		return
	}
	if err := h.idem.Remember(c.Request.Context(), middleware.IdempotencyScope(c), key, id, http.StatusCreated); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Str("resource_id", id).Msg("idempotency remember failed")
	}
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, services.ErrCategoryNotFound) ||
		errors.Is(err, services.ErrProjectNotFound) ||
		errors.Is(err, services.ErrContactNotFound)
}
