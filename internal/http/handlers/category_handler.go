// Category HTTP handlers.
//
// This file exposes REST endpoints for categories:
//   - POST   /categories          (create, Idempotency-Key aware)
//   - GET    /categories          (list, projected unless ?raw=true)
//   - GET    /categories/active   (active only)
//   - GET    /categories/{id}     (read one)
//   - PATCH  /categories/{id}     (partial update)
//   - DELETE /categories/{id}     (delete)
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

//
// DTOs
//

// CreateCategoryRequest documents the create payload. Name and description
// accept either {"en","ar"} objects or plain strings, which are stored in the
// request language.
type CreateCategoryRequest struct {
	Name        multilingual.Text  `json:"name" swaggertype:"object,string" example:"en:Web,ar:ويب"`
	Description *multilingual.Text `json:"description,omitempty" swaggertype:"object,string"`
	IsActive    *bool              `json:"isActive,omitempty" example:"true"`
}

// UpdateCategoryRequest is the PATCH payload. Bilingual fields may carry one
// or both language keys, or a plain string that updates the request language.
type UpdateCategoryRequest struct {
	Name        json.RawMessage `json:"name,omitempty" swaggertype:"object,string"`
	Description json.RawMessage `json:"description,omitempty" swaggertype:"object,string"`
	IsActive    *bool           `json:"isActive,omitempty" example:"false"`
}

//
// Handlers
//

// CreateCategory godoc
// @ID          createCategory
// @Summary     Create a category
// @Description Creates a category. A repeated Idempotency-Key returns the category created first with 200.
// @Tags        Categories
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key"
// @Param       lang             query   string  false  "Language for plain-string input"  Enums(en, ar)
// @Param       body             body    handlers.CreateCategoryRequest  true  "Category"
//
// @Success     201  {object}  handlers.Envelope{data=domain.Category}
// @Success     200  {object}  handlers.Envelope{data=domain.Category}  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate name"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	const msg = "Category has been added successfully"
	if h.replayCreated(c, msg, func(ctx context.Context, id string) (any, error) {
		return h.categories.Get(ctx, id)
	}) {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	in := services.CategoryInput{Name: req.Name, Description: req.Description, IsActive: req.IsActive}

	cat, err := h.categories.Create(c.Request.Context(), in, middleware.LanguageFrom(c))
	if err != nil {
		failErr(c, err)
		return
	}
	h.rememberCreated(c, cat.ID)
	success(c, http.StatusCreated, msg, cat)
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Description Returns all categories newest first, projected to the resolved language unless raw=true.
// @Tags        Categories
// @Produce     json
//
// @Param       lang             query   string  false  "Language"  Enums(en, ar)
// @Param       raw              query   bool    false  "Return stored bilingual documents"
// @Param       Accept-Language  header  string  false  "Preferred languages"
//
// @Success     200  {object}  handlers.Envelope{data=[]domain.CategoryView}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	h.listCategories(c, false, "All categories fetched successfully")
}

// ListActiveCategories godoc
// @ID          listActiveCategories
// @Summary     List active categories
// @Tags        Categories
// @Produce     json
//
// @Param       lang  query  string  false  "Language"  Enums(en, ar)
// @Param       raw   query  bool    false  "Return stored bilingual documents"
//
// @Success     200  {object}  handlers.Envelope{data=[]domain.CategoryView}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/active [get]
func (h *Handlers) ListActiveCategories(c *gin.Context) {
	h.listCategories(c, true, "Active categories fetched successfully")
}

func (h *Handlers) listCategories(c *gin.Context, activeOnly bool, msg string) {
	ctx := c.Request.Context()
	var (
		data any
		err  error
	)
	if wantsRaw(c) {
		data, err = h.categories.List(ctx, activeOnly)
	} else {
		data, err = h.categories.ListLocalized(ctx, activeOnly, middleware.LanguageFrom(c))
	}
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, msg, data)
}

// GetCategory godoc
// @ID          getCategory
// @Summary     Get a category
// @Tags        Categories
// @Produce     json
//
// @Param       id    path   string  true   "Category ID"  format(uuid)
// @Param       lang  query  string  false  "Language"  Enums(en, ar)
// @Param       raw   query  bool    false  "Return the stored bilingual document"
//
// @Success     200  {object}  handlers.Envelope{data=domain.CategoryView}
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{id} [get]
func (h *Handlers) GetCategory(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	var (
		data any
		err  error
	)
	if wantsRaw(c) {
		data, err = h.categories.Get(ctx, id)
	} else {
		data, err = h.categories.GetLocalized(ctx, id, middleware.LanguageFrom(c))
	}
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Category fetched successfully", data)
}

// UpdateCategory godoc
// @ID          updateCategory
// @Summary     Update a category
// @Description Merges the supplied fields; each language of a bilingual field is replaced independently.
// @Tags        Categories
// @Accept      json
// @Produce     json
//
// @Param       id    path   string  true   "Category ID"  format(uuid)
// @Param       lang  query  string  false  "Language for plain-string input"  Enums(en, ar)
// @Param       body  body   handlers.UpdateCategoryRequest  true  "Fields to change"
//
// @Success     200  {object}  handlers.Envelope{data=domain.Category}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate name"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{id} [patch]
func (h *Handlers) UpdateCategory(c *gin.Context) {
	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	lang := middleware.LanguageFrom(c)

	name, err := decodePatch(req.Name, lang)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name must be a string or an object with en/ar")
		return
	}
	desc, err := decodePatch(req.Description, lang)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "description must be a string or an object with en/ar")
		return
	}

	cat, err := h.categories.Update(c.Request.Context(), c.Param("id"), services.CategoryPatch{
		Name:        name,
		Description: desc,
		IsActive:    req.IsActive,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Category updated successfully", cat)
}

// DeleteCategory godoc
// @ID          deleteCategory
// @Summary     Delete a category
// @Description Projects referencing the category are left untouched.
// @Tags        Categories
//
// @Param       id  path  string  true  "Category ID"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{id} [delete]
func (h *Handlers) DeleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// decodePatch reads a bilingual partial update. A plain string updates only
// lang; an object may carry en, ar or both. Absent or null input yields nil.
func decodePatch(raw json.RawMessage, lang multilingual.Language) (*multilingual.Patch, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		p := multilingual.PatchFrom(s, lang)
		return &p, nil
	}
	var p multilingual.Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
