// Project HTTP handlers.
//
// This file exposes REST endpoints for projects:
//   - POST   /projects                  (multipart create, image required)
//   - GET    /projects                  (list, projected unless ?raw=true)
//   - GET    /projects/{id}             (read one)
//   - PATCH  /projects/{id}             (multipart or JSON partial update)
//   - DELETE /projects/{id}             (delete row, then image)
//   - GET    /projects/image/{filename} (serve a stored image)
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

// imageField is the multipart field carrying the project image.
const imageField = "image"

// UpdateProjectRequest is the JSON form of a project PATCH without a new
// image.
type UpdateProjectRequest struct {
	Title       json.RawMessage `json:"title,omitempty" swaggertype:"object,string"`
	Description json.RawMessage `json:"description,omitempty" swaggertype:"object,string"`
	ProjectURL  *string         `json:"projectUrl,omitempty" example:"https://example.com"`
	CategoryID  *string         `json:"categoryId,omitempty" format:"uuid"`
	IsActive    *bool           `json:"isActive,omitempty" example:"true"`
}

// CreateProject godoc
// @ID          createProject
// @Summary     Create a project
// @Description Creates a project from a multipart form. Bilingual fields may be sent as title[en]/title[ar], as a JSON object in title or as a plain string stored in the request language.
// @Tags        Projects
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false  "Idempotency key"
// @Param       lang             query     string  false  "Language for plain-string input"  Enums(en, ar)
// @Param       title[en]        formData  string  false  "English title"
// @Param       title[ar]        formData  string  false  "Arabic title"
// @Param       title            formData  string  false  "Title as JSON object or plain string"
// @Param       description      formData  string  false  "Description as JSON object or plain string"
// @Param       projectUrl       formData  string  false  "Link to the project"
// @Param       categoryId       formData  string  true   "Category ID"  format(uuid)
// @Param       isActive         formData  bool    false  "Visible on the site"
// @Param       image            formData  file    true   "Project image"
//
// @Success     201  {object}  handlers.Envelope{data=domain.Project}
// @Success     200  {object}  handlers.Envelope{data=domain.Project}  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects [post]
func (h *Handlers) CreateProject(c *gin.Context) {
	const msg = "Project created successfully"
	if h.replayCreated(c, msg, func(ctx context.Context, id string) (any, error) {
		return h.projects.Get(ctx, id)
	}) {
		return
	}

	if !isMultipart(c) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgImageRequired)
		return
	}
	form, ok := h.parseForm(c)
	if !ok {
		return
	}
	defer form.cleanup()

	title, err := form.text("title")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title must be a string or an object with en and ar")
		return
	}
	desc, err := form.text("description")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "description must be a string or an object with en and ar")
		return
	}
	active, err := form.boolean("isActive")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "isActive must be a boolean")
		return
	}

	in := services.ProjectInput{
		Description: desc,
		ProjectURL:  form.optional("projectUrl"),
		IsActive:    active,
	}
	if title != nil {
		in.Title = *title
	}
	if v := form.optional("categoryId"); v != nil {
		in.CategoryID = *v
	}

	p, err := h.projects.Create(c.Request.Context(), in, form.image(), form.lang)
	if err != nil {
		failErr(c, err)
		return
	}
	h.rememberCreated(c, p.ID)
	success(c, http.StatusCreated, msg, p)
}

// ListProjects godoc
// @ID          listProjects
// @Summary     List projects
// @Description Returns all projects newest first with their category, projected to the resolved language unless raw=true.
// @Tags        Projects
// @Produce     json
//
// @Param       lang             query   string  false  "Language"  Enums(en, ar)
// @Param       raw              query   bool    false  "Return stored bilingual documents"
// @Param       Accept-Language  header  string  false  "Preferred languages"
//
// @Success     200  {object}  handlers.Envelope{data=[]domain.ProjectView}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects [get]
func (h *Handlers) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		data any
		err  error
	)
	if wantsRaw(c) {
		data, err = h.projects.List(ctx)
	} else {
		data, err = h.projects.ListLocalized(ctx, middleware.LanguageFrom(c))
	}
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Projects fetched successfully", data)
}

// GetProject godoc
// @ID          getProject
// @Summary     Get a project
// @Tags        Projects
// @Produce     json
//
// @Param       id    path   string  true   "Project ID"  format(uuid)
// @Param       lang  query  string  false  "Language"  Enums(en, ar)
// @Param       raw   query  bool    false  "Return the stored bilingual document"
//
// @Success     200  {object}  handlers.Envelope{data=domain.ProjectView}
// @Failure     404  {object}  handlers.ErrorResponse  "Project not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects/{id} [get]
func (h *Handlers) GetProject(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	var (
		data any
		err  error
	)
	if wantsRaw(c) {
		data, err = h.projects.Get(ctx, id)
	} else {
		data, err = h.projects.GetLocalized(ctx, id, middleware.LanguageFrom(c))
	}
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Project fetched successfully", data)
}

// UpdateProject godoc
// @ID          updateProject
// @Summary     Update a project
// @Description Merges the supplied fields. A new image replaces the old one, which is then deleted. Without an image a JSON body is accepted as well.
// @Tags        Projects
// @Accept      multipart/form-data
// @Accept      json
// @Produce     json
//
// @Param       id           path      string  true   "Project ID"  format(uuid)
// @Param       lang         query     string  false  "Language for plain-string input"  Enums(en, ar)
// @Param       title[en]    formData  string  false  "English title"
// @Param       title[ar]    formData  string  false  "Arabic title"
// @Param       title        formData  string  false  "Title as JSON object or plain string"
// @Param       description  formData  string  false  "Description as JSON object or plain string"
// @Param       projectUrl   formData  string  false  "Link; empty clears it"
// @Param       categoryId   formData  string  false  "Category ID"  format(uuid)
// @Param       isActive     formData  bool    false  "Visible on the site"
// @Param       image        formData  file    false  "Replacement image"
//
// @Success     200  {object}  handlers.Envelope{data=domain.Project}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Project not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects/{id} [patch]
func (h *Handlers) UpdateProject(c *gin.Context) {
	lang := middleware.LanguageFrom(c)
	var (
		patch services.ProjectPatch
		image *media.Upload
	)

	if isMultipart(c) {
		form, ok := h.parseForm(c)
		if !ok {
			return
		}
		defer form.cleanup()

		var err error
		if patch.Title, err = form.patch("title"); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title must be a string or an object with en/ar")
			return
		}
		if patch.Description, err = form.patch("description"); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "description must be a string or an object with en/ar")
			return
		}
		if patch.IsActive, err = form.boolean("isActive"); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "isActive must be a boolean")
			return
		}
		patch.ProjectURL = form.optional("projectUrl")
		patch.CategoryID = form.optional("categoryId")
		image = form.image()
	} else {
		var req UpdateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			failBind(c, err)
			return
		}
		var err error
		if patch.Title, err = decodePatch(req.Title, lang); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title must be a string or an object with en/ar")
			return
		}
		if patch.Description, err = decodePatch(req.Description, lang); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "description must be a string or an object with en/ar")
			return
		}
		patch.ProjectURL = req.ProjectURL
		patch.CategoryID = req.CategoryID
		patch.IsActive = req.IsActive
	}

	p, err := h.projects.Update(c.Request.Context(), c.Param("id"), patch, image)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, "Project updated successfully", p)
}

// DeleteProject godoc
// @ID          deleteProject
// @Summary     Delete a project
// @Description Deletes the project and then its image; a missing image file does not fail the request.
// @Tags        Projects
//
// @Param       id  path  string  true  "Project ID"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Project not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects/{id} [delete]
func (h *Handlers) DeleteProject(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// GetProjectImage godoc
// @ID          getProjectImage
// @Summary     Serve a project image
// @Tags        Projects
// @Produce     image/jpeg
//
// @Param       filename  path  string  true  "Stored file name"
//
// @Success     200  {file}    file
// @Failure     404  {object}  handlers.ErrorResponse  "Requested image not found"
// @Router      /projects/image/{filename} [get]
func (h *Handlers) GetProjectImage(c *gin.Context) {
	path, err := h.images.Resolve(c.Param("filename"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}

//
// Multipart parsing
//

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}

// projectForm is a parsed multipart project payload.
type projectForm struct {
	form *multipart.Form
	lang multilingual.Language
}

// parseForm parses the multipart body. It reports false after writing an
// error response.
func (h *Handlers) parseForm(c *gin.Context) (*projectForm, bool) {
	if err := c.Request.ParseMultipartForm(h.maxMemory); err != nil {
		failBind(c, err)
		return nil, false
	}
	return &projectForm{form: c.Request.MultipartForm, lang: middleware.LanguageFrom(c)}, true
}

func (f *projectForm) cleanup() {
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

func (f *projectForm) get(name string) (string, bool) {
	vs, ok := f.form.Value[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *projectForm) optional(name string) *string {
	v, ok := f.get(name)
	if !ok {
		return nil
	}
	return &v
}

func (f *projectForm) boolean(name string) (*bool, error) {
	v, ok := f.get(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// text reads a bilingual field sent as name[en] and name[ar], as a JSON
// object in name, or as a plain string in name. A missing field yields nil.
func (f *projectForm) text(name string) (*multilingual.Text, error) {
	en, hasEN := f.get(name + "[en]")
	ar, hasAR := f.get(name + "[ar]")
	if hasEN || hasAR {
		t := multilingual.New(en, ar)
		return &t, nil
	}

	v, ok := f.get(name)
	if !ok {
		return nil, nil
	}
	var t multilingual.Text
	if looksLikeObject(v) {
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, err
		}
	} else {
		t = multilingual.Legacy(v)
	}
	return &t, nil
}

// patch reads a bilingual partial update in the same shapes as text. A plain
// string only touches the request language.
func (f *projectForm) patch(name string) (*multilingual.Patch, error) {
	var p multilingual.Patch
	if en, ok := f.get(name + "[en]"); ok {
		p.Set(multilingual.English, en)
	}
	if ar, ok := f.get(name + "[ar]"); ok {
		p.Set(multilingual.Arabic, ar)
	}
	if !p.IsEmpty() {
		return &p, nil
	}

	v, ok := f.get(name)
	if !ok {
		return nil, nil
	}
	if looksLikeObject(v) {
		return decodePatch(json.RawMessage(v), f.lang)
	}
	p = multilingual.PatchFrom(v, f.lang)
	return &p, nil
}

// image returns the uploaded image, or nil when the field is absent.
func (f *projectForm) image() *media.Upload {
	files := f.form.File[imageField]
	if len(files) == 0 {
		return nil
	}
	fh := files[0]
	return &media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func looksLikeObject(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), "{")
}
