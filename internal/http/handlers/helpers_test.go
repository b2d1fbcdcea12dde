package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

// ---------- test DB + wiring ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testEnv struct {
	db       *gorm.DB
	store    *media.Store
	contacts *services.ContactService
	router   *gin.Engine
}

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "s3cret"
)

// newEnv wires real services on an in-memory database and registers the
// API routes the way the production router does.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	store, err := media.NewStore(media.Options{Dir: filepath.Join(t.TempDir(), "uploads", "projects")})
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	contacts := services.NewContactService(db)
	idem := services.NewIdempotencyService(db, time.Hour)

	h := New(Deps{
		Categories:  services.NewCategoryService(db),
		Projects:    services.NewProjectService(db, store),
		Contacts:    contacts,
		Auth:        services.NewAuthService(testAdminEmail, testAdminPassword),
		Idempotency: idem,
		Images:      store,
	})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idem.Exists),
		middleware.Language(),
	)
	api := r.Group("/api/v1")

	api.POST("/categories", h.CreateCategory)
	api.GET("/categories", h.ListCategories)
	api.GET("/categories/active", h.ListActiveCategories)
	api.GET("/categories/:id", h.GetCategory)
	api.PATCH("/categories/:id", h.UpdateCategory)
	api.DELETE("/categories/:id", h.DeleteCategory)

	api.POST("/projects", h.CreateProject)
	api.GET("/projects", h.ListProjects)
	api.GET("/projects/image/:filename", h.GetProjectImage)
	api.GET("/projects/:id", h.GetProject)
	api.PATCH("/projects/:id", h.UpdateProject)
	api.DELETE("/projects/:id", h.DeleteProject)

	api.POST("/contacts", h.CreateContact)
	api.GET("/contacts", h.ListContacts)
	api.GET("/contacts/unread", h.ListUnreadContacts)
	api.GET("/contacts/stats", h.ContactStats)
	api.GET("/contacts/:id", h.GetContact)
	api.PATCH("/contacts/:id/status", h.UpdateContactStatus)
	api.PATCH("/contacts/:id/read", h.MarkContactRead)
	api.DELETE("/contacts/:id", h.DeleteContact)

	api.POST("/auth/login", h.Login)

	return &testEnv{db: db, store: store, contacts: contacts, router: r}
}

// do sends a request and returns the recorder.
func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return e.do(t, method, target, bytes.NewBufferString(body), h)
}

// ---------- response decoding ----------

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, w.Body.String())
	}
	return env
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error: %v (body=%s)", err, w.Body.String())
	}
	return er
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data=%s)", err, env.Data)
	}
}

// ---------- fixtures ----------

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 24, 12))); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

type filePart struct {
	field, filename, contentType string
	data                         []byte
}

// multipartBody encodes fields and optional files as multipart/form-data.
func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func pngPart(t *testing.T) filePart {
	return filePart{field: imageField, filename: "shot.png", contentType: "image/png", data: pngBytes(t)}
}

// createCategory posts a bilingual category and returns its id.
func (e *testEnv) createCategory(t *testing.T, en, ar string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":{"en":%q,"ar":%q},"description":{"en":"%s desc","ar":"%s وصف"}}`, en, ar, en, ar)
	w := e.doJSON(t, http.MethodPost, "/api/v1/categories", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", w.Code, w.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeData(t, decodeEnvelope(t, w), &out)
	return out.ID
}
