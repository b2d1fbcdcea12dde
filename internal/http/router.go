// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, idempotency, and rate limiting.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/docs"
	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/http/handlers"
	"github.com/tbourn/go-portfolio-backend/internal/http/middleware"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/services"
)

// multipartSlack is added to the per-file upload cap to leave room for the
// other form fields and part headers.
const multipartSlack = 1 << 20

// Deps carries the storage handles the router builds services on.
type Deps struct {
	DB     *gorm.DB
	Images *media.Store
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the portfolio API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (JSON vs multipart caps)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per IP, bypass on replay)
//  9. CORS and Security headers
//  10. Compression and request language
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	categories := services.NewCategoryService(d.DB)
	projects := services.NewProjectService(d.DB, d.Images)
	contacts := services.NewContactService(d.DB)
	contacts.Window = cfg.ContactDuplicateWindow
	idem := services.NewIdempotencyService(d.DB, cfg.IdempotencyTTL)
	auth := services.NewAuthService(cfg.Admin.Email, cfg.Admin.Password)

	apiBase := cfg.APIBasePath
	imageRoute := strings.TrimSuffix(apiBase, "/") + "/projects/image/"

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limits
	r.Use(limitBody(cfg.MaxBodyBytes, cfg.Uploads.MaxBytes+multipartSlack))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Exists))

	// 8) Token-bucket rate limiter per IP; RATE_RPS=0 disables it
	if cfg.RateRPS > 0 {
		rl := middleware.NewRateLimiter("api", cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
		r.Use(rl.Handler())
	}

	// 9) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		NoStore:           true,
		CacheablePrefixes: []string{"/uploads/", imageRoute},
		EnablePolicy:      true,
	}))

	// 10) Compress JSON; images are already compressed
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/uploads/", "/metrics", imageRoute}),
	))
	r.Use(middleware.Language())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"status":    "ok",
			"version":   cfg.AppVersion,
			"timestamp": time.Now().UTC(),
		})
	})

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		docs.SwaggerInfo.Version = cfg.AppVersion
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Uploaded images, served as files
	r.Static("/uploads", cfg.Uploads.Folder)

	h := handlers.New(handlers.Deps{
		Categories:     categories,
		Projects:       projects,
		Contacts:       contacts,
		Auth:           auth,
		Idempotency:    idem,
		Images:         d.Images,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	})

	api := groupWithPrefix(r, apiBase)
	{
		// Categories
		api.POST("/categories", h.CreateCategory)
		api.GET("/categories", h.ListCategories)
		api.GET("/categories/active", h.ListActiveCategories)
		api.GET("/categories/:id", h.GetCategory)
		api.PATCH("/categories/:id", h.UpdateCategory)
		api.DELETE("/categories/:id", h.DeleteCategory)

		// Projects
		api.POST("/projects", h.CreateProject)
		api.GET("/projects", h.ListProjects)
		api.GET("/projects/image/:filename", h.GetProjectImage)
		api.GET("/projects/:id", h.GetProject)
		api.PATCH("/projects/:id", h.UpdateProject)
		api.DELETE("/projects/:id", h.DeleteProject)

		// Contact requests
		api.POST("/contacts", h.CreateContact)
		api.GET("/contacts", h.ListContacts)
		api.GET("/contacts/unread", h.ListUnreadContacts)
		api.GET("/contacts/stats", h.ContactStats)
		api.GET("/contacts/:id", h.GetContact)
		api.PATCH("/contacts/:id/status", h.UpdateContactStatus)
		api.PATCH("/contacts/:id/read", h.MarkContactRead)
		api.DELETE("/contacts/:id", h.DeleteContact)

		// Admin login gets its own, stricter bucket
		login := []gin.HandlerFunc{}
		if cfg.LoginRateRPS > 0 {
			login = append(login, middleware.NewRateLimiter(
				"login", cfg.LoginRateRPS, cfg.LoginRateBurst, middleware.KeyByIPWithPrefix("login"),
			).Handler())
		}
		api.POST("/auth/login", append(login, h.Login)...)
	}
}

// corsMiddleware allows every origin when none are configured and otherwise
// only the listed ones.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps request bodies with http.MaxBytesReader: multipart uploads
// get multipartMax, everything else jsonMax. Reads past the cap fail with
// *http.MaxBytesError.
func limitBody(jsonMax, multipartMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := jsonMax
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = multipartMax
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
