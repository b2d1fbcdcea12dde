// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, uploads, admin credentials, rate
// limiting, and observability.
//
// Values are parsed with caarlos0/env from struct tags. A .env file, when
// present, is loaded by the caller before Load (see cmd/portfolio).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DBConfig selects the storage engine.
type DBConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`       // sqlite|postgres
	Path   string `env:"DB_PATH" envDefault:"portfolio.db"`   // SQLite file
	DSN    string `env:"DB_DSN"`                              // PostgreSQL connection string
}

// UploadConfig defines where project images live and how they are processed.
type UploadConfig struct {
	Folder       string `env:"UPLOAD_FOLDER" envDefault:"uploads"`
	MaxBytes     int64  `env:"UPLOAD_MAX_BYTES" envDefault:"52428800"` // 50 MiB per file
	MaxDimension int    `env:"IMAGE_MAX_DIMENSION" envDefault:"800"`
	Quality      int    `env:"IMAGE_QUALITY" envDefault:"80"`
}

// ProjectsDir is the directory holding project images.
func (u UploadConfig) ProjectsDir() string { return filepath.Join(u.Folder, "projects") }

// AdminConfig holds the single admin account. Login is refused while either
// value is empty.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// CORSConfig defines Cross-Origin Resource Sharing settings. An empty list
// allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ORIGIN" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"` // 180 days
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"` // true if no TLS
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"go-portfolio-backend"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"` // [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"3000"` // just the number
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"` // uploads are slow
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"` // non-multipart bodies
	GinMode           string        `env:"GIN_MODE" envDefault:"release"`       // debug|release|test
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error|fatal|panic
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH" envDefault:"/api/v1"`
	AppVersion     string `env:"APP_VERSION" envDefault:"dev"`

	// Storage
	DB      DBConfig
	Uploads UploadConfig

	// Domain
	Admin                  AdminConfig
	ContactDuplicateWindow time.Duration `env:"CONTACT_DUPLICATE_WINDOW" envDefault:"24h"`

	// Rate limiting
	RateRPS        float64 `env:"RATE_RPS" envDefault:"5"`
	RateBurst      int     `env:"RATE_BURST" envDefault:"10"`
	LoginRateRPS   float64 `env:"LOGIN_RATE_RPS" envDefault:"0.2"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST" envDefault:"5"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	return cfg, cfg.validate()
}

func (cfg *Config) normalize() {
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}
	cfg.Admin.Email = strings.TrimSpace(cfg.Admin.Email)
	cfg.CORS.AllowedOrigins = cleanList(cfg.CORS.AllowedOrigins)
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}

	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}

	if strings.TrimSpace(cfg.Uploads.Folder) == "" {
		return errors.New("UPLOAD_FOLDER must not be empty")
	}
	if cfg.Uploads.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be > 0")
	}
	if cfg.Uploads.MaxDimension <= 0 {
		return errors.New("IMAGE_MAX_DIMENSION must be > 0")
	}
	if cfg.Uploads.Quality < 1 || cfg.Uploads.Quality > 100 {
		return errors.New("IMAGE_QUALITY must be between 1 and 100")
	}
	if cfg.ContactDuplicateWindow <= 0 {
		return errors.New("CONTACT_DUPLICATE_WINDOW must be > 0")
	}

	if cfg.RateRPS < 0 || cfg.LoginRateRPS < 0 {
		return errors.New("RATE_RPS and LOGIN_RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 || cfg.LoginRateBurst < 1 {
		return errors.New("RATE_BURST and LOGIN_RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// AdminConfigured reports whether admin login can succeed at all.
func (cfg Config) AdminConfigured() bool {
	return cfg.Admin.Email != "" && cfg.Admin.Password != ""
}

// Addr is the listen address for the HTTP server.
func (cfg Config) Addr() string { return ":" + strings.TrimPrefix(cfg.Port, ":") }

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
