package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	httpapi "github.com/tbourn/go-portfolio-backend/internal/http"
	"github.com/tbourn/go-portfolio-backend/internal/media"
	"github.com/tbourn/go-portfolio-backend/internal/observability"
	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

// openDB connects to the configured engine and brings the schema up to date.
func openDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(repo.Options{
		Driver:  cfg.DB.Driver,
		Path:    cfg.DB.Path,
		DSN:     cfg.DB.DSN,
		Tracing: cfg.OTEL.Enabled,
		Silent:  cfg.LogLevel != "debug",
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newImageStore(cfg config.Config) (*media.Store, error) {
	return media.NewStore(media.Options{
		Dir:          cfg.Uploads.ProjectsDir(),
		PublicPrefix: "/uploads/projects/",
		MaxBytes:     cfg.Uploads.MaxBytes,
		MaxDimension: cfg.Uploads.MaxDimension,
		Quality:      cfg.Uploads.Quality,
	})
}

// newEngine builds the Gin engine with every route registered.
func newEngine(cfg config.Config, db *gorm.DB, images *media.Store) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Images: images}, cfg)
	return r
}

func newHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// serve runs the API until ctx is cancelled, then drains in-flight requests
// for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, cfg.AppVersion)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	images, err := newImageStore(cfg)
	if err != nil {
		return err
	}
	if !cfg.AdminConfigured() {
		log.Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set; admin login is disabled")
	}

	srv := newHTTPServer(cfg, newEngine(cfg, db, images))
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("db_driver", cfg.DB.Driver).
			Str("uploads", images.Dir()).
			Str("version", cfg.AppVersion).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// migrate creates the schema and upgrades legacy plain-string text.
func migrate(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	rep, err := repo.MigrateLegacyText(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate legacy text: %w", err)
	}
	log.Info().
		Int("categories_migrated", rep.Categories.Migrated).
		Int("categories_skipped", rep.Categories.Skipped).
		Int("projects_migrated", rep.Projects.Migrated).
		Int("projects_skipped", rep.Projects.Skipped).
		Msg("legacy text migration complete")
	return nil
}
