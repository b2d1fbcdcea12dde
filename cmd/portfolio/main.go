// Command portfolio runs the portfolio admin API.
//
//	portfolio serve     start the HTTP server
//	portfolio migrate   create the schema and upgrade legacy single-language text
//
// Configuration comes from the environment; a .env file is read first when
// present.
//
//	@title			Portfolio Admin API
//	@version		1.0
//	@description	Bilingual (en/ar) portfolio backend: categories, projects with images, contact requests and admin login.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-portfolio-backend/internal/config"
	"github.com/tbourn/go-portfolio-backend/internal/sysutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "portfolio: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by subcommands once the root pre-run has loaded it.
type app struct {
	envFile string
	cfg     config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
	)
	return cmd
}

// load reads the dotenv file (if any), then the configuration, then sets up
// the global logger.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	log.Debug().Str("env_file", a.envFile).Msg("configuration loaded")
	return nil
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), a.cfg)
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and convert legacy single-language text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context(), a.cfg)
		},
	}
}
