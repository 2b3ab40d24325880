package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/AnshRaj112/contacts-backend/internal/config"
)

// NewRootCmd creates the contacts-api command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "contacts-api",
		Short:         "Contacts API server",
		Long:          `REST API for per-user address books with JWT authentication, email confirmation and role based admin endpoints.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// loadConfig reads .env when present, then the environment.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

// newLogger logs text in development and JSON everywhere else.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var h slog.Handler
	if cfg.Environment == "development" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
