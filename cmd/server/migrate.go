package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/AnshRaj112/contacts-backend/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending PostgreSQL migrations and exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	logger.Info("migrations completed")
	return nil
}
