package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/orgball2608/channel-archiver/internal/migrations"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
)

// Migrate applies every pending migration to the configured database.
func Migrate(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Applying migrations", "host", cfg.Postgres.Host, "database", cfg.Postgres.Name)
	if err := migrations.Run(ctx, db, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
