package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pokedex-api/internal/config"
	"github.com/phrazzld/pokedex-api/internal/platform/postgres"
)

var errMigrationsNeedPostgres = errors.New("migrations require the postgres database driver")

// handleMigrations runs a goose command against the configured database.
func handleMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Database.Driver != "postgres" {
		return errMigrationsNeedPostgres
	}

	db, err := openPostgres(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database after migrations", "error", err)
		}
	}()

	logger.Info("Executing migrations", "command", command)
	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	logger.Info("Migrations finished", "command", command)
	return nil
}
