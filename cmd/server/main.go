// Package main implements the entry point for the Pokedex API server, a
// REST service for curating a shared collection of Pokemon documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml if present)")
	migrateCmd := flag.String("migrate", "", "run a database migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(context.Background(), *configPath, *migrateCmd); err != nil {
		log.Fatalf("pokedex-api: %v", err)
	}
}

// run loads configuration and either executes a migration command or serves
// HTTP until a shutdown signal arrives.
func run(ctx context.Context, configPath, migrateCmd string) error {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		return handleMigrations(ctx, cfg, migrateCmd, logger)
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	slog.Info("Pokedex API initialized",
		"database_driver", cfg.Database.Driver,
		"metrics_enabled", cfg.Server.MetricsEnabled)

	return app.startHTTPServer(ctx, app.setupRouter())
}
