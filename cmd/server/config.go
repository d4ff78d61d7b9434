package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/pokedex-api/internal/config"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
)

// loadAppConfig loads the application configuration from the environment and
// an optional config file.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger configures the default slog logger from the server config
// and logs a summary of the loaded configuration.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver)
	l.Debug("Auth configuration",
		"jwt_secret_present", cfg.Auth.JWTSecret != "",
		"admin_emails", len(cfg.Auth.AdminEmails))

	return l, nil
}
