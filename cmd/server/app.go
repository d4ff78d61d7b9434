package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pokedex-api/internal/api/middleware"
	"github.com/phrazzld/pokedex-api/internal/config"
	"github.com/phrazzld/pokedex-api/internal/platform/memory"
	"github.com/phrazzld/pokedex-api/internal/platform/postgres"
	"github.com/phrazzld/pokedex-api/internal/service"
	"github.com/phrazzld/pokedex-api/internal/service/auth"
	"github.com/phrazzld/pokedex-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB // nil with the memory driver

	pokemonStore store.PokemonStore
	userStore    store.UserStore

	jwtService     auth.JWTService
	pokemonService service.PokemonService
	userService    service.UserService

	metrics *middleware.Metrics // nil when metrics are disabled
}

// newApplication wires stores, services and metrics. db must be non-nil for
// the postgres driver and is ignored otherwise.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	switch cfg.Database.Driver {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres driver selected but no database connection provided")
		}
		app.pokemonStore = postgres.NewPostgresPokemonStore(db, logger)
		app.userStore = postgres.NewPostgresUserStore(db, logger)
	case "memory":
		app.pokemonStore = memory.NewPokemonStore()
		app.userStore = memory.NewUserStore()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.pokemonService, err = service.NewPokemonService(app.pokemonStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pokemon service: %w", err)
	}
	app.userService = service.NewUserService(
		app.userStore,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		cfg.Auth.AdminEmails,
		logger,
	)

	if cfg.Server.MetricsEnabled {
		app.metrics = middleware.NewMetrics()
	}

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database connection", "error", err)
		return
	}
	app.logger.Info("Database connection closed")
}
