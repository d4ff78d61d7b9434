package main

import (
	"testing"

	"github.com/phrazzld/pokedex-api/internal/config"
	"github.com/phrazzld/pokedex-api/internal/platform/logger"
	"github.com/phrazzld/pokedex-api/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminEmail = "oak@pallet.town"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "debug",
			MetricsEnabled:         true,
			ShutdownTimeoutSeconds: 1,
		},
		Database: config.DatabaseConfig{Driver: "memory"},
		Auth: config.AuthConfig{
			JWTSecret:                   "test-secret-that-is-at-least-32-characters",
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
			BCryptCost:                  4,
			AdminEmails:                 []string{testAdminEmail},
		},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	l, _ := logger.NewTestLogger()
	app, err := newApplication(cfg, l, nil)
	require.NoError(t, err)
	return app
}

func TestNewApplication_MemoryDriver(t *testing.T) {
	app := newTestApplication(t, testConfig())

	assert.IsType(t, &memory.PokemonStore{}, app.pokemonStore)
	assert.IsType(t, &memory.UserStore{}, app.userStore)
	assert.NotNil(t, app.jwtService)
	assert.NotNil(t, app.pokemonService)
	assert.NotNil(t, app.userService)
	assert.NotNil(t, app.metrics)

	// No database to close.
	app.cleanup()
}

func TestNewApplication_Errors(t *testing.T) {
	l, _ := logger.NewTestLogger()

	t.Run("postgres without connection", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = "postgres"
		_, err := newApplication(cfg, l, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no database connection")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Driver = "mongodb"
		_, err := newApplication(cfg, l, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.JWTSecret = "too-short"
		_, err := newApplication(cfg, l, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT service")
	})
}

func TestNewApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MetricsEnabled = false

	app := newTestApplication(t, cfg)
	assert.Nil(t, app.metrics)
}
