package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/pokedex-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

var (
	shared     *sql.DB
	sharedErr  error
	sharedOnce sync.Once

	// container is set when open started a throwaway Postgres.
	container *tcpostgres.PostgresContainer
)

// GetTestDatabaseURL returns DATABASE_URL, falling back to POKEDEX_TEST_DB_URL.
func GetTestDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("POKEDEX_TEST_DB_URL")
}

// GetTestDB returns a migrated database shared by every test in the package
// binary. A started container lives until Close is called.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sharedOnce.Do(func() {
		shared, sharedErr = open()
	})
	require.NoError(t, sharedErr, "failed to prepare test database")
	return shared
}

func open() (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url := GetTestDatabaseURL()
	if url == "" {
		c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("pokedex_test"),
			tcpostgres.WithUsername("pokedex"),
			tcpostgres.WithPassword("pokedex"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			return nil, errors.Join(err, testcontainers.TerminateContainer(c))
		}
		container = c
		url, err = c.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if err := postgres.Migrate(ctx, db, "up", nil); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return db, nil
}

// Close releases the shared database and terminates the container if one was
// started. Call it from TestMain after m.Run.
func Close() error {
	var errs []error
	if shared != nil {
		errs = append(errs, shared.Close())
	}
	if container != nil {
		errs = append(errs, testcontainers.TerminateContainer(container))
	}
	return errors.Join(errs...)
}
