//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"
	"github.com/vocabforge/vocab-api/internal/platform/postgres"
)

// DatabaseURLEnv names the variable holding the test database URL.
const DatabaseURLEnv = "VOCAB_TEST_DATABASE_URL"

// Timeout bounds individual test database operations.
const Timeout = 10 * time.Second

var migrateOnce sync.Once

// DatabaseURL returns the test database URL, or "" when none is configured.
func DatabaseURL() string {
	return os.Getenv(DatabaseURLEnv)
}

// Open connects to the test database and applies migrations once per test
// binary. The test is skipped when no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := DatabaseURL()
	if dbURL == "" {
		t.Skipf("%s not set, skipping database test", DatabaseURLEnv)
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "failed to ping test database")

	var migrateErr error
	migrateOnce.Do(func() {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		migrateErr = postgres.RunMigrations(ctx, db, quiet, "up")
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// leave no rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// InsertWord adds a word row owned by userID and returns its ID.
func InsertWord(t *testing.T, tx *sql.Tx, userID uuid.UUID, text string, difficulty *string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := tx.Exec(
		`INSERT INTO words (id, user_id, word, definitions, difficulty_level)
		 VALUES ($1, $2, $3, '[{"part_of_speech":"noun","definition":"a test word"}]', $4)`,
		id, userID, text, difficulty,
	)
	require.NoError(t, err, "failed to insert word")
	return id
}
