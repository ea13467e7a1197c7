package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/vocabforge/vocab-api/internal/platform/postgres"
	"github.com/vocabforge/vocab-api/internal/store"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "word_progress",
		ColumnName:     "word_id",
		ConstraintName: "word_progress_user_word_key",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	generic := errors.New("connection refused")

	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), wantIs: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), wantIs: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), wantIs: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), wantIs: store.ErrInvalidEntity},
		{name: "wrapped unique violation", err: fmt.Errorf("exec: %w", newPgError("23505")), wantIs: store.ErrDuplicate},
		{name: "unmapped error", err: generic, wantIs: generic},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := postgres.MapError(tc.err)
			if tc.wantNil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.wantIs)
		})
	}
}

func TestViolationHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(nil))
	assert.True(t, postgres.IsForeignKeyViolation(fmt.Errorf("wrapped: %w", newPgError("23503"))))
	assert.False(t, postgres.IsForeignKeyViolation(errors.New("generic")))
}
