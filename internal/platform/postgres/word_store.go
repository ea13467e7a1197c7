package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/platform/logger"
	"github.com/vocabforge/vocab-api/internal/store"
)

// PostgresWordStore implements the store.WordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWordStore creates a new PostgreSQL implementation of the WordStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresWordStore(db store.DBTX, logger *slog.Logger) *PostgresWordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWordStore{
		db:     db,
		logger: logger.With(slog.String("component", "word_store")),
	}
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// GetDifficulty implements store.WordStore.GetDifficulty
func (s *PostgresWordStore) GetDifficulty(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*domain.Difficulty, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT difficulty_level FROM words WHERE id = $1 AND user_id = $2`

	var level sql.NullString
	if err := s.db.QueryRowContext(ctx, query, wordID, userID).Scan(&level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("word not found", slog.String("word_id", wordID.String()))
			return nil, store.ErrWordNotFound
		}
		log.Error("failed to get word difficulty",
			slog.String("error", err.Error()),
			slog.String("word_id", wordID.String()))
		return nil, MapError(err)
	}

	if !level.Valid || level.String == "" {
		return nil, nil
	}
	difficulty := domain.Difficulty(level.String)
	return &difficulty, nil
}

// GetWordSummary implements store.WordStore.GetWordSummary
func (s *PostgresWordStore) GetWordSummary(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*domain.WordSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, word, definitions, phonetics, synonyms, antonyms, user_notes
		FROM words
		WHERE id = $1 AND user_id = $2
	`

	var (
		summary                                    domain.WordSummary
		definitions, phonetics, synonyms, antonyms []byte
		notes                                      sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, wordID, userID).Scan(
		&summary.ID,
		&summary.Text,
		&definitions,
		&phonetics,
		&synonyms,
		&antonyms,
		&notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("word not found", slog.String("word_id", wordID.String()))
			return nil, store.ErrWordNotFound
		}
		log.Error("failed to get word summary",
			slog.String("error", err.Error()),
			slog.String("word_id", wordID.String()))
		return nil, MapError(err)
	}

	fields := []struct {
		name string
		raw  []byte
		dest any
	}{
		{"definitions", definitions, &summary.Definitions},
		{"phonetics", phonetics, &summary.Phonetics},
		{"synonyms", synonyms, &summary.Synonyms},
		{"antonyms", antonyms, &summary.Antonyms},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			log.Error("failed to decode word field",
				slog.String("error", err.Error()),
				slog.String("field", f.name),
				slog.String("word_id", wordID.String()))
			return nil, fmt.Errorf("decode %s of word %s: %w", f.name, wordID, err)
		}
	}
	if notes.Valid {
		n := notes.String
		summary.UserNotes = &n
	}

	return &summary, nil
}

// CountUnreviewed implements store.WordStore.CountUnreviewed
func (s *PostgresWordStore) CountUnreviewed(ctx context.Context, userID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM words w
		WHERE w.user_id = $1
			AND NOT EXISTS (
				SELECT 1 FROM word_progress p
				WHERE p.word_id = w.id AND p.user_id = $1
			)
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		log.Error("failed to count unreviewed words",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return count, nil
}
