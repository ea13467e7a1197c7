package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/platform/logger"
	"github.com/vocabforge/vocab-api/internal/store"
)

const progressColumns = `id, user_id, word_id, strength, total_reviews, correct_reviews,
	consecutive_correct, next_review_date, last_reviewed, created_at, updated_at`

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (*domain.ProgressRecord, error) {
	var (
		record       domain.ProgressRecord
		lastReviewed sql.NullTime
	)
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.WordID,
		&record.Strength,
		&record.TotalReviews,
		&record.CorrectReviews,
		&record.ConsecutiveCorrect,
		&record.NextReviewDate,
		&lastReviewed,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		record.LastReviewed = &t
	}
	return &record, nil
}

// Find implements store.ProgressStore.Find
func (s *PostgresProgressStore) Find(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error) {
	query := `SELECT ` + progressColumns + ` FROM word_progress WHERE user_id = $1 AND word_id = $2`
	return s.find(ctx, query, userID, wordID)
}

// FindForUpdate implements store.ProgressStore.FindForUpdate
func (s *PostgresProgressStore) FindForUpdate(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*domain.ProgressRecord, error) {
	query := `SELECT ` + progressColumns + ` FROM word_progress WHERE user_id = $1 AND word_id = $2 FOR UPDATE`
	return s.find(ctx, query, userID, wordID)
}

func (s *PostgresProgressStore) find(
	ctx context.Context,
	query string,
	userID, wordID uuid.UUID,
) (*domain.ProgressRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	record, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, wordID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("progress record not found",
				slog.String("user_id", userID.String()),
				slog.String("word_id", wordID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress record",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, MapError(err)
	}
	return record, nil
}

// Insert implements store.ProgressStore.Insert
// A concurrent insert for the same pair resolves to exactly one row; the
// loser receives store.ErrDuplicate.
func (s *PostgresProgressStore) Insert(ctx context.Context, record *domain.ProgressRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("progress record validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO word_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, word_id) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.UserID,
		record.WordID,
		record.Strength,
		record.TotalReviews,
		record.CorrectReviews,
		record.ConsecutiveCorrect,
		record.NextReviewDate,
		record.LastReviewed,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("progress record references a missing word",
				slog.String("word_id", record.WordID.String()))
			return fmt.Errorf("%w: %v", store.ErrWordNotFound, err)
		}
		log.Error("failed to insert progress record",
			slog.String("error", err.Error()),
			slog.String("user_id", record.UserID.String()),
			slog.String("word_id", record.WordID.String()))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Debug("progress record already exists",
			slog.String("user_id", record.UserID.String()),
			slog.String("word_id", record.WordID.String()))
		return fmt.Errorf("%w: progress record for word %s", store.ErrDuplicate, record.WordID)
	}

	log.Debug("progress record created",
		slog.String("record_id", record.ID.String()),
		slog.String("word_id", record.WordID.String()))
	return nil
}

// Update implements store.ProgressStore.Update
func (s *PostgresProgressStore) Update(
	ctx context.Context,
	record *domain.ProgressRecord,
	expectedTotalReviews int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("progress record validation failed during update",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE word_progress
		SET strength = $1,
			total_reviews = $2,
			correct_reviews = $3,
			consecutive_correct = $4,
			next_review_date = $5,
			last_reviewed = $6,
			updated_at = $7
		WHERE id = $8 AND total_reviews = $9
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		record.Strength,
		record.TotalReviews,
		record.CorrectReviews,
		record.ConsecutiveCorrect,
		record.NextReviewDate,
		record.LastReviewed,
		record.UpdatedAt,
		record.ID,
		expectedTotalReviews,
	)
	if err != nil {
		log.Error("failed to update progress record",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("progress record changed since it was read",
			slog.String("record_id", record.ID.String()),
			slog.Int("expected_total_reviews", expectedTotalReviews))
		return store.ErrConflict
	}

	log.Debug("progress record updated",
		slog.String("record_id", record.ID.String()),
		slog.Int("strength", record.Strength),
		slog.Time("next_review_date", record.NextReviewDate))
	return nil
}

// QueryDue implements store.ProgressStore.QueryDue
func (s *PostgresProgressStore) QueryDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM word_progress
		WHERE user_id = $1 AND next_review_date <= $2
		ORDER BY next_review_date ASC, word_id ASC
		LIMIT $3
	`
	return s.query(ctx, "due", query, userID, now, limit)
}

// QueryAll implements store.ProgressStore.QueryAll
func (s *PostgresProgressStore) QueryAll(ctx context.Context, userID uuid.UUID) ([]*domain.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM word_progress
		WHERE user_id = $1
		ORDER BY created_at ASC, word_id ASC
	`
	return s.query(ctx, "all", query, userID)
}

func (s *PostgresProgressStore) query(
	ctx context.Context,
	kind string,
	query string,
	args ...any,
) ([]*domain.ProgressRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query progress records",
			slog.String("error", err.Error()),
			slog.String("query", kind))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	records := []*domain.ProgressRecord{}
	for rows.Next() {
		record, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress record",
				slog.String("error", err.Error()),
				slog.String("query", kind))
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating progress rows",
			slog.String("error", err.Error()),
			slog.String("query", kind))
		return nil, err
	}

	log.Debug("progress records retrieved",
		slog.String("query", kind),
		slog.Int("count", len(records)))
	return records, nil
}

// CountDue implements store.ProgressStore.CountDue
func (s *PostgresProgressStore) CountDue(
	ctx context.Context,
	userID uuid.UUID,
	now, dayStart time.Time,
) (store.DueCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE next_review_date <= $2),
			COUNT(*) FILTER (WHERE next_review_date < $3)
		FROM word_progress
		WHERE user_id = $1
	`
	var counts store.DueCounts
	if err := s.db.QueryRowContext(ctx, query, userID, now, dayStart).Scan(&counts.Due, &counts.Overdue); err != nil {
		log.Error("failed to count due records",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return store.DueCounts{}, MapError(err)
	}
	return counts, nil
}

// LogEvent implements store.ProgressStore.LogEvent
func (s *PostgresProgressStore) LogEvent(ctx context.Context, event *domain.ReviewEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO review_events (
			id, user_id, word_id, is_correct, quiz_type, response_time_ms,
			strength_before, strength_after, reviewed_at, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.UserID,
		event.WordID,
		event.IsCorrect,
		string(event.QuizType),
		event.ResponseTimeMs,
		event.StrengthBefore,
		event.StrengthAfter,
		event.ReviewedAt,
		event.IdempotencyKey,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Info("review event already recorded for idempotency key",
				slog.String("user_id", event.UserID.String()))
			return fmt.Errorf("%w: review event: %v", store.ErrDuplicate, err)
		}
		log.Error("failed to log review event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return MapError(err)
	}
	return nil
}

// QueryEvents implements store.ProgressStore.QueryEvents
func (s *PostgresProgressStore) QueryEvents(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM review_events WHERE user_id = $1 AND reviewed_at >= $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		log.Error("failed to count review events",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// FindEventByKey implements store.ProgressStore.FindEventByKey
func (s *PostgresProgressStore) FindEventByKey(
	ctx context.Context,
	userID uuid.UUID,
	key string,
) (*domain.ReviewEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, word_id, is_correct, quiz_type, response_time_ms,
			strength_before, strength_after, reviewed_at, idempotency_key
		FROM review_events
		WHERE user_id = $1 AND idempotency_key = $2
	`
	var (
		event        domain.ReviewEvent
		quizType     string
		responseTime sql.NullInt32
		storedKey    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID, key).Scan(
		&event.ID,
		&event.UserID,
		&event.WordID,
		&event.IsCorrect,
		&quizType,
		&responseTime,
		&event.StrengthBefore,
		&event.StrengthAfter,
		&event.ReviewedAt,
		&storedKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewEventNotFound
		}
		log.Error("failed to get review event by key",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	event.QuizType = domain.QuizType(quizType)
	if responseTime.Valid {
		ms := int(responseTime.Int32)
		event.ResponseTimeMs = &ms
	}
	if storedKey.Valid {
		k := storedKey.String
		event.IdempotencyKey = &k
	}
	return &event, nil
}

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
