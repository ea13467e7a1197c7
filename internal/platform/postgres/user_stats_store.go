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

// statColumns whitelists the counters that IncrementStat may touch.
var statColumns = map[domain.UserStat]string{
	domain.StatTotalQuizzesTaken: "total_quizzes_taken",
}

// PostgresUserStatsStore implements the store.UserStatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStatsStore creates a new PostgreSQL implementation of the UserStatsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStatsStore(db store.DBTX, logger *slog.Logger) *PostgresUserStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_stats_store")),
	}
}

// Ensure PostgresUserStatsStore implements store.UserStatsStore interface
var _ store.UserStatsStore = (*PostgresUserStatsStore)(nil)

// dateOnly truncates t to its calendar date in t's own location, returned as UTC midnight.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IncrementStat implements store.UserStatsStore.IncrementStat
func (s *PostgresUserStatsStore) IncrementStat(
	ctx context.Context,
	userID uuid.UUID,
	stat domain.UserStat,
	delta int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	column, ok := statColumns[stat]
	if !ok {
		return fmt.Errorf("%w: unknown user stat %q", store.ErrInvalidEntity, stat)
	}

	// column comes from the whitelist above, never from input.
	query := fmt.Sprintf(`
		INSERT INTO user_stats (user_id, %[1]s, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET %[1]s = user_stats.%[1]s + EXCLUDED.%[1]s,
			updated_at = EXCLUDED.updated_at
	`, column)

	if _, err := s.db.ExecContext(ctx, query, userID, delta, time.Now().UTC()); err != nil {
		log.Error("failed to increment user stat",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("stat", string(stat)))
		return MapError(err)
	}

	log.Debug("user stat incremented",
		slog.String("user_id", userID.String()),
		slog.String("stat", string(stat)),
		slog.Int("delta", delta))
	return nil
}

// RecordStudyDay implements store.UserStatsStore.RecordStudyDay
// Recording the same day twice is a no-op; a day older than the last study
// day does not move the streak.
func (s *PostgresUserStatsStore) RecordStudyDay(ctx context.Context, userID uuid.UUID, day time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO user_stats (user_id, current_streak, longest_streak, last_study_date, updated_at)
		VALUES ($1, 1, 1, $2::date, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET current_streak = CASE
				WHEN user_stats.last_study_date >= EXCLUDED.last_study_date THEN user_stats.current_streak
				WHEN user_stats.last_study_date = EXCLUDED.last_study_date - 1 THEN user_stats.current_streak + 1
				ELSE 1
			END,
			longest_streak = GREATEST(user_stats.longest_streak, CASE
				WHEN user_stats.last_study_date >= EXCLUDED.last_study_date THEN user_stats.current_streak
				WHEN user_stats.last_study_date = EXCLUDED.last_study_date - 1 THEN user_stats.current_streak + 1
				ELSE 1
			END),
			last_study_date = GREATEST(user_stats.last_study_date, EXCLUDED.last_study_date),
			updated_at = EXCLUDED.updated_at
	`
	studyDay := dateOnly(day)
	if _, err := s.db.ExecContext(ctx, query, userID, studyDay, time.Now().UTC()); err != nil {
		log.Error("failed to record study day",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	log.Debug("study day recorded",
		slog.String("user_id", userID.String()),
		slog.String("day", studyDay.Format(time.DateOnly)))
	return nil
}

// GetStreakInfo implements store.UserStatsStore.GetStreakInfo
func (s *PostgresUserStatsStore) GetStreakInfo(
	ctx context.Context,
	userID uuid.UUID,
	today time.Time,
) (domain.StreakInfo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			CASE WHEN last_study_date >= $2::date - 1 THEN current_streak ELSE 0 END,
			longest_streak
		FROM user_stats
		WHERE user_id = $1
	`
	var info domain.StreakInfo
	err := s.db.QueryRowContext(ctx, query, userID, dateOnly(today)).Scan(&info.Current, &info.Longest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StreakInfo{}, nil
		}
		log.Error("failed to get streak info",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.StreakInfo{}, MapError(err)
	}
	return info, nil
}

// ExpireStreaks implements store.UserStatsStore.ExpireStreaks
func (s *PostgresUserStatsStore) ExpireStreaks(ctx context.Context, today time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE user_stats
		SET current_streak = 0, updated_at = $2
		WHERE current_streak > 0 AND last_study_date < $1::date - 1
	`
	result, err := s.db.ExecContext(ctx, query, dateOnly(today), time.Now().UTC())
	if err != nil {
		log.Error("failed to expire streaks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}
	log.Info("expired stale streaks", slog.Int64("count", n))
	return n, nil
}
