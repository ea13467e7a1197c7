//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/platform/postgres"
	"github.com/vocabforge/vocab-api/internal/store"
	"github.com/vocabforge/vocab-api/internal/testdb"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIntegration_ProgressLifecycle(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		userID := uuid.New()
		hard := "hard"
		wordID := testdb.InsertWord(t, tx, userID, "obfuscate", &hard)

		words := postgres.NewPostgresWordStore(tx, quietLogger())
		progress := postgres.NewPostgresProgressStore(tx, quietLogger())

		difficulty, err := words.GetDifficulty(ctx, userID, wordID)
		require.NoError(t, err)
		require.NotNil(t, difficulty)
		assert.Equal(t, domain.DifficultyHard, *difficulty)

		_, err = words.GetDifficulty(ctx, uuid.New(), wordID)
		assert.ErrorIs(t, err, store.ErrWordNotFound, "another user's word reads as missing")

		unreviewed, err := words.CountUnreviewed(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, unreviewed)

		record, err := domain.NewProgressRecord(userID, wordID, now.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, progress.Insert(ctx, record))

		dup, err := domain.NewProgressRecord(userID, wordID, now)
		require.NoError(t, err)
		assert.ErrorIs(t, progress.Insert(ctx, dup), store.ErrDuplicate)

		locked, err := progress.FindForUpdate(ctx, userID, wordID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, locked.ID)

		updated := locked.WithReview(true, 1, now.Add(24*time.Hour), now)
		require.NoError(t, progress.Update(ctx, updated, locked.TotalReviews))
		assert.ErrorIs(t, progress.Update(ctx, updated, locked.TotalReviews), store.ErrConflict,
			"a stale expected count must not overwrite")

		found, err := progress.Find(ctx, userID, wordID)
		require.NoError(t, err)
		assert.Equal(t, 1, found.Strength)
		assert.Equal(t, 1, found.TotalReviews)
		assert.Equal(t, 1, found.ConsecutiveCorrect)

		due, err := progress.QueryDue(ctx, userID, now, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		counts, err := progress.CountDue(ctx, userID, now.Add(48*time.Hour), now)
		require.NoError(t, err)
		assert.Equal(t, 1, counts.Due)

		key := "review-1"
		ms := 900
		event := domain.NewReviewEvent(locked, updated, true, domain.QuizTypeFillBlank, &ms, &key, now)
		require.NoError(t, progress.LogEvent(ctx, event))

		stored, err := progress.FindEventByKey(ctx, userID, key)
		require.NoError(t, err)
		assert.Equal(t, event.ID, stored.ID)
		assert.Equal(t, domain.QuizTypeFillBlank, stored.QuizType)
		require.NotNil(t, stored.ResponseTimeMs)
		assert.Equal(t, 900, *stored.ResponseTimeMs)

		total, err := progress.QueryEvents(ctx, userID, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		// Runs last: the unique violation aborts the transaction.
		again := domain.NewReviewEvent(locked, updated, true, domain.QuizTypeFillBlank, nil, &key, now)
		assert.ErrorIs(t, progress.LogEvent(ctx, again), store.ErrDuplicate)
	})
}

func TestIntegration_ProgressRequiresWord(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		progress := postgres.NewPostgresProgressStore(tx, quietLogger())

		record, err := domain.NewProgressRecord(uuid.New(), uuid.New(), time.Now())
		require.NoError(t, err)
		assert.ErrorIs(t, progress.Insert(context.Background(), record), store.ErrWordNotFound)
	})
}

func TestIntegration_UserStatsStreak(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		stats := postgres.NewPostgresUserStatsStore(tx, quietLogger())
		userID := uuid.New()

		require.NoError(t, stats.IncrementStat(ctx, userID, domain.StatTotalQuizzesTaken, 1))
		require.NoError(t, stats.RecordStudyDay(ctx, userID, day))
		require.NoError(t, stats.RecordStudyDay(ctx, userID, day.AddDate(0, 0, 1)))
		require.NoError(t, stats.RecordStudyDay(ctx, userID, day.AddDate(0, 0, 1)))

		info, err := stats.GetStreakInfo(ctx, userID, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, domain.StreakInfo{Current: 2, Longest: 2}, info)

		info, err = stats.GetStreakInfo(ctx, userID, day.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, 0, info.Current, "a lapsed streak reads as zero")
		assert.Equal(t, 2, info.Longest)

		expired, err := stats.ExpireStreaks(ctx, day.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, expired, int64(1))
	})
}
