package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
)

// UserStatsStore persists the per-user aggregate counters and study streak.
// Rows are created on first write.
type UserStatsStore interface {
	// IncrementStat adds delta to the named counter.
	// Returns ErrInvalidEntity for an unknown stat.
	IncrementStat(ctx context.Context, userID uuid.UUID, stat domain.UserStat, delta int) error

	// RecordStudyDay marks day (a calendar date) as studied, extending the
	// streak when the previous study day was the day before.
	RecordStudyDay(ctx context.Context, userID uuid.UUID, day time.Time) error

	// GetStreakInfo returns the streak as of today. A streak whose last study
	// day is before yesterday reads as zero. Users without stats get zeros.
	GetStreakInfo(ctx context.Context, userID uuid.UUID, today time.Time) (domain.StreakInfo, error)

	// ExpireStreaks resets current streaks whose last study day is before
	// yesterday and returns how many were reset.
	ExpireStreaks(ctx context.Context, today time.Time) (int64, error)
}
