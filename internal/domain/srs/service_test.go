package srs

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabforge/vocab-api/internal/domain"
)

func fixedRandom(v float64) RandomSource {
	return func() float64 { return v }
}

func TestNextReview(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	svc := NewDefaultService(WithRandomSource(fixedRandom(0.5)))

	testCases := []struct {
		name         string
		input        ReviewInput
		wantStrength int
		wantDays     float64
	}{
		{
			name:         "first correct review of a new word",
			input:        ReviewInput{CurrentStrength: 0, IsCorrect: true},
			wantStrength: 1,
			wantDays:     2,
		},
		{
			name:         "incorrect from strength 4 ignores the streak",
			input:        ReviewInput{CurrentStrength: 4, IsCorrect: false, ConsecutiveCorrect: 3},
			wantStrength: 2,
			wantDays:     4,
		},
		{
			name:         "correct hard word with streak",
			input:        ReviewInput{CurrentStrength: 2, IsCorrect: true, ConsecutiveCorrect: 2, Difficulty: difficultyPtr(domain.DifficultyHard)},
			wantStrength: 3,
			wantDays:     8 * 0.8 * 1.2,
		},
		{
			name:         "mastered stays mastered",
			input:        ReviewInput{CurrentStrength: 6, IsCorrect: true},
			wantStrength: 6,
			wantDays:     64,
		},
		{
			name:         "unknown difficulty uses default multiplier",
			input:        ReviewInput{CurrentStrength: 1, IsCorrect: true, Difficulty: difficultyPtr("expert")},
			wantStrength: 2,
			wantDays:     4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := svc.NextReview(tc.input, now)

			assert.Equal(t, tc.wantStrength, result.Strength)
			assert.InDelta(t, tc.wantDays, result.IntervalDays, 1e-6)
			assert.WithinDuration(t, now.Add(daysToDuration(tc.wantDays)), result.NextReviewAt, time.Second)
		})
	}
}

func TestNextReviewJitterBounds(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	low := NewDefaultService(WithRandomSource(fixedRandom(0))).
		NextReview(ReviewInput{CurrentStrength: 3, IsCorrect: true}, now)
	assert.InDelta(t, 16*0.8, low.IntervalDays, 1e-6)

	high := NewDefaultService(WithRandomSource(fixedRandom(0.999999))).
		NextReview(ReviewInput{CurrentStrength: 3, IsCorrect: true}, now)
	assert.InDelta(t, 16*1.2, high.IntervalDays, 1e-3)

	rng := rand.New(rand.NewSource(42))
	svc := NewDefaultService(WithRandomSource(rng.Float64))
	for i := 0; i < 500; i++ {
		strength := i % (domain.MaxStrength + 1)
		result := svc.NextReview(ReviewInput{CurrentStrength: strength, IsCorrect: i%3 != 0, ConsecutiveCorrect: i % 4}, now)

		base := NewDefaultParams().BaseIntervalDays[result.Strength]
		bonus := 1.0
		if i%3 != 0 {
			bonus = 1 + 0.1*float64(i%4)
		}
		assert.GreaterOrEqual(t, result.IntervalDays, base*bonus*0.8-1e-9)
		assert.LessOrEqual(t, result.IntervalDays, base*bonus*1.2+1e-9)
		assert.True(t, result.NextReviewAt.After(now))
	}
}

func TestNextReviewSequence(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	svc := NewDefaultService(WithRandomSource(fixedRandom(0.5)))

	strength, streak := 0, 0
	for _, want := range []int{1, 2, 3} {
		result := svc.NextReview(ReviewInput{CurrentStrength: strength, IsCorrect: true, ConsecutiveCorrect: streak}, now)
		require.Equal(t, want, result.Strength)
		strength = result.Strength
		streak++
	}
}

func TestNextReviewLongStreakStaysInFuture(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	svc := NewDefaultService(WithRandomSource(fixedRandom(0.999)))
	easy := domain.DifficultyEasy

	result := svc.NextReview(ReviewInput{
		CurrentStrength:    domain.MaxStrength,
		IsCorrect:          true,
		Difficulty:         &easy,
		ConsecutiveCorrect: 12000,
	}, now)

	assert.Equal(t, float64(maxIntervalDays), result.IntervalDays)
	assert.True(t, result.NextReviewAt.After(now))
	assert.Equal(t, now.Add(maxIntervalDays*day), result.NextReviewAt)
}

func TestNewParamsOverrides(t *testing.T) {
	t.Parallel()

	params := NewParams(ParamsConfig{HardMultiplier: 0.5, JitterMin: 1, JitterMax: 1})
	assert.InDelta(t, 0.5, params.DifficultyMultiplier[domain.DifficultyHard], 1e-9)
	assert.InDelta(t, 1.2, params.DifficultyMultiplier[domain.DifficultyEasy], 1e-9)

	svc := NewServiceWithParams(params)
	result := svc.NextReview(ReviewInput{CurrentStrength: 0, IsCorrect: true, Difficulty: difficultyPtr(domain.DifficultyHard)}, time.Now())
	assert.InDelta(t, 1.0, result.IntervalDays, 1e-9)

	unordered := NewParams(ParamsConfig{JitterMin: 1.5, JitterMax: 1.1})
	assert.InDelta(t, 0.8, unordered.JitterMin, 1e-9)
	assert.InDelta(t, 1.2, unordered.JitterMax, 1e-9)
}

func TestServiceHelpers(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Now()

	assert.Equal(t, "Familiar", svc.DescribeStrength(2))
	assert.Equal(t, "Unknown", svc.DescribeStrength(12))
	assert.Equal(t, 0.0, svc.Retention(0, 0))
	assert.InDelta(t, 50.0, svc.Retention(1, 2), 1e-9)
	assert.Equal(t, 1004, svc.Priority(now.Add(time.Minute), 4, now))
	assert.True(t, svc.IsDue(now, now))
	assert.True(t, svc.IsDue(now.Add(-time.Second), now))
	assert.False(t, svc.IsDue(now.Add(time.Second), now))
}

func TestRankByPriority(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	notDue := &domain.ProgressRecord{WordID: uuid.New(), Strength: 0, NextReviewDate: now.Add(day)}
	strongDue := &domain.ProgressRecord{WordID: uuid.New(), Strength: 5, NextReviewDate: now}
	weakDue := &domain.ProgressRecord{WordID: uuid.New(), Strength: 1, NextReviewDate: now}
	weakOverdue := &domain.ProgressRecord{WordID: uuid.New(), Strength: 1, NextReviewDate: now.Add(-3 * day)}

	input := []*domain.ProgressRecord{notDue, strongDue, weakDue, weakOverdue}
	ranked := svc.RankByPriority(input, now)

	require.Len(t, ranked, 4)
	assert.Equal(t, []*domain.ProgressRecord{weakOverdue, weakDue, strongDue, notDue}, ranked)
	assert.Same(t, notDue, input[0], "input slice must not be reordered")
}
