package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/events"
	"github.com/vocabforge/vocab-api/internal/store"
)

// UserStatsTask applies one recorded review to the user's aggregate stats:
// it counts the quiz and, for a correct answer, marks the study day.
type UserStatsTask struct {
	id      uuid.UUID
	review  events.ReviewRecorded
	stats   store.UserStatsStore
	created time.Time
}

var _ Task = (*UserStatsTask)(nil)

// NewUserStatsTask creates a task for the given review.
func NewUserStatsTask(review events.ReviewRecorded, stats store.UserStatsStore) *UserStatsTask {
	if stats == nil {
		panic("stats store cannot be nil")
	}
	return &UserStatsTask{
		id:      uuid.New(),
		review:  review,
		stats:   stats,
		created: time.Now().UTC(),
	}
}

// ID implements Task.
func (t *UserStatsTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *UserStatsTask) Type() string { return TaskTypeUserStats }

// Payload returns the review as JSON, for logging.
func (t *UserStatsTask) Payload() []byte {
	b, _ := json.Marshal(t.review)
	return b
}

// Execute implements Task.
func (t *UserStatsTask) Execute(ctx context.Context) error {
	if err := t.stats.IncrementStat(ctx, t.review.UserID, domain.StatTotalQuizzesTaken, 1); err != nil {
		return fmt.Errorf("increment quizzes taken: %w", err)
	}

	if !t.review.IsCorrect {
		return nil
	}

	day := t.review.ReviewedAt
	if t.review.StudyDay != "" {
		parsed, err := time.Parse(time.DateOnly, t.review.StudyDay)
		if err != nil {
			return fmt.Errorf("parse study day %q: %w", t.review.StudyDay, err)
		}
		day = parsed
	}

	if err := t.stats.RecordStudyDay(ctx, t.review.UserID, day); err != nil {
		return fmt.Errorf("record study day: %w", err)
	}
	return nil
}
