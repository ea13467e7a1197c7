package domain

import (
	"time"

	"github.com/google/uuid"
)

// Strength bounds for a progress record.
const (
	MinStrength = 0
	MaxStrength = 6
)

// ProgressRecord tracks one user's spaced repetition state for one word.
// There is at most one record per (UserID, WordID).
type ProgressRecord struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	WordID             uuid.UUID  `json:"word_id"`
	Strength           int        `json:"strength"`
	TotalReviews       int        `json:"total_reviews"`
	CorrectReviews     int        `json:"correct_reviews"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	NextReviewDate     time.Time  `json:"next_review_date"`
	LastReviewed       *time.Time `json:"last_reviewed,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewProgressRecord creates a never-reviewed record that is due immediately.
func NewProgressRecord(userID, wordID uuid.UUID, now time.Time) (*ProgressRecord, error) {
	now = now.UTC()
	record := &ProgressRecord{
		ID:             uuid.New(),
		UserID:         userID,
		WordID:         wordID,
		NextReviewDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// Validate checks the record's structural invariants.
func (p *ProgressRecord) Validate() error {
	if p.UserID == uuid.Nil {
		return NewValidationError("user_id", "must not be empty")
	}
	if p.WordID == uuid.Nil {
		return NewValidationError("word_id", "must not be empty")
	}
	if p.Strength < MinStrength || p.Strength > MaxStrength {
		return ErrInvalidStrength
	}
	if p.TotalReviews < 0 || p.CorrectReviews < 0 || p.ConsecutiveCorrect < 0 ||
		p.CorrectReviews > p.TotalReviews {
		return ErrInvalidCounters
	}
	return nil
}

// WithReview returns a copy of the record with one review applied.
// The receiver is not modified.
func (p *ProgressRecord) WithReview(isCorrect bool, newStrength int, nextReview, now time.Time) *ProgressRecord {
	now = now.UTC()
	updated := *p
	updated.Strength = newStrength
	updated.TotalReviews++
	if isCorrect {
		updated.CorrectReviews++
		updated.ConsecutiveCorrect++
	} else {
		updated.ConsecutiveCorrect = 0
	}
	updated.NextReviewDate = nextReview.UTC()
	updated.LastReviewed = &now
	updated.UpdatedAt = now
	return &updated
}

// IsDue reports whether the record should be reviewed at now.
func (p *ProgressRecord) IsDue(now time.Time) bool {
	return !p.NextReviewDate.After(now)
}

// ReviewEvent is an append-only log entry for a single answered review.
type ReviewEvent struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	WordID         uuid.UUID `json:"word_id"`
	IsCorrect      bool      `json:"is_correct"`
	QuizType       QuizType  `json:"quiz_type"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty"`
	StrengthBefore int       `json:"strength_before"`
	StrengthAfter  int       `json:"strength_after"`
	ReviewedAt     time.Time `json:"reviewed_at"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
}

// NewReviewEvent builds the log entry describing the transition from before to after.
func NewReviewEvent(
	before, after *ProgressRecord,
	isCorrect bool,
	quizType QuizType,
	responseTimeMs *int,
	idempotencyKey *string,
	reviewedAt time.Time,
) *ReviewEvent {
	return &ReviewEvent{
		ID:             uuid.New(),
		UserID:         after.UserID,
		WordID:         after.WordID,
		IsCorrect:      isCorrect,
		QuizType:       quizType,
		ResponseTimeMs: responseTimeMs,
		StrengthBefore: before.Strength,
		StrengthAfter:  after.Strength,
		ReviewedAt:     reviewedAt.UTC(),
		IdempotencyKey: idempotencyKey,
	}
}
