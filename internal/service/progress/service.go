package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/store"
)

// MaxSessionReviews caps the number of reviews accepted in one session.
const MaxSessionReviews = 50

// DefaultMaxDueLimit is the largest due-word page served when no limit is configured.
const DefaultMaxDueLimit = 100

// ReviewInput is a single answered review.
type ReviewInput struct {
	UserID         uuid.UUID
	WordID         uuid.UUID
	IsCorrect      bool
	QuizType       domain.QuizType
	ResponseTimeMs *int
	// IdempotencyKey makes retries safe: a key already present in the
	// review log is answered with the current record and nothing is applied.
	IdempotencyKey *string
}

// Validate checks the input before any store access.
func (in ReviewInput) Validate() error {
	if in.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "must not be empty")
	}
	if in.WordID == uuid.Nil {
		return domain.NewValidationError("word_id", "must not be empty")
	}
	if !in.QuizType.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidQuizType, in.QuizType)
	}
	if in.ResponseTimeMs != nil && *in.ResponseTimeMs < 0 {
		return domain.NewValidationError("response_time_ms", "must not be negative")
	}
	if in.IdempotencyKey != nil {
		key := strings.TrimSpace(*in.IdempotencyKey)
		if key == "" {
			return domain.NewValidationError("idempotency_key", "must not be blank")
		}
		if len(key) > 255 {
			return domain.NewValidationError("idempotency_key", "must be at most 255 characters")
		}
	}
	return nil
}

// DueOrder selects how due words are ordered.
type DueOrder string

const (
	// DueOrderDate orders by next review date, oldest first.
	DueOrderDate DueOrder = "due"
	// DueOrderPriority orders by scheduling priority, most urgent first.
	DueOrderPriority DueOrder = "priority"
)

// ParseDueOrder parses an order name. The empty string means DueOrderDate.
func ParseDueOrder(s string) (DueOrder, error) {
	switch DueOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", DueOrderDate:
		return DueOrderDate, nil
	case DueOrderPriority:
		return DueOrderPriority, nil
	default:
		return "", domain.NewValidationError("order", fmt.Sprintf("unknown order %q", s))
	}
}

// DueWord is a due progress record with its word.
type DueWord struct {
	Progress *domain.ProgressRecord
	Word     *domain.WordSummary
	Priority int
}

// DueSummary counts what a user has left to study.
type DueSummary struct {
	TotalDue      int
	OverdueCount  int
	NewWordsCount int
}

// SessionResult summarizes a batch of reviews.
type SessionResult struct {
	WordsReviewed  int
	CorrectAnswers int
	Accuracy       float64
	UpdatedWords   []*domain.ProgressRecord
}

// Service records reviews and reports learning progress.
type Service interface {
	// GetOrCreateProgress returns the user's record for a word, creating a
	// fresh record due immediately when none exists.
	//
	// Returns:
	//   - (nil, store.ErrWordNotFound): the word does not exist for the user
	//   - (nil, error): validation or store failures
	GetOrCreateProgress(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error)

	// RecordReview applies one review outcome inside a transaction and
	// returns the updated record. A stats update is queued after commit.
	//
	// Returns:
	//   - (nil, domain.ErrValidation): malformed input
	//   - (nil, store.ErrWordNotFound): the word does not exist for the user
	//   - (nil, ErrConcurrentReview): another review of the same record won; retry
	//   - (nil, *ServiceError): store failures
	RecordReview(ctx context.Context, in ReviewInput) (*domain.ProgressRecord, error)

	// RecordReviewSession applies reviews in order, each in its own
	// transaction. Every input is validated before the first is applied.
	// On failure, reviews before the failing one stay applied.
	RecordReviewSession(ctx context.Context, userID uuid.UUID, reviews []ReviewInput) (*SessionResult, error)

	// GetDueWords returns up to limit due words with their summaries.
	// Records whose word no longer exists are skipped.
	GetDueWords(ctx context.Context, userID uuid.UUID, limit int, order DueOrder) ([]DueWord, error)

	// GetDueSummary counts due, overdue and never-reviewed words.
	GetDueSummary(ctx context.Context, userID uuid.UUID) (*DueSummary, error)

	// GetLearningStats computes a snapshot of the user's progress. A user
	// with no records gets zero stats, not an error.
	GetLearningStats(ctx context.Context, userID uuid.UUID) (*domain.LearningStats, error)
}

// Errors returned by the progress service.
var (
	// ErrConcurrentReview means the record changed between read and write.
	// The caller may retry the review.
	ErrConcurrentReview = errors.New("progress was modified concurrently, retry the review")

	// ErrWordNotFound is returned when the reviewed word does not exist for the user.
	ErrWordNotFound = store.ErrWordNotFound

	// ErrInvalidLimit is returned for a due-word limit outside the allowed range.
	ErrInvalidLimit = fmt.Errorf("%w: invalid limit", domain.ErrValidation)

	// ErrInvalidSession is returned for an empty or oversized session, or one
	// containing reviews for another user.
	ErrInvalidSession = fmt.Errorf("%w: invalid review session", domain.ErrValidation)
)

// ServiceError wraps store failures with the operation that hit them.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// passThrough reports whether err is already meaningful to callers and
// should not be wrapped in a ServiceError.
func passThrough(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, ErrConcurrentReview)
}

// wrapError returns err unchanged when passThrough, otherwise as a ServiceError.
func wrapError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if passThrough(err) {
		return err
	}
	return NewServiceError(operation, message, err)
}
