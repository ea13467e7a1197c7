package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
)

// DueCounts summarizes how many of a user's records are due.
type DueCounts struct {
	// Due is the number of records with next_review_date <= now.
	Due int
	// Overdue is the number of records due before the start of the current day.
	Overdue int
}

// ProgressStore defines the interface for progress record and review event persistence.
type ProgressStore interface {
	// Find retrieves the progress record for a user and word.
	// Returns ErrProgressNotFound if no record exists.
	// NOTE: This method does not lock the row; use FindForUpdate inside a
	// transaction when the record is about to be modified.
	Find(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error)

	// FindForUpdate retrieves the progress record with a row-level lock using
	// SELECT FOR UPDATE. It must be called within a transaction.
	// Returns ErrProgressNotFound if no record exists.
	FindForUpdate(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error)

	// Insert stores a new record if none exists for its (user, word) pair.
	// Returns ErrDuplicate when a record for the pair already exists.
	// Returns ErrWordNotFound when the word does not exist.
	Insert(ctx context.Context, record *domain.ProgressRecord) error

	// Update writes the record only if its stored total_reviews still equals
	// expectedTotalReviews. Returns ErrConflict when it does not.
	Update(ctx context.Context, record *domain.ProgressRecord, expectedTotalReviews int) error

	// QueryDue returns up to limit records with next_review_date <= now,
	// ordered by next_review_date ascending.
	QueryDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.ProgressRecord, error)

	// QueryAll returns every progress record for the user.
	QueryAll(ctx context.Context, userID uuid.UUID) ([]*domain.ProgressRecord, error)

	// CountDue counts due records and the subset due before dayStart.
	CountDue(ctx context.Context, userID uuid.UUID, now, dayStart time.Time) (DueCounts, error)

	// LogEvent appends a review event.
	// Returns ErrDuplicate if the event's idempotency key was already used by the user.
	LogEvent(ctx context.Context, event *domain.ReviewEvent) error

	// QueryEvents returns the number of review events for the user at or after since.
	QueryEvents(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// FindEventByKey retrieves a review event by its idempotency key.
	// Returns ErrReviewEventNotFound if the key has not been used.
	FindEventByKey(ctx context.Context, userID uuid.UUID, key string) (*domain.ReviewEvent, error)

	// WithTx returns a new ProgressStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
