package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
)

// WordStore is the read-only word lookup used by the progress engine.
// Words belong to a user; a word owned by someone else is reported as
// ErrWordNotFound.
type WordStore interface {
	// GetDifficulty returns the word's difficulty, or nil if none was set.
	// Returns ErrWordNotFound if the word does not exist for the user.
	GetDifficulty(ctx context.Context, userID, wordID uuid.UUID) (*domain.Difficulty, error)

	// GetWordSummary returns the display summary of the word.
	// Returns ErrWordNotFound if the word does not exist for the user.
	GetWordSummary(ctx context.Context, userID, wordID uuid.UUID) (*domain.WordSummary, error)

	// CountUnreviewed counts the user's words that have no progress record yet.
	CountUnreviewed(ctx context.Context, userID uuid.UUID) (int, error)
}
