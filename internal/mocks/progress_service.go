package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/service/progress"
)

// MockProgressService implements progress.Service for testing
type MockProgressService struct {
	GetOrCreateProgressFn func(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error)
	RecordReviewFn        func(ctx context.Context, in progress.ReviewInput) (*domain.ProgressRecord, error)
	RecordReviewSessionFn func(ctx context.Context, userID uuid.UUID, reviews []progress.ReviewInput) (*progress.SessionResult, error)
	GetDueWordsFn         func(ctx context.Context, userID uuid.UUID, limit int, order progress.DueOrder) ([]progress.DueWord, error)
	GetDueSummaryFn       func(ctx context.Context, userID uuid.UUID) (*progress.DueSummary, error)
	GetLearningStatsFn    func(ctx context.Context, userID uuid.UUID) (*domain.LearningStats, error)

	// Default return values
	Record  *domain.ProgressRecord
	Session *progress.SessionResult
	Due     []progress.DueWord
	Summary *progress.DueSummary
	Stats   *domain.LearningStats
	Err     error

	mu           sync.Mutex
	ReviewInputs []progress.ReviewInput
	DueLimits    []int
	DueOrders    []progress.DueOrder
}

var _ progress.Service = (*MockProgressService)(nil)

// GetOrCreateProgress implements progress.Service
func (m *MockProgressService) GetOrCreateProgress(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*domain.ProgressRecord, error) {
	if m.GetOrCreateProgressFn != nil {
		return m.GetOrCreateProgressFn(ctx, userID, wordID)
	}
	return m.Record, m.Err
}

// RecordReview implements progress.Service
func (m *MockProgressService) RecordReview(
	ctx context.Context,
	in progress.ReviewInput,
) (*domain.ProgressRecord, error) {
	m.mu.Lock()
	m.ReviewInputs = append(m.ReviewInputs, in)
	m.mu.Unlock()

	if m.RecordReviewFn != nil {
		return m.RecordReviewFn(ctx, in)
	}
	return m.Record, m.Err
}

// RecordReviewSession implements progress.Service
func (m *MockProgressService) RecordReviewSession(
	ctx context.Context,
	userID uuid.UUID,
	reviews []progress.ReviewInput,
) (*progress.SessionResult, error) {
	m.mu.Lock()
	m.ReviewInputs = append(m.ReviewInputs, reviews...)
	m.mu.Unlock()

	if m.RecordReviewSessionFn != nil {
		return m.RecordReviewSessionFn(ctx, userID, reviews)
	}
	return m.Session, m.Err
}

// GetDueWords implements progress.Service
func (m *MockProgressService) GetDueWords(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	order progress.DueOrder,
) ([]progress.DueWord, error) {
	m.mu.Lock()
	m.DueLimits = append(m.DueLimits, limit)
	m.DueOrders = append(m.DueOrders, order)
	m.mu.Unlock()

	if m.GetDueWordsFn != nil {
		return m.GetDueWordsFn(ctx, userID, limit, order)
	}
	return m.Due, m.Err
}

// GetDueSummary implements progress.Service
func (m *MockProgressService) GetDueSummary(ctx context.Context, userID uuid.UUID) (*progress.DueSummary, error) {
	if m.GetDueSummaryFn != nil {
		return m.GetDueSummaryFn(ctx, userID)
	}
	if m.Summary == nil && m.Err == nil {
		return &progress.DueSummary{}, nil
	}
	return m.Summary, m.Err
}

// GetLearningStats implements progress.Service
func (m *MockProgressService) GetLearningStats(ctx context.Context, userID uuid.UUID) (*domain.LearningStats, error) {
	if m.GetLearningStatsFn != nil {
		return m.GetLearningStatsFn(ctx, userID)
	}
	return m.Stats, m.Err
}
