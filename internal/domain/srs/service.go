package srs

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vocabforge/vocab-api/internal/domain"
)

// ReviewInput is the state needed to schedule the next review of a word.
type ReviewInput struct {
	CurrentStrength    int
	IsCorrect          bool
	Difficulty         *domain.Difficulty
	ConsecutiveCorrect int
}

// ReviewResult is the outcome of scheduling a review.
type ReviewResult struct {
	Strength     int
	NextReviewAt time.Time
	IntervalDays float64
}

// Service defines the interface for scheduling operations
type Service interface {
	// NextReview computes the new strength and next review time for a review outcome
	NextReview(in ReviewInput, now time.Time) ReviewResult

	// DescribeStrength returns the display label for a strength level
	DescribeStrength(strength int) string

	// Retention returns the percentage of correct answers, or 0 with no reviews
	Retention(correct, total int) float64

	// Priority scores a word for review ordering; lower is more urgent
	Priority(nextReview time.Time, strength int, now time.Time) int

	// IsDue reports whether a review scheduled at nextReview is due at now
	IsDue(nextReview, now time.Time) bool

	// RankByPriority returns the records ordered most urgent first
	RankByPriority(records []*domain.ProgressRecord, now time.Time) []*domain.ProgressRecord
}

// RandomSource returns uniform samples in [0, 1).
type RandomSource func() float64

// Option configures a service.
type Option func(*defaultService)

// WithRandomSource replaces the jitter source. Tests use it to pin jitter.
func WithRandomSource(src RandomSource) Option {
	return func(s *defaultService) {
		if src != nil {
			s.random = src
		}
	}
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
	random RandomSource
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService(opts ...Option) Service {
	return NewServiceWithParams(NewDefaultParams(), opts...)
}

// NewServiceWithParams creates a new scheduling service with custom parameters
func NewServiceWithParams(params *Params, opts ...Option) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	s := &defaultService{
		params: params,
		random: newLockedRand(time.Now().UnixNano()).Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextReview implements the Service interface
func (s *defaultService) NextReview(in ReviewInput, now time.Time) ReviewResult {
	newStrength := calculateNewStrength(in.CurrentStrength, in.IsCorrect, s.params)
	bonus := calculateStreakBonus(in.IsCorrect, in.ConsecutiveCorrect, s.params)
	jitter := jitterFactor(s.random(), s.params)

	days := calculateIntervalDays(newStrength, in.Difficulty, bonus, jitter, s.params)

	return ReviewResult{
		Strength:     newStrength,
		NextReviewAt: now.UTC().Add(daysToDuration(days)),
		IntervalDays: days,
	}
}

// DescribeStrength implements the Service interface
func (s *defaultService) DescribeStrength(strength int) string {
	return describeStrength(strength)
}

// Retention implements the Service interface
func (s *defaultService) Retention(correct, total int) float64 {
	return calculateRetention(correct, total)
}

// Priority implements the Service interface
func (s *defaultService) Priority(nextReview time.Time, strength int, now time.Time) int {
	return calculatePriority(nextReview, strength, now)
}

// IsDue implements the Service interface
func (s *defaultService) IsDue(nextReview, now time.Time) bool {
	return !nextReview.After(now)
}

// RankByPriority implements the Service interface. Ties are broken by the
// earlier review date, then by word ID, so the order is deterministic.
func (s *defaultService) RankByPriority(
	records []*domain.ProgressRecord,
	now time.Time,
) []*domain.ProgressRecord {
	ranked := make([]*domain.ProgressRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		pi := calculatePriority(ranked[i].NextReviewDate, ranked[i].Strength, now)
		pj := calculatePriority(ranked[j].NextReviewDate, ranked[j].Strength, now)
		if pi != pj {
			return pi < pj
		}
		if !ranked[i].NextReviewDate.Equal(ranked[j].NextReviewDate) {
			return ranked[i].NextReviewDate.Before(ranked[j].NextReviewDate)
		}
		return ranked[i].WordID.String() < ranked[j].WordID.String()
	})
	return ranked
}

// lockedRand makes a *rand.Rand safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
