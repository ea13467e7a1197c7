package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/domain/srs"
	"github.com/vocabforge/vocab-api/internal/events"
	"github.com/vocabforge/vocab-api/internal/platform/logger"
	"github.com/vocabforge/vocab-api/internal/store"
)

// errReplay aborts a transaction whose review turned out to be a duplicate.
var errReplay = errors.New("review already recorded")

// Option configures the progress service.
type Option func(*serviceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used for day boundaries. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *serviceImpl) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMaxDueLimit sets the largest accepted due-word limit.
func WithMaxDueLimit(limit int) Option {
	return func(s *serviceImpl) {
		if limit > 0 {
			s.maxDueLimit = limit
		}
	}
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	progressStore store.ProgressStore
	wordStore     store.WordStore
	statsStore    store.UserStatsStore
	txManager     store.TxManager
	srsService    srs.Service
	emitter       events.EventEmitter
	logger        *slog.Logger

	now         func() time.Time
	location    *time.Location
	maxDueLimit int
}

// NewProgressService creates a progress Service. emitter may be nil, in
// which case no review events are published.
func NewProgressService(
	progressStore store.ProgressStore,
	wordStore store.WordStore,
	statsStore store.UserStatsStore,
	txManager store.TxManager,
	srsService srs.Service,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if progressStore == nil {
		panic("progressStore cannot be nil")
	}
	if wordStore == nil {
		panic("wordStore cannot be nil")
	}
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if txManager == nil {
		panic("txManager cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		progressStore: progressStore,
		wordStore:     wordStore,
		statsStore:    statsStore,
		txManager:     txManager,
		srsService:    srsService,
		emitter:       emitter,
		logger:        logger.With(slog.String("component", "progress_service")),
		now:           time.Now,
		location:      time.UTC,
		maxDueLimit:   DefaultMaxDueLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateProgress implements Service.
func (s *serviceImpl) GetOrCreateProgress(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*domain.ProgressRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}
	if wordID == uuid.Nil {
		return nil, domain.NewValidationError("word_id", "must not be empty")
	}

	// Words are user-owned; someone else's word reads as missing
	if _, err := s.wordStore.GetDifficulty(ctx, userID, wordID); err != nil {
		return nil, wrapError("get_or_create_progress", "failed to resolve word", err)
	}

	record, err := s.progressStore.Find(ctx, userID, wordID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, store.ErrProgressNotFound) {
		return nil, wrapError("get_or_create_progress", "failed to find progress", err)
	}

	record, err = s.createIfAbsent(ctx, s.progressStore, userID, wordID, s.now())
	if err != nil {
		log.Warn("failed to create progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, wrapError("get_or_create_progress", "failed to create progress", err)
	}

	// The insert may have lost a race; read back whichever record won
	if record == nil {
		record, err = s.progressStore.Find(ctx, userID, wordID)
		if err != nil {
			return nil, wrapError("get_or_create_progress", "failed to re-read progress", err)
		}
	}
	return record, nil
}

// createIfAbsent inserts a fresh record. It returns (nil, nil) when another
// writer created the record first.
func (s *serviceImpl) createIfAbsent(
	ctx context.Context,
	progressStore store.ProgressStore,
	userID, wordID uuid.UUID,
	now time.Time,
) (*domain.ProgressRecord, error) {
	record, err := domain.NewProgressRecord(userID, wordID, now)
	if err != nil {
		return nil, err
	}
	if err := progressStore.Insert(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// RecordReview implements Service.
func (s *serviceImpl) RecordReview(ctx context.Context, in ReviewInput) (*domain.ProgressRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", in.UserID.String()),
		slog.String("word_id", in.WordID.String()),
	)

	if err := in.Validate(); err != nil {
		log.Debug("invalid review input", slog.String("error", err.Error()))
		return nil, err
	}

	now := s.now().UTC()
	var updated *domain.ProgressRecord

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progressStore := s.progressStore.WithTx(tx)

		if in.IdempotencyKey != nil {
			_, err := progressStore.FindEventByKey(ctx, in.UserID, *in.IdempotencyKey)
			if err == nil {
				return errReplay
			}
			if !errors.Is(err, store.ErrReviewEventNotFound) {
				return fmt.Errorf("failed to check idempotency key: %w", err)
			}
		}

		difficulty, err := s.wordStore.GetDifficulty(ctx, in.UserID, in.WordID)
		if err != nil {
			return err
		}

		before, err := s.lockOrCreate(ctx, progressStore, in.UserID, in.WordID, now)
		if err != nil {
			return err
		}

		consecutive := 0
		if in.IsCorrect {
			consecutive = before.ConsecutiveCorrect
		}
		result := s.srsService.NextReview(srs.ReviewInput{
			CurrentStrength:    before.Strength,
			IsCorrect:          in.IsCorrect,
			Difficulty:         difficulty,
			ConsecutiveCorrect: consecutive,
		}, now)

		after := before.WithReview(in.IsCorrect, result.Strength, result.NextReviewAt, now)
		if err := after.Validate(); err != nil {
			return err
		}

		if err := progressStore.Update(ctx, after, before.TotalReviews); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrConcurrentReview
			}
			return fmt.Errorf("failed to update progress: %w", err)
		}

		event := domain.NewReviewEvent(before, after, in.IsCorrect, in.QuizType,
			in.ResponseTimeMs, in.IdempotencyKey, now)
		if err := progressStore.LogEvent(ctx, event); err != nil {
			// A concurrent request with the same key committed first
			if in.IdempotencyKey != nil && errors.Is(err, store.ErrDuplicate) {
				return errReplay
			}
			return fmt.Errorf("failed to log review event: %w", err)
		}

		log.Debug("review applied",
			slog.Int("strength_before", before.Strength),
			slog.Int("strength_after", after.Strength),
			slog.Float64("interval_days", result.IntervalDays),
			slog.Time("next_review_date", after.NextReviewDate))

		updated = after
		return nil
	})

	if errors.Is(err, errReplay) {
		log.Info("idempotent review replayed", slog.String("idempotency_key", *in.IdempotencyKey))
		wordID, keyErr := s.replayedWordID(ctx, in)
		if keyErr != nil {
			return nil, wrapError("record_review", "failed to read replayed review", keyErr)
		}
		record, findErr := s.progressStore.Find(ctx, in.UserID, wordID)
		if findErr != nil {
			return nil, wrapError("record_review", "failed to read replayed progress", findErr)
		}
		return record, nil
	}
	if err != nil {
		if errors.Is(err, ErrConcurrentReview) {
			log.Warn("concurrent review detected")
		} else if !passThrough(err) {
			log.Error("failed to record review", slog.String("error", err.Error()))
		}
		return nil, wrapError("record_review", "failed to record review", err)
	}

	s.publishReview(ctx, in, now)
	return updated, nil
}

// replayedWordID returns the word the idempotency key was first recorded
// against, so a key reused for another word replays the original review.
func (s *serviceImpl) replayedWordID(ctx context.Context, in ReviewInput) (uuid.UUID, error) {
	event, err := s.progressStore.FindEventByKey(ctx, in.UserID, *in.IdempotencyKey)
	if err != nil {
		// The winning transaction may not be visible yet
		if errors.Is(err, store.ErrReviewEventNotFound) {
			return in.WordID, nil
		}
		return uuid.Nil, err
	}
	return event.WordID, nil
}

// lockOrCreate locks the record for update, creating it first if needed.
func (s *serviceImpl) lockOrCreate(
	ctx context.Context,
	progressStore store.ProgressStore,
	userID, wordID uuid.UUID,
	now time.Time,
) (*domain.ProgressRecord, error) {
	record, err := progressStore.FindForUpdate(ctx, userID, wordID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, store.ErrProgressNotFound) {
		return nil, fmt.Errorf("failed to lock progress: %w", err)
	}

	if _, err := s.createIfAbsent(ctx, progressStore, userID, wordID, now); err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	record, err = progressStore.FindForUpdate(ctx, userID, wordID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock new progress: %w", err)
	}
	return record, nil
}

// publishReview emits the review.recorded event. Failures are logged only:
// stats are eventually consistent and never fail the review.
func (s *serviceImpl) publishReview(ctx context.Context, in ReviewInput, reviewedAt time.Time) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewReviewRecordedEvent(events.ReviewRecorded{
		UserID:     in.UserID,
		WordID:     in.WordID,
		IsCorrect:  in.IsCorrect,
		ReviewedAt: reviewedAt,
		StudyDay:   reviewedAt.In(s.location).Format(time.DateOnly),
	})
	if err != nil {
		log.Error("failed to build review event", slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("user stats update dropped",
			slog.String("error", err.Error()),
			slog.String("user_id", in.UserID.String()),
			slog.String("event_id", event.ID.String()))
	}
}

// RecordReviewSession implements Service.
func (s *serviceImpl) RecordReviewSession(
	ctx context.Context,
	userID uuid.UUID,
	reviews []ReviewInput,
) (*SessionResult, error) {
	if len(reviews) == 0 {
		return nil, fmt.Errorf("%w: no reviews", ErrInvalidSession)
	}
	if len(reviews) > MaxSessionReviews {
		return nil, fmt.Errorf("%w: %d reviews exceeds the maximum of %d",
			ErrInvalidSession, len(reviews), MaxSessionReviews)
	}
	for i, in := range reviews {
		if in.UserID != userID {
			return nil, fmt.Errorf("%w: review %d belongs to another user", ErrInvalidSession, i)
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("review %d: %w", i, err)
		}
	}

	result := &SessionResult{
		UpdatedWords: make([]*domain.ProgressRecord, 0, len(reviews)),
	}
	for i, in := range reviews {
		record, err := s.RecordReview(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("review %d of %d: %w", i+1, len(reviews), err)
		}
		result.WordsReviewed++
		if in.IsCorrect {
			result.CorrectAnswers++
		}
		result.UpdatedWords = append(result.UpdatedWords, record)
	}
	result.Accuracy = s.srsService.Retention(result.CorrectAnswers, result.WordsReviewed)

	return result, nil
}

// GetDueWords implements Service.
func (s *serviceImpl) GetDueWords(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	order DueOrder,
) ([]DueWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}
	if limit <= 0 || limit > s.maxDueLimit {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidLimit, s.maxDueLimit)
	}

	now := s.now().UTC()

	var records []*domain.ProgressRecord
	var err error
	switch order {
	case DueOrderPriority:
		// Priority ranking needs every due record before truncating
		records, err = s.progressStore.QueryAll(ctx, userID)
		if err != nil {
			return nil, wrapError("get_due_words", "failed to query progress", err)
		}
		due := make([]*domain.ProgressRecord, 0, len(records))
		for _, r := range records {
			if s.srsService.IsDue(r.NextReviewDate, now) {
				due = append(due, r)
			}
		}
		records = s.srsService.RankByPriority(due, now)
		if len(records) > limit {
			records = records[:limit]
		}
	case DueOrderDate, "":
		records, err = s.progressStore.QueryDue(ctx, userID, now, limit)
		if err != nil {
			return nil, wrapError("get_due_words", "failed to query due progress", err)
		}
	default:
		return nil, domain.NewValidationError("order", fmt.Sprintf("unknown order %q", order))
	}

	words := make([]DueWord, 0, len(records))
	for _, r := range records {
		summary, err := s.wordStore.GetWordSummary(ctx, userID, r.WordID)
		if err != nil {
			if errors.Is(err, store.ErrWordNotFound) {
				log.Debug("skipping due record for missing word",
					slog.String("user_id", userID.String()),
					slog.String("word_id", r.WordID.String()))
				continue
			}
			return nil, wrapError("get_due_words", "failed to load word", err)
		}
		words = append(words, DueWord{
			Progress: r,
			Word:     summary,
			Priority: s.srsService.Priority(r.NextReviewDate, r.Strength, now),
		})
	}

	log.Debug("due words retrieved",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(words)),
		slog.String("order", string(order)))
	return words, nil
}

// GetDueSummary implements Service.
func (s *serviceImpl) GetDueSummary(ctx context.Context, userID uuid.UUID) (*DueSummary, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}

	now := s.now()
	counts, err := s.progressStore.CountDue(ctx, userID, now.UTC(), s.startOfDay(now))
	if err != nil {
		return nil, wrapError("get_due_summary", "failed to count due progress", err)
	}
	unreviewed, err := s.wordStore.CountUnreviewed(ctx, userID)
	if err != nil {
		return nil, wrapError("get_due_summary", "failed to count new words", err)
	}

	return &DueSummary{
		TotalDue:      counts.Due,
		OverdueCount:  counts.Overdue,
		NewWordsCount: unreviewed,
	}, nil
}

// GetLearningStats implements Service.
func (s *serviceImpl) GetLearningStats(ctx context.Context, userID uuid.UUID) (*domain.LearningStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}

	records, err := s.progressStore.QueryAll(ctx, userID)
	if err != nil {
		return nil, wrapError("get_learning_stats", "failed to query progress", err)
	}

	now := s.now()

	streak, err := s.statsStore.GetStreakInfo(ctx, userID, now.In(s.location))
	if err != nil {
		return nil, wrapError("get_learning_stats", "failed to load streak", err)
	}

	stats := &domain.LearningStats{
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
	}
	if len(records) == 0 {
		return stats, nil
	}

	nowUTC := now.UTC()
	dayStart := s.startOfDay(now)

	var totalReviews, correctReviews int
	for _, r := range records {
		switch domain.BandFor(r.Strength) {
		case domain.BandMastered:
			stats.MasteredWords++
		case domain.BandStrong:
			stats.StrongWords++
		default:
			stats.LearningWords++
		}

		if s.srsService.IsDue(r.NextReviewDate, nowUTC) {
			stats.DueForReview++
			if r.NextReviewDate.Before(dayStart) {
				stats.OverdueWords++
			}
		}

		totalReviews += r.TotalReviews
		correctReviews += r.CorrectReviews
	}
	stats.TotalWords = len(records)
	stats.ReviewsTotal = totalReviews
	stats.OverallAccuracy = s.srsService.Retention(correctReviews, totalReviews)

	if stats.ReviewsToday, err = s.progressStore.QueryEvents(ctx, userID, dayStart); err != nil {
		return nil, wrapError("get_learning_stats", "failed to count today's reviews", err)
	}
	weekStart := dayStart.AddDate(0, 0, -7)
	if stats.ReviewsThisWeek, err = s.progressStore.QueryEvents(ctx, userID, weekStart); err != nil {
		return nil, wrapError("get_learning_stats", "failed to count this week's reviews", err)
	}

	log.Debug("learning stats computed",
		slog.String("user_id", userID.String()),
		slog.Int("total_words", stats.TotalWords),
		slog.Int("due", stats.DueForReview))
	return stats, nil
}

// startOfDay returns midnight of t's calendar day in the service location, in UTC.
func (s *serviceImpl) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location).UTC()
}
