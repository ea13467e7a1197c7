package progress_test

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vocabforge/vocab-api/internal/domain"
	"github.com/vocabforge/vocab-api/internal/events"
	"github.com/vocabforge/vocab-api/internal/store"
)

type pairKey struct {
	userID uuid.UUID
	wordID uuid.UUID
}

// memProgressStore is an in-memory store.ProgressStore. Records are copied
// on the way in and out so callers cannot mutate stored state.
type memProgressStore struct {
	mu      sync.Mutex
	records map[pairKey]domain.ProgressRecord
	events  []domain.ReviewEvent

	// Hooks let tests inject failures; a nil hook means normal behaviour.
	insertHook func(record *domain.ProgressRecord) error
	updateHook func(record *domain.ProgressRecord) error
	logHook    func(event *domain.ReviewEvent) error
	queryErr   error
}

var _ store.ProgressStore = (*memProgressStore)(nil)

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{records: make(map[pairKey]domain.ProgressRecord)}
}

func (m *memProgressStore) put(record domain.ProgressRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[pairKey{record.UserID, record.WordID}] = record
}

func (m *memProgressStore) get(userID, wordID uuid.UUID) (domain.ProgressRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[pairKey{userID, wordID}]
	return r, ok
}

func (m *memProgressStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memProgressStore) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make(map[pairKey]domain.ProgressRecord, len(m.records))
	for k, v := range m.records {
		records[k] = v
	}
	events := append([]domain.ReviewEvent(nil), m.events...)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.records = records
		m.events = events
	}
}

func (m *memProgressStore) Find(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error) {
	r, ok := m.get(userID, wordID)
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return &r, nil
}

func (m *memProgressStore) FindForUpdate(ctx context.Context, userID, wordID uuid.UUID) (*domain.ProgressRecord, error) {
	return m.Find(ctx, userID, wordID)
}

func (m *memProgressStore) Insert(ctx context.Context, record *domain.ProgressRecord) error {
	if m.insertHook != nil {
		if err := m.insertHook(record); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{record.UserID, record.WordID}
	if _, exists := m.records[key]; exists {
		return store.ErrDuplicate
	}
	m.records[key] = *record
	return nil
}

func (m *memProgressStore) Update(ctx context.Context, record *domain.ProgressRecord, expectedTotalReviews int) error {
	if m.updateHook != nil {
		if err := m.updateHook(record); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{record.UserID, record.WordID}
	current, ok := m.records[key]
	if !ok || current.ID != record.ID || current.TotalReviews != expectedTotalReviews {
		return store.ErrConflict
	}
	m.records[key] = *record
	return nil
}

func (m *memProgressStore) QueryDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.ProgressRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	all, _ := m.QueryAll(ctx, userID)
	due := make([]*domain.ProgressRecord, 0, len(all))
	for _, r := range all {
		if !r.NextReviewDate.After(now) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewDate.Equal(due[j].NextReviewDate) {
			return due[i].NextReviewDate.Before(due[j].NextReviewDate)
		}
		return due[i].WordID.String() < due[j].WordID.String()
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memProgressStore) QueryAll(ctx context.Context, userID uuid.UUID) ([]*domain.ProgressRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ProgressRecord
	for _, r := range m.records {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WordID.String() < out[j].WordID.String() })
	return out, nil
}

func (m *memProgressStore) CountDue(
	ctx context.Context,
	userID uuid.UUID,
	now, dayStart time.Time,
) (store.DueCounts, error) {
	all, err := m.QueryAll(ctx, userID)
	if err != nil {
		return store.DueCounts{}, err
	}
	var counts store.DueCounts
	for _, r := range all {
		if !r.NextReviewDate.After(now) {
			counts.Due++
			if r.NextReviewDate.Before(dayStart) {
				counts.Overdue++
			}
		}
	}
	return counts, nil
}

func (m *memProgressStore) LogEvent(ctx context.Context, event *domain.ReviewEvent) error {
	if m.logHook != nil {
		if err := m.logHook(event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.IdempotencyKey != nil {
		for _, e := range m.events {
			if e.UserID == event.UserID && e.IdempotencyKey != nil && *e.IdempotencyKey == *event.IdempotencyKey {
				return store.ErrDuplicate
			}
		}
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memProgressStore) QueryEvents(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.UserID == userID && !e.ReviewedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memProgressStore) FindEventByKey(ctx context.Context, userID uuid.UUID, key string) (*domain.ReviewEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.UserID == userID && e.IdempotencyKey != nil && *e.IdempotencyKey == key {
			e := e
			return &e, nil
		}
	}
	return nil, store.ErrReviewEventNotFound
}

func (m *memProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return m
}

// memTxManager runs fn directly and restores the progress store on error.
type memTxManager struct {
	progress *memProgressStore
}

func (t *memTxManager) WithTransaction(ctx context.Context, fn store.TxFn) error {
	restore := t.progress.snapshot()
	if err := fn(ctx, nil); err != nil {
		restore()
		return err
	}
	return nil
}

// memWordStore is an in-memory store.WordStore.
type memWordStore struct {
	words       map[pairKey]*domain.Word
	progress    *memProgressStore
	summaryErr  error
	unreviewErr error
}

var _ store.WordStore = (*memWordStore)(nil)

func newMemWordStore(progress *memProgressStore) *memWordStore {
	return &memWordStore{words: make(map[pairKey]*domain.Word), progress: progress}
}

func (w *memWordStore) add(userID uuid.UUID, text string, difficulty *domain.Difficulty) uuid.UUID {
	id := uuid.New()
	w.words[pairKey{userID, id}] = &domain.Word{
		ID:         id,
		UserID:     userID,
		Text:       text,
		Difficulty: difficulty,
	}
	return id
}

func (w *memWordStore) GetDifficulty(ctx context.Context, userID, wordID uuid.UUID) (*domain.Difficulty, error) {
	word, ok := w.words[pairKey{userID, wordID}]
	if !ok {
		return nil, store.ErrWordNotFound
	}
	return word.Difficulty, nil
}

func (w *memWordStore) GetWordSummary(ctx context.Context, userID, wordID uuid.UUID) (*domain.WordSummary, error) {
	if w.summaryErr != nil {
		return nil, w.summaryErr
	}
	word, ok := w.words[pairKey{userID, wordID}]
	if !ok {
		return nil, store.ErrWordNotFound
	}
	summary := word.Summary()
	return &summary, nil
}

func (w *memWordStore) CountUnreviewed(ctx context.Context, userID uuid.UUID) (int, error) {
	if w.unreviewErr != nil {
		return 0, w.unreviewErr
	}
	n := 0
	for key := range w.words {
		if key.userID != userID {
			continue
		}
		if _, ok := w.progress.get(key.userID, key.wordID); !ok {
			n++
		}
	}
	return n, nil
}

// memStatsStore is an in-memory store.UserStatsStore.
type memStatsStore struct {
	mu      sync.Mutex
	streaks map[uuid.UUID]domain.StreakInfo
	err     error
}

var _ store.UserStatsStore = (*memStatsStore)(nil)

func newMemStatsStore() *memStatsStore {
	return &memStatsStore{streaks: make(map[uuid.UUID]domain.StreakInfo)}
}

func (s *memStatsStore) IncrementStat(ctx context.Context, userID uuid.UUID, stat domain.UserStat, delta int) error {
	return s.err
}

func (s *memStatsStore) RecordStudyDay(ctx context.Context, userID uuid.UUID, day time.Time) error {
	return s.err
}

func (s *memStatsStore) GetStreakInfo(ctx context.Context, userID uuid.UUID, today time.Time) (domain.StreakInfo, error) {
	if s.err != nil {
		return domain.StreakInfo{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaks[userID], nil
}

func (s *memStatsStore) ExpireStreaks(ctx context.Context, today time.Time) (int64, error) {
	return 0, s.err
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) emitted() []*events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*events.Event(nil), e.events...)
}
