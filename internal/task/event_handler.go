package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vocabforge/vocab-api/internal/events"
	"github.com/vocabforge/vocab-api/internal/store"
)

// ReviewEventHandler implements events.EventHandler. It turns review.recorded
// events into UserStatsTasks on the queue.
type ReviewEventHandler struct {
	queue  TaskQueueWriter
	stats  store.UserStatsStore
	logger *slog.Logger
}

var _ events.EventHandler = (*ReviewEventHandler)(nil)

// NewReviewEventHandler creates a handler that enqueues stats updates.
func NewReviewEventHandler(
	queue TaskQueueWriter,
	stats store.UserStatsStore,
	logger *slog.Logger,
) *ReviewEventHandler {
	if queue == nil {
		panic("queue cannot be nil")
	}
	if stats == nil {
		panic("stats store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewEventHandler{
		queue:  queue,
		stats:  stats,
		logger: logger.With(slog.String("component", "review_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. Events of other types are ignored.
func (h *ReviewEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeReviewRecorded {
		h.logger.Debug("ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	var review events.ReviewRecorded
	if err := event.UnmarshalPayload(&review); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	t := NewUserStatsTask(review, h.stats)
	if err := h.queue.Enqueue(t); err != nil {
		return fmt.Errorf("failed to enqueue user stats task for user %s: %w", review.UserID, err)
	}
	return nil
}
