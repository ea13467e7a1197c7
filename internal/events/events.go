package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TypeReviewRecorded is emitted after a review has been committed.
const TypeReviewRecorded = "review.recorded"

// Event is a typed notification with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type identifies the payload shape, e.g. TypeReviewRecorded
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ReviewRecorded is the payload of a TypeReviewRecorded event.
type ReviewRecorded struct {
	UserID     uuid.UUID `json:"user_id"`
	WordID     uuid.UUID `json:"word_id"`
	IsCorrect  bool      `json:"is_correct"`
	ReviewedAt time.Time `json:"reviewed_at"`
	// StudyDay is the reviewer's local calendar date, formatted as 2006-01-02.
	StudyDay string `json:"study_day"`
}

// NewReviewRecordedEvent wraps p in an Event.
func NewReviewRecordedEvent(p ReviewRecorded) (*Event, error) {
	return NewEvent(TypeReviewRecorded, p)
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
