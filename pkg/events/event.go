package events

import "time"

// Event is the contract for everything crossing the event bus.
type Event interface {
	// EventType returns the dotted event code (e.g., "revision.applied").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used by all emitters.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event codes emitted by the editing flow.
const (
	TypeRevisionApplied = "revision.applied"
	TypeSessionOpened   = "session.opened"
	TypeSessionClosed   = "session.closed"
)

// NewRevisionApplied records one successful structural mutation.
func NewRevisionApplied(sessionID, action, target, chunkID, structure string) Event {
	return BaseEvent{
		Type: TypeRevisionApplied,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"action":     action,
			"target":     target,
			"chunk_id":   chunkID,
			"structure":  structure,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionLifecycle covers session.opened and session.closed.
func NewSessionLifecycle(eventType, sessionID, userID string) Event {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		},
		OccurredAt: time.Now(),
	}
}
