package domain

import (
	"encoding/json"
	"time"
)

const (
	EventBookCreated = "book.created"
	EventBookUpdated = "book.updated"
	EventBookDeleted = "book.deleted"
)

// BookEvent is published after a book mutation has been persisted.
type BookEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	ISBN       string          `json:"isbn"`
	RequestID  string          `json:"request_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
