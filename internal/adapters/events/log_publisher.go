package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

// LogPublisher writes every book event to a zerolog logger.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.BookEvent) error {
	p.log.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("isbn", event.ISBN).
		Str("request_id", event.RequestID).
		Time("occurred_at", event.OccurredAt).
		Msg("book event")
	return nil
}
