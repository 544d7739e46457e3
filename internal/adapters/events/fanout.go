package events

import (
	"context"
	"errors"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
	"github.com/atvirokodosprendimai/booksapi/internal/core/ports"
)

// Fanout publishes each event to every publisher and joins their errors.
type Fanout []ports.EventPublisher

func (f Fanout) Publish(ctx context.Context, event domain.BookEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
