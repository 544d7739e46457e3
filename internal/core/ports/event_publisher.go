package ports

import (
	"context"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.BookEvent) error
}
