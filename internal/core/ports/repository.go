package ports

import (
	"context"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

// BookRepository is the data access contract for books. FindOne, Update and
// Remove return *domain.NotFoundError when the isbn has no record; Create
// returns *domain.DuplicateError when it already has one.
type BookRepository interface {
	FindAll(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error)
	FindOne(ctx context.Context, isbn string) (domain.Book, error)
	Create(ctx context.Context, book domain.Book) (domain.Book, error)
	Update(ctx context.Context, isbn string, patch domain.BookPatch) (domain.Book, error)
	Remove(ctx context.Context, isbn string) error
}
