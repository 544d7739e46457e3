package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

const bookColumns = `isbn, amazon_url, author, language, pages, publisher, title, year, created_at, updated_at`

type BookRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewBookRepository(db *pgxpool.Pool, timeout time.Duration) *BookRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BookRepository{db: db, timeout: timeout}
}

func (r *BookRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *BookRepository) FindAll(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	clauses := []string{"1=1"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Author != "" {
		add("author", filter.Author)
	}
	if filter.Language != "" {
		add("language", filter.Language)
	}
	if filter.Publisher != "" {
		add("publisher", filter.Publisher)
	}
	if filter.Title != "" {
		add("title", filter.Title)
	}
	if filter.Year != nil {
		add("year", *filter.Year)
	}

	query := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY title ASC, isbn ASC`,
		bookColumns, strings.Join(clauses, " AND "))

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (r *BookRepository) FindOne(ctx context.Context, isbn string) (domain.Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1`, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, &domain.NotFoundError{ISBN: isbn}
		}
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// Create relies on ON CONFLICT DO NOTHING: a colliding isbn returns no row.
func (r *BookRepository) Create(ctx context.Context, book domain.Book) (domain.Book, error) {
	const query = `
		INSERT INTO books (isbn, amazon_url, author, language, pages, publisher, title, year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (isbn) DO NOTHING
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	created, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		book.ISBN, book.AmazonURL, book.Author, book.Language,
		book.Pages, book.Publisher, book.Title, book.Year,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, &domain.DuplicateError{ISBN: book.ISBN}
		}
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return created, nil
}

func (r *BookRepository) Update(ctx context.Context, isbn string, patch domain.BookPatch) (domain.Book, error) {
	if patch.Empty() {
		return r.FindOne(ctx, isbn)
	}

	cols := patch.Columns()
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, name := range slices.Sorted(maps.Keys(cols)) {
		args = append(args, cols[name])
		sets = append(sets, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, isbn)

	query := fmt.Sprintf(`UPDATE books SET %s WHERE isbn = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), bookColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	updated, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, &domain.NotFoundError{ISBN: isbn}
		}
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}

func (r *BookRepository) Remove(ctx context.Context, isbn string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE isbn = $1`, isbn)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{ISBN: isbn}
	}
	return nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ISBN, &b.AmazonURL, &b.Author, &b.Language, &b.Pages,
		&b.Publisher, &b.Title, &b.Year, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
