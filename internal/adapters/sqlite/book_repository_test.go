package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/booksapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
	"github.com/atvirokodosprendimai/booksapi/migrations"
)

func newTestRepository(t *testing.T) *BookRepository {
	t.Helper()
	ctx := context.Background()

	db, err := gormsqlite.Open(filepath.Join(t.TempDir(), "books.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	require.NoError(t, err)
	require.NoError(t, migrations.Up(ctx, sqlDB, migrations.SQLite))

	return NewBookRepository(db)
}

func kennyBook() domain.Book {
	return domain.Book{
		ISBN:      "123432122",
		AmazonURL: "https://amazon.com/anime",
		Author:    "Kenny",
		Language:  "English",
		Pages:     100,
		Publisher: "LOL's Printing",
		Title:     "my first book",
		Year:      2019,
	}
}

func TestBookRepositorySeedThenList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Create(ctx, kennyBook())
	require.NoError(t, err)

	books, err := repo.FindAll(ctx, domain.BookFilter{})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "LOL's Printing", books[0].Publisher)
	assert.Equal(t, "https://amazon.com/anime", books[0].AmazonURL)
	assert.False(t, books[0].CreatedAt.IsZero())
}

func TestBookRepositoryFindAllFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seed := []domain.Book{kennyBook(), kennyBook(), kennyBook()}
	seed[0].ISBN, seed[0].Title = "3", "b"
	seed[1].ISBN, seed[1].Title, seed[1].Author = "2", "a", "Ann"
	seed[2].ISBN, seed[2].Title, seed[2].Year = "1", "b", 1990
	for _, b := range seed {
		_, err := repo.Create(ctx, b)
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx, domain.BookFilter{})
	require.NoError(t, err)
	var order []string
	for _, b := range all {
		order = append(order, b.ISBN)
	}
	assert.Equal(t, []string{"2", "1", "3"}, order)

	byAuthor, err := repo.FindAll(ctx, domain.BookFilter{Author: "Ann"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "2", byAuthor[0].ISBN)

	year := 1990
	byYear, err := repo.FindAll(ctx, domain.BookFilter{Year: &year, Title: "b"})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, "1", byYear[0].ISBN)

	none, err := repo.FindAll(ctx, domain.BookFilter{Language: "Klingon"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookRepositoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Create(ctx, kennyBook())
	require.NoError(t, err)

	_, err = repo.Create(ctx, kennyBook())
	require.ErrorIs(t, err, domain.ErrDuplicateISBN)
	var dup *domain.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "123432122", dup.ISBN)
}

func TestBookRepositoryUpdateChangesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }
	_, err := repo.Create(ctx, kennyBook())
	require.NoError(t, err)

	repo.now = func() time.Time { return base.Add(time.Hour) }
	title := "UPDATED"
	got, err := repo.Update(ctx, "123432122", domain.BookPatch{Title: &title})
	require.NoError(t, err)

	want := kennyBook()
	want.Title = "UPDATED"
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Author, got.Author)
	assert.Equal(t, want.Pages, got.Pages)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	stored, err := repo.FindOne(ctx, "123432122")
	require.NoError(t, err)
	assert.Equal(t, "UPDATED", stored.Title)
}

func TestBookRepositoryEmptyPatchReturnsCurrent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Create(ctx, kennyBook())
	require.NoError(t, err)

	got, err := repo.Update(ctx, "123432122", domain.BookPatch{})
	require.NoError(t, err)
	assert.Equal(t, "my first book", got.Title)
}

func TestBookRepositoryMissingISBN(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.FindOne(ctx, "asdsada")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "There is no book with an isbn 'asdsada'")

	title := "x"
	_, err = repo.Update(ctx, "asdsada", domain.BookPatch{Title: &title})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.ErrorIs(t, repo.Remove(ctx, "asdsada"), domain.ErrNotFound)
}

func TestBookRepositoryRemove(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Create(ctx, kennyBook())
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, "123432122"))

	_, err = repo.FindOne(ctx, "123432122")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := gormsqlite.Open(filepath.Join(t.TempDir(), "migrate.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	require.NoError(t, err)

	require.NoError(t, migrations.Up(ctx, sqlDB, migrations.SQLite))
	require.NoError(t, migrations.Up(ctx, sqlDB, migrations.SQLite))

	version, err := migrations.Version(ctx, sqlDB, migrations.SQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
