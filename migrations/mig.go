package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/atvirokodosprendimai/booksapi/internal/platform/logger"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

//go:embed files/sqlite/*.sql files/postgres/*.sql
var migrationFS embed.FS

// goose keeps its dialect and base FS in package globals.
var mu sync.Mutex

// Up applies every pending migration for dialect.
func Up(ctx context.Context, db *sql.DB, dialect Dialect) error {
	dir, err := dirFor(dialect)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Version reports the latest applied migration version.
func Version(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	if _, err := dirFor(dialect); err != nil {
		return 0, err
	}

	mu.Lock()
	defer mu.Unlock()

	if err := goose.SetDialect(string(dialect)); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return v, nil
}

func dirFor(dialect Dialect) (string, error) {
	switch dialect {
	case SQLite:
		return path.Join("files", "sqlite"), nil
	case Postgres:
		return path.Join("files", "postgres"), nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	logger.Get().Debug().Str("component", "goose").Msgf(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...any) {
	logger.Get().Fatal().Str("component", "goose").Msgf(format, v...)
}
