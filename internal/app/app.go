package app

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/atvirokodosprendimai/booksapi/internal/adapters/events"
	"github.com/atvirokodosprendimai/booksapi/internal/adapters/httpapi"
	"github.com/atvirokodosprendimai/booksapi/internal/adapters/postgres"
	sqliteadapter "github.com/atvirokodosprendimai/booksapi/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/booksapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
	"github.com/atvirokodosprendimai/booksapi/internal/core/ports"
	"github.com/atvirokodosprendimai/booksapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/booksapi/internal/platform/logger"
	"github.com/atvirokodosprendimai/booksapi/migrations"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr   string `validate:"required"`
	Driver string `validate:"required,oneof=sqlite postgres"`
	DBPath string `validate:"required_if=Driver sqlite"`
	DSN    string `validate:"required_if=Driver postgres"`

	QueryTimeout time.Duration `validate:"gte=0"`

	LogLevel  string `validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat string `validate:"omitempty,oneof=json console"`

	WebhookURL     string        `validate:"omitempty,url"`
	WebhookSecret  string        `validate:"required_with=WebhookURL"`
	WebhookTimeout time.Duration `validate:"gte=0"`
	EventQueueSize int           `validate:"gte=0"`
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type storage struct {
	repo   ports.BookRepository
	ping   func(context.Context) error
	closer io.Closer
}

func openStorage(ctx context.Context, cfg Config) (storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Driver {
	case DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return storage{}, err
		}
		return storage{
			repo:   postgres.NewBookRepository(pool, cfg.QueryTimeout),
			ping:   pool.Ping,
			closer: closerFunc(func() error { pool.Close(); return nil }),
		}, nil
	default:
		db, err := gormsqlite.Open(cfg.DBPath)
		if err != nil {
			return storage{}, fmt.Errorf("open sqlite: %w", err)
		}
		writeSQLDB, err := db.WriteSQLDB()
		if err != nil {
			_ = db.Close()
			return storage{}, fmt.Errorf("resolve writer sql db: %w", err)
		}
		if err := migrations.Up(ctx, writeSQLDB, migrations.SQLite); err != nil {
			_ = db.Close()
			return storage{}, err
		}
		return storage{
			repo:   sqliteadapter.NewBookRepository(db),
			ping:   db.Ping,
			closer: db,
		}, nil
	}
}

// NewServer wires storage, services and the router. The returned closer stops
// event delivery before closing storage.
func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := *logger.Get()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	publishers := events.Fanout{events.NewLogPublisher(log)}
	if cfg.WebhookURL != "" {
		publishers = append(publishers, events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout))
	}
	dispatcher := events.NewDispatcher(publishers, log, cfg.EventQueueSize, 5)
	dispatcher.Start(context.Background())

	schemas := usecase.NewSchemaService(domain.CreationSchema(), domain.UpdateSchema())
	books := usecase.NewBookService(store.repo, schemas,
		usecase.WithEventPublisher(dispatcher),
		usecase.WithRequestID(httpapi.RequestID),
	)

	handler := httpapi.NewHandler(books, schemas,
		httpapi.WithLogger(log.With().Str("component", "http").Logger()),
		httpapi.WithPing(store.ping),
		httpapi.WithEventMetrics(func() any { return dispatcher.Metrics() }),
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          stdLogger(log),
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, store.closer}}, nil
}

// stdLogger adapts zerolog for http.Server, which only accepts *log.Logger.
func stdLogger(log zerolog.Logger) *stdlog.Logger {
	return stdlog.New(log.With().Str("component", "net/http").Logger(), "", 0)
}
