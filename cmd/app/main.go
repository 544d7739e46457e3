package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/atvirokodosprendimai/booksapi/internal/app"
	"github.com/atvirokodosprendimai/booksapi/internal/platform/logger"
)

func main() {
	// Missing files are fine; real environment variables win over both.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cmd := &cli.Command{
		Name:  "booksapi",
		Usage: "JSON API for a books collection with schema-validated writes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("BOOKSAPI_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "driver",
				Value:   app.DriverSQLite,
				Sources: cli.EnvVars("BOOKSAPI_DRIVER"),
				Usage:   "Storage driver: sqlite or postgres",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./booksapi.sqlite",
				Sources: cli.EnvVars("BOOKSAPI_DB_PATH"),
				Usage:   "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "dsn",
				Sources: cli.EnvVars("BOOKSAPI_DSN", "DATABASE_URL"),
				Usage:   "Postgres connection string",
			},
			&cli.DurationFlag{
				Name:    "query-timeout",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("BOOKSAPI_QUERY_TIMEOUT"),
				Usage:   "Per-query timeout for the postgres driver",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("BOOKSAPI_LOG_LEVEL"),
				Usage:   "trace, debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Sources: cli.EnvVars("BOOKSAPI_LOG_FORMAT"),
				Usage:   "json or console",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("BOOKSAPI_WEBHOOK_URL"),
				Usage:   "Book event webhook target URL",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("BOOKSAPI_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for webhook requests",
			},
			&cli.DurationFlag{
				Name:    "webhook-timeout",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("BOOKSAPI_WEBHOOK_TIMEOUT"),
				Usage:   "Timeout for a single webhook delivery",
			},
			&cli.IntFlag{
				Name:    "event-queue-size",
				Value:   256,
				Sources: cli.EnvVars("BOOKSAPI_EVENT_QUEUE_SIZE"),
				Usage:   "Book events buffered before new ones are dropped",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Get().Fatal().Err(err).Msg("booksapi stopped")
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg := app.Config{
		Addr:           c.String("addr"),
		Driver:         c.String("driver"),
		DBPath:         c.String("db-path"),
		DSN:            c.String("dsn"),
		QueryTimeout:   c.Duration("query-timeout"),
		LogLevel:       c.String("log-level"),
		LogFormat:      c.String("log-format"),
		WebhookURL:     c.String("webhook-url"),
		WebhookSecret:  c.String("webhook-secret"),
		WebhookTimeout: c.Duration("webhook-timeout"),
		EventQueueSize: int(c.Int("event-queue-size")),
	}
	log := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	server, closer, err := app.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("close resources")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Msg("listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
