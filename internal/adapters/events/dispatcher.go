package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
	"github.com/atvirokodosprendimai/booksapi/internal/core/ports"
)

var (
	ErrQueueFull        = errors.New("event queue full")
	ErrDispatcherClosed = errors.New("event dispatcher closed")
)

// Dispatcher queues events in memory and hands them to its sinks from a
// single background loop, so request handlers never wait on delivery. Each
// sink is retried on its own with a growing backoff until maxAttempts; a sink
// that accepted an event never sees it again.
type Dispatcher struct {
	sinks       []ports.EventPublisher
	queue       chan domain.BookEvent
	maxAttempts int
	backoff     func(attempt int) time.Duration
	log         zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

type DispatcherMetrics struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Queued    int   `json:"queued"`
}

// NewDispatcher delivers to next. A Fanout is split into its members so each
// one is retried independently.
func NewDispatcher(next ports.EventPublisher, log zerolog.Logger, queueSize, maxAttempts int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	sinks := []ports.EventPublisher{next}
	if f, ok := next.(Fanout); ok {
		sinks = f
	}
	return &Dispatcher{
		sinks:       sinks,
		queue:       make(chan domain.BookEvent, queueSize),
		maxAttempts: maxAttempts,
		backoff:     backoffDuration,
		log:         log.With().Str("component", "dispatcher").Logger(),
	}
}

// Publish enqueues event. It never blocks; a full queue drops the event, and
// a closed dispatcher refuses it.
func (d *Dispatcher) Publish(_ context.Context, event domain.BookEvent) error {
	if d.closed.Load() {
		d.dropped.Add(1)
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left in the queue with one attempt each.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return nil
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) Start(parent context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		_ = d.Run(ctx)
	}()
}

func (d *Dispatcher) Close() error {
	d.closed.Store(true)
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (d *Dispatcher) Metrics() DispatcherMetrics {
	return DispatcherMetrics{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
		Queued:    len(d.queue),
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event domain.BookEvent) {
	var (
		pending  = d.sinks
		rejected int
		lastErr  error
	)
	for attempt := 1; ; attempt++ {
		var retry []ports.EventPublisher
		for _, sink := range pending {
			err := sink.Publish(ctx, event)
			switch {
			case err == nil:
			case errors.Is(err, ErrPermanent):
				rejected++
				lastErr = err
			default:
				retry = append(retry, sink)
				lastErr = err
			}
		}

		if len(retry) == 0 || attempt >= d.maxAttempts || ctx.Err() != nil {
			if len(retry) == 0 && rejected == 0 {
				d.delivered.Add(1)
				return
			}
			d.failed.Add(1)
			d.log.Error().Err(lastErr).
				Str("event_id", event.EventID).
				Str("event_type", event.EventType).
				Int("attempts", attempt).
				Int("failed_sinks", len(retry)+rejected).
				Msg("book event delivery failed")
			return
		}
		pending = retry

		timer := time.NewTimer(d.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-d.queue:
			var errs []error
			for _, sink := range d.sinks {
				if err := sink.Publish(ctx, event); err != nil {
					errs = append(errs, err)
				}
			}
			if err := errors.Join(errs...); err != nil {
				d.failed.Add(1)
				d.log.Warn().Err(err).Str("event_id", event.EventID).Msg("drop book event on shutdown")
				continue
			}
			d.delivered.Add(1)
		default:
			return
		}
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt <= 1 {
		return 500 * time.Millisecond
	}
	d := time.Duration(attempt*attempt) * 500 * time.Millisecond
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}
