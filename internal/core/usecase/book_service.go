package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
	"github.com/atvirokodosprendimai/booksapi/internal/core/ports"
	"github.com/atvirokodosprendimai/booksapi/internal/platform/logger"
)

// BookService runs one operation per request: validate the payload, make a
// single repository call, and report the result or a typed error.
type BookService struct {
	repo      ports.BookRepository
	schemas   *SchemaService
	publisher ports.EventPublisher
	requestID func(context.Context) string
	now       func() time.Time
}

type BookServiceOption func(*BookService)

// WithEventPublisher publishes a domain.BookEvent after every successful
// mutation. Publish failures are logged and do not fail the request.
func WithEventPublisher(p ports.EventPublisher) BookServiceOption {
	return func(s *BookService) { s.publisher = p }
}

// WithRequestID sets how the request id stamped on events is read from ctx.
func WithRequestID(fn func(context.Context) string) BookServiceOption {
	return func(s *BookService) { s.requestID = fn }
}

func NewBookService(repo ports.BookRepository, schemas *SchemaService, opts ...BookServiceOption) *BookService {
	s := &BookService{repo: repo, schemas: schemas, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookService) List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *BookService) Get(ctx context.Context, isbn string) (domain.Book, error) {
	return s.repo.FindOne(ctx, isbn)
}

func (s *BookService) Create(ctx context.Context, payload json.RawMessage) (domain.Book, error) {
	doc, err := decodePayload(payload)
	if err != nil {
		return domain.Book{}, err
	}
	if err := s.schemas.Validate(domain.SchemaCreation, doc); err != nil {
		return domain.Book{}, err
	}

	book, err := bookFromDocument(doc)
	if err != nil {
		return domain.Book{}, err
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return domain.Book{}, err
	}
	s.publish(ctx, domain.EventBookCreated, created.ISBN, created)
	return created, nil
}

// Update applies a partial update. A payload that names isbn is rejected
// before schema validation runs.
func (s *BookService) Update(ctx context.Context, isbn string, payload json.RawMessage) (domain.Book, error) {
	doc, err := decodePayload(payload)
	if err != nil {
		return domain.Book{}, err
	}
	if obj, ok := doc.(map[string]any); ok {
		if _, has := obj["isbn"]; has {
			return domain.Book{}, domain.ErrISBNInBody
		}
	}
	if err := s.schemas.Validate(domain.SchemaUpdate, doc); err != nil {
		return domain.Book{}, err
	}

	patch, err := patchFromDocument(doc)
	if err != nil {
		return domain.Book{}, err
	}

	updated, err := s.repo.Update(ctx, isbn, patch)
	if err != nil {
		return domain.Book{}, err
	}
	s.publish(ctx, domain.EventBookUpdated, updated.ISBN, updated)
	return updated, nil
}

func (s *BookService) Delete(ctx context.Context, isbn string) error {
	if err := s.repo.Remove(ctx, isbn); err != nil {
		return err
	}
	s.publish(ctx, domain.EventBookDeleted, isbn, nil)
	return nil
}

func (s *BookService) publish(ctx context.Context, eventType, isbn string, payload any) {
	if s.publisher == nil {
		return
	}
	event := domain.BookEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		ISBN:       isbn,
		OccurredAt: s.now().UTC(),
	}
	if s.requestID != nil {
		event.RequestID = s.requestID(ctx)
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			event.Payload = raw
		}
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Get().Warn().Err(err).
			Str("event_id", event.EventID).
			Str("event_type", eventType).
			Str("isbn", isbn).
			Msg("publish book event failed")
	}
}

// decodePayload parses a single JSON value, keeping numbers as json.Number so
// the schema can tell integers from fractions.
func decodePayload(payload json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJSON, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: extra json tokens", domain.ErrInvalidJSON)
	}
	return doc, nil
}
