package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
	"github.com/atvirokodosprendimai/booksapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/booksapi/internal/platform/logger"
)

const maxJSONBodySize = 1 << 20

type Handler struct {
	books   *usecase.BookService
	schemas *usecase.SchemaService
	log     zerolog.Logger

	ping    func(context.Context) error
	metrics func() any
}

type HandlerOption func(*Handler)

// WithPing makes /healthz report storage reachability.
func WithPing(fn func(context.Context) error) HandlerOption {
	return func(h *Handler) { h.ping = fn }
}

// WithEventMetrics adds event delivery counters to /healthz.
func WithEventMetrics(fn func() any) HandlerOption {
	return func(h *Handler) { h.metrics = fn }
}

func WithLogger(log zerolog.Logger) HandlerOption {
	return func(h *Handler) { h.log = log }
}

func NewHandler(books *usecase.BookService, schemas *usecase.SchemaService, opts ...HandlerOption) *Handler {
	h := &Handler{books: books, schemas: schemas, log: *logger.Get()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(h.recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, Outcome{Status: http.StatusNotFound, Message: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Outcome{Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"})
	})

	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Route("/books", func(br chi.Router) {
		br.Get("/", h.list)
		br.Post("/", h.create)
		br.Get("/schemas/{kind}", h.schema)
		br.Get("/{isbn}", h.get)
		br.Put("/{isbn}", h.update)
		br.Delete("/{isbn}", h.delete)
	})

	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}

	books, err := h.books.List(r.Context(), filter)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	if books == nil {
		books = []domain.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.Get(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": book})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}

	book, err := h.books.Create(r.Context(), body)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"newBook": book})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}

	book, err := h.books.Update(r.Context(), chi.URLParam(r, "isbn"), body)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": book})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Delete(r.Context(), chi.URLParam(r, "isbn")); err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted"})
}

func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseSchemaKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	doc, err := h.schemas.Document(kind)
	if err != nil {
		h.writeOutcome(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(doc, '\n'))
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"ok": true}
	status := http.StatusOK
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			body["ok"] = false
			body["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if h.metrics != nil {
		body["events"] = h.metrics()
	}
	writeJSON(w, status, body)
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

// parseFilter reads the exact-match list filters. Unrecognized keys are
// ignored.
func parseFilter(r *http.Request) (domain.BookFilter, error) {
	q := r.URL.Query()
	filter := domain.BookFilter{
		Author:    q.Get("author"),
		Language:  q.Get("language"),
		Publisher: q.Get("publisher"),
		Title:     q.Get("title"),
	}
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return domain.BookFilter{}, fmt.Errorf("%w: year must be integer", domain.ErrInvalidFilter)
		}
		filter.Year = &year
	}
	return filter, nil
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// RequestID returns the id assigned by the request id middleware, or "".
func RequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// encodeFailureBody is written when a response cannot be marshalled, so
// clients still get an Outcome.
const encodeFailureBody = `{"status":500,"message":"internal server error"}`

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Get().Error().Err(err).Msg("encode json response")
		data, status = []byte(encodeFailureBody), http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		logger.Get().Warn().Err(err).Msg("write response")
	}
}
	
