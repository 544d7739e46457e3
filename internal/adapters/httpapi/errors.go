package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

// Outcome is the uniform error body. Every failure is rendered from one.
type Outcome struct {
	Status     int                `json:"status"`
	Message    string             `json:"message"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func translate(err error) Outcome {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		duplicate  *domain.DuplicateError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validation):
		return Outcome{
			Status:     http.StatusBadRequest,
			Message:    fmt.Sprintf("%s payload failed validation", validation.Kind),
			Violations: validation.Violations,
		}
	case errors.Is(err, domain.ErrISBNInBody):
		return Outcome{Status: http.StatusBadRequest, Message: domain.ErrISBNInBody.Error()}
	case errors.As(err, &tooLarge):
		return Outcome{Status: http.StatusRequestEntityTooLarge, Message: "request body too large"}
	case errors.Is(err, domain.ErrInvalidJSON):
		return Outcome{Status: http.StatusBadRequest, Message: domain.ErrInvalidJSON.Error()}
	case errors.Is(err, domain.ErrInvalidFilter):
		return Outcome{Status: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &notFound):
		return Outcome{Status: http.StatusNotFound, Message: notFound.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return Outcome{Status: http.StatusNotFound, Message: err.Error()}
	case errors.As(err, &duplicate):
		return Outcome{Status: http.StatusConflict, Message: duplicate.Error()}
	default:
		return Outcome{Status: http.StatusInternalServerError, Message: err.Error()}
	}
}

// writeOutcome is the single place failures are written to the client.
func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, err error) {
	out := translate(err)
	if out.Status >= http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", RequestID(r.Context())).
			Msg("request failed")
	}
	writeJSON(w, out.Status, out)
}
