package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrISBNInBody    = errors.New("ISBN in body not allowed")
	ErrDuplicateISBN = errors.New("duplicate isbn")
	ErrInvalidJSON   = errors.New("invalid json body")
	ErrInvalidFilter = errors.New("invalid filter")
)

// NotFoundError reports a lookup by isbn that matched no book.
type NotFoundError struct {
	ISBN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("There is no book with an isbn '%s'", e.ISBN)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateError reports a create that collided with an existing isbn.
type DuplicateError struct {
	ISBN string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Book with isbn '%s' already exists", e.ISBN)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateISBN }

// Violation is one failed schema constraint. Field is a JSON pointer into the
// payload; it is empty when the constraint applies to the whole document.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return "instance: " + v.Message
	}
	return "instance" + strings.ReplaceAll(v.Field, "/", ".") + ": " + v.Message
}

// ValidationError is returned when a payload does not conform to a book
// schema.
type ValidationError struct {
	Kind       SchemaKind
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("%s payload failed validation: %s", e.Kind, strings.Join(msgs, "; "))
}
