package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

var quotedName = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)

// SchemaService validates book payloads against the declared book schemas.
type SchemaService struct {
	schemas map[domain.SchemaKind]domain.BookSchema
	cache   sync.Map // key: domain.SchemaKind → *santhosh.Schema
}

func NewSchemaService(schemas ...domain.BookSchema) *SchemaService {
	s := &SchemaService{schemas: make(map[domain.SchemaKind]domain.BookSchema, len(schemas))}
	for _, sch := range schemas {
		s.schemas[sch.Kind] = sch
	}
	return s
}

// Document returns the JSON Schema document for kind.
func (s *SchemaService) Document(kind domain.SchemaKind) (json.RawMessage, error) {
	sch, ok := s.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("schema %q: %w", kind, domain.ErrNotFound)
	}
	return json.Marshal(sch.JSONSchema())
}

// Validate checks payload against the schema registered for kind. payload must
// be a value produced by encoding/json (json.Number is accepted). Returns
// *domain.ValidationError on failure.
func (s *SchemaService) Validate(kind domain.SchemaKind, payload any) error {
	compiled, err := s.compiled(kind)
	if err != nil {
		return err
	}
	if err := compiled.Validate(payload); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ValidationError{Kind: kind, Violations: collectViolations(ve)}
		}
		return &domain.ValidationError{Kind: kind, Violations: []domain.Violation{{Message: err.Error()}}}
	}
	return nil
}

func (s *SchemaService) compiled(kind domain.SchemaKind) (*santhosh.Schema, error) {
	if cached, ok := s.cache.Load(kind); ok {
		return cached.(*santhosh.Schema), nil
	}

	doc, err := s.Document(kind)
	if err != nil {
		return nil, err
	}
	compiled, err := compileSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", kind, err)
	}
	actual, _ := s.cache.LoadOrStore(kind, compiled)
	return actual.(*santhosh.Schema), nil
}

func compileSchema(schemaJSON json.RawMessage) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// collectViolations flattens the error tree into leaf violations. Keywords that
// name several properties at once are split so each violation points at one
// field.
func collectViolations(ve *santhosh.ValidationError) []domain.Violation {
	var out []domain.Violation
	for _, cause := range ve.Causes {
		out = append(out, collectViolations(cause)...)
	}
	if len(ve.Causes) > 0 {
		return out
	}

	switch {
	case strings.HasSuffix(ve.KeywordLocation, "/required"):
		for _, name := range quotedNames(ve.Message) {
			out = append(out, domain.Violation{Field: ve.InstanceLocation + "/" + name, Message: "is required"})
		}
	case strings.HasSuffix(ve.KeywordLocation, "/additionalProperties"):
		for _, name := range quotedNames(ve.Message) {
			out = append(out, domain.Violation{Field: ve.InstanceLocation + "/" + name, Message: "is not allowed"})
		}
	}
	if len(out) == 0 {
		out = append(out, domain.Violation{Field: ve.InstanceLocation, Message: ve.Message})
	}
	return out
}

func quotedNames(msg string) []string {
	matches := quotedName.FindAllStringSubmatch(msg, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.ReplaceAll(m[1], `\'`, `'`))
	}
	sort.Strings(names)
	return names
}
