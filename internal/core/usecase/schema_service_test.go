package usecase

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

func newTestSchemaService() *SchemaService {
	return NewSchemaService(domain.CreationSchema(), domain.UpdateSchema())
}

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	doc, err := decodePayload(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return doc
}

func violationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %v", err)
	}
	fields := make(map[string]string, len(ve.Violations))
	for _, v := range ve.Violations {
		fields[v.Field] = v.Message
	}
	return fields
}

const validCreation = `{"isbn":"121212123","amazon_url":"https://anime.com","author":"testname","language":"english","pages":1,"publisher":"testpublisher","title":"testitle","year":1500}`

func TestSchemaServiceAcceptsValidCreation(t *testing.T) {
	svc := newTestSchemaService()
	if err := svc.Validate(domain.SchemaCreation, mustDecode(t, validCreation)); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestSchemaServiceCreationReportsEachMissingField(t *testing.T) {
	svc := newTestSchemaService()
	err := svc.Validate(domain.SchemaCreation, mustDecode(t, `{"year":1999}`))
	fields := violationFields(t, err)

	for _, name := range []string{"isbn", "amazon_url", "author", "language", "pages", "publisher", "title"} {
		if fields["/"+name] != "is required" {
			t.Fatalf("expected /%s to be reported missing, got %v", name, fields)
		}
	}
	if _, ok := fields["/year"]; ok {
		t.Fatalf("year was present and should not be reported: %v", fields)
	}
}

func TestSchemaServiceCreationRejectsNull(t *testing.T) {
	svc := newTestSchemaService()
	payload := strings.Replace(validCreation, `"author":"testname"`, `"author":null`, 1)
	fields := violationFields(t, svc.Validate(domain.SchemaCreation, mustDecode(t, payload)))
	if _, ok := fields["/author"]; !ok {
		t.Fatalf("expected /author violation, got %v", fields)
	}
}

func TestSchemaServiceTypeAndConstraintViolations(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.SchemaKind
		payload string
		field   string
	}{
		{name: "pages as string", kind: domain.SchemaUpdate, payload: `{"pages":"ten"}`, field: "/pages"},
		{name: "pages zero", kind: domain.SchemaUpdate, payload: `{"pages":0}`, field: "/pages"},
		{name: "year fraction", kind: domain.SchemaUpdate, payload: `{"year":1999.5}`, field: "/year"},
		{name: "title empty", kind: domain.SchemaUpdate, payload: `{"title":""}`, field: "/title"},
		{name: "amazon_url not uri", kind: domain.SchemaUpdate, payload: `{"amazon_url":"not a url"}`, field: "/amazon_url"},
		{name: "unknown field", kind: domain.SchemaUpdate, payload: `{"bad_field":"I am bad data"}`, field: "/bad_field"},
		{name: "unknown field on create", kind: domain.SchemaCreation, payload: strings.Replace(validCreation, `{`, `{"extra":1,`, 1), field: "/extra"},
		{name: "not an object", kind: domain.SchemaUpdate, payload: `[1,2]`, field: ""},
		{name: "pages above int32", kind: domain.SchemaUpdate, payload: `{"pages":3000000000}`, field: "/pages"},
		{name: "year above int32", kind: domain.SchemaUpdate, payload: `{"year":2147483648}`, field: "/year"},
		{name: "year below int32", kind: domain.SchemaUpdate, payload: `{"year":-2147483649}`, field: "/year"},
		{name: "pages above int32 on create", kind: domain.SchemaCreation, payload: strings.Replace(validCreation, `"pages":1`, `"pages":3000000000`, 1), field: "/pages"},
	}

	svc := newTestSchemaService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := violationFields(t, svc.Validate(tt.kind, mustDecode(t, tt.payload)))
			if _, ok := fields[tt.field]; !ok {
				t.Fatalf("expected violation on %q, got %v", tt.field, fields)
			}
		})
	}
}

func TestSchemaServiceUpdateAcceptsSubsets(t *testing.T) {
	svc := newTestSchemaService()
	for _, payload := range []string{`{}`, `{"title":"UPDATED"}`, `{"pages":300,"year":-200}`, `{"pages":2147483647,"year":-2147483648}`} {
		if err := svc.Validate(domain.SchemaUpdate, mustDecode(t, payload)); err != nil {
			t.Fatalf("payload %s: unexpected error %v", payload, err)
		}
	}
}

func TestSchemaServiceDocument(t *testing.T) {
	svc := newTestSchemaService()
	raw, err := svc.Document(domain.SchemaUpdate)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc["additionalProperties"] != false {
		t.Fatalf("update schema must be closed: %v", doc)
	}
	if _, ok := doc["required"]; ok {
		t.Fatalf("update schema must not require fields: %v", doc["required"])
	}

	if _, err := svc.Document("draft"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown kind, got %v", err)
	}
}

func TestViolationString(t *testing.T) {
	v := domain.Violation{Field: "/pages", Message: "must be >= 1 but found 0"}
	if got := v.String(); got != "instance.pages: must be >= 1 but found 0" {
		t.Fatalf("unexpected string %q", got)
	}
}
