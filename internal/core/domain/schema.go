package domain

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// SchemaKind selects which book schema a payload is checked against.
type SchemaKind string

const (
	SchemaCreation SchemaKind = "creation"
	SchemaUpdate   SchemaKind = "update"
)

func ParseSchemaKind(s string) (SchemaKind, error) {
	switch SchemaKind(s) {
	case SchemaCreation, SchemaUpdate:
		return SchemaKind(s), nil
	}
	return "", fmt.Errorf("unknown schema kind %q: %w", s, ErrNotFound)
}

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
)

// FieldRule declares the constraints for a single payload field.
type FieldRule struct {
	Type      FieldType
	Required  bool
	Format    string
	MinLength *int
	Minimum   *int
	Maximum   *int
	Enum      []string
}

// BookSchema is a closed set of field rules. Fields not listed are rejected.
type BookSchema struct {
	Kind   SchemaKind
	Fields map[string]FieldRule
}

// JSONSchema renders the descriptor as a draft-7 JSON Schema document.
func (s BookSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, name := range slices.Sorted(maps.Keys(s.Fields)) {
		rule := s.Fields[name]
		prop := map[string]any{"type": string(rule.Type)}
		if rule.Format != "" {
			prop["format"] = rule.Format
		}
		if rule.MinLength != nil {
			prop["minLength"] = *rule.MinLength
		}
		if rule.Minimum != nil {
			prop["minimum"] = *rule.Minimum
		}
		if rule.Maximum != nil {
			prop["maximum"] = *rule.Maximum
		}
		if len(rule.Enum) > 0 {
			prop["enum"] = rule.Enum
		}
		props[name] = prop
		if rule.Required {
			required = append(required, name)
		}
	}

	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"$id":                  "https://booksapi.local/schemas/book-" + string(s.Kind) + ".json",
		"title":                "book " + string(s.Kind),
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func intPtr(v int) *int { return &v }

// CreationSchema requires every book field, isbn included.
func CreationSchema() BookSchema {
	return BookSchema{Kind: SchemaCreation, Fields: bookFields(true, true)}
}

// UpdateSchema accepts any subset of the mutable fields. isbn is not part of
// the set.
func UpdateSchema() BookSchema {
	return BookSchema{Kind: SchemaUpdate, Fields: bookFields(false, false)}
}

// Integer columns are 32-bit in every supported store, so integer fields are
// bounded to that range.
func bookFields(required, withISBN bool) map[string]FieldRule {
	nonEmpty := func() FieldRule {
		return FieldRule{Type: FieldString, Required: required, MinLength: intPtr(1)}
	}
	fields := map[string]FieldRule{
		"amazon_url": {Type: FieldString, Required: required, Format: "uri"},
		"author":     nonEmpty(),
		"language":   nonEmpty(),
		"pages":      {Type: FieldInteger, Required: required, Minimum: intPtr(1), Maximum: intPtr(math.MaxInt32)},
		"publisher":  nonEmpty(),
		"title":      nonEmpty(),
		"year":       {Type: FieldInteger, Required: required, Minimum: intPtr(math.MinInt32), Maximum: intPtr(math.MaxInt32)},
	}
	if withISBN {
		fields["isbn"] = nonEmpty()
	}
	return fields
}
