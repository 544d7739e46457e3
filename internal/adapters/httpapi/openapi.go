package httpapi

func openapiSpec() map[string]any {
	bookRef := map[string]any{"$ref": "#/components/schemas/Book"}
	errorRef := map[string]any{"$ref": "#/components/schemas/Error"}
	jsonContent := func(schema map[string]any) map[string]any {
		return map[string]any{"application/json": map[string]any{"schema": schema}}
	}
	isbnParam := map[string]any{
		"name": "isbn", "in": "path", "required": true,
		"schema": map[string]any{"type": "string"},
	}
	errResp := func(desc string) map[string]any {
		return map[string]any{"description": desc, "content": jsonContent(errorRef)}
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "booksapi",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/books": map[string]any{
				"get": map[string]any{
					"summary": "List books",
					"parameters": []any{
						map[string]any{"name": "author", "in": "query", "schema": map[string]any{"type": "string"}},
						map[string]any{"name": "language", "in": "query", "schema": map[string]any{"type": "string"}},
						map[string]any{"name": "publisher", "in": "query", "schema": map[string]any{"type": "string"}},
						map[string]any{"name": "title", "in": "query", "schema": map[string]any{"type": "string"}},
						map[string]any{"name": "year", "in": "query", "schema": map[string]any{"type": "integer"}},
					},
					"responses": map[string]any{
						"200": map[string]any{"description": "Books ordered by title"},
						"400": errResp("Invalid filter"),
					},
				},
				"post": map[string]any{
					"summary":     "Create book",
					"requestBody": map[string]any{"required": true, "content": jsonContent(bookRef)},
					"responses": map[string]any{
						"201": map[string]any{"description": "Created"},
						"400": errResp("Validation failed"),
						"409": errResp("Duplicate isbn"),
					},
				},
			},
			"/books/{isbn}": map[string]any{
				"parameters": []any{isbnParam},
				"get": map[string]any{
					"summary":   "Get book",
					"responses": map[string]any{"200": map[string]any{"description": "Book"}, "404": errResp("Not found")},
				},
				"put": map[string]any{
					"summary":     "Partially update book",
					"requestBody": map[string]any{"required": true, "content": jsonContent(map[string]any{"$ref": "#/components/schemas/BookUpdate"})},
					"responses": map[string]any{
						"200": map[string]any{"description": "Updated book"},
						"400": errResp("Validation failed or isbn in body"),
						"404": errResp("Not found"),
					},
				},
				"delete": map[string]any{
					"summary":   "Delete book",
					"responses": map[string]any{"200": map[string]any{"description": "Book deleted"}, "404": errResp("Not found")},
				},
			},
			"/books/schemas/{kind}": map[string]any{
				"get": map[string]any{
					"summary": "JSON Schema for creation or update payloads",
					"parameters": []any{map[string]any{
						"name": "kind", "in": "path", "required": true,
						"schema": map[string]any{"type": "string", "enum": []string{"creation", "update"}},
					}},
					"responses": map[string]any{"200": map[string]any{"description": "JSON Schema document"}, "404": errResp("Unknown kind")},
				},
			},
			"/healthz": map[string]any{
				"get": map[string]any{"summary": "Liveness and storage check"},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Book":       map[string]any{"description": "See GET /books/schemas/creation"},
				"BookUpdate": map[string]any{"description": "See GET /books/schemas/update"},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status":  map[string]any{"type": "integer"},
						"message": map[string]any{"type": "string"},
						"violations": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"field":   map[string]any{"type": "string"},
									"message": map[string]any{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}
}
