package domain

import "time"

// Book is the only persisted entity. ISBN is the primary key and never
// changes after creation.
type Book struct {
	ISBN      string    `json:"isbn"`
	AmazonURL string    `json:"amazon_url"`
	Author    string    `json:"author"`
	Language  string    `json:"language"`
	Pages     int       `json:"pages"`
	Publisher string    `json:"publisher"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BookPatch carries the fields of a partial update. Nil means "leave as is".
type BookPatch struct {
	AmazonURL *string `json:"amazon_url"`
	Author    *string `json:"author"`
	Language  *string `json:"language"`
	Pages     *int    `json:"pages"`
	Publisher *string `json:"publisher"`
	Title     *string `json:"title"`
	Year      *int    `json:"year"`
}

func (p BookPatch) Empty() bool {
	return p.AmazonURL == nil && p.Author == nil && p.Language == nil &&
		p.Pages == nil && p.Publisher == nil && p.Title == nil && p.Year == nil
}

// Apply returns b with every non-nil field of p copied over.
func (p BookPatch) Apply(b Book) Book {
	if p.AmazonURL != nil {
		b.AmazonURL = *p.AmazonURL
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Language != nil {
		b.Language = *p.Language
	}
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
	if p.Publisher != nil {
		b.Publisher = *p.Publisher
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	return b
}

// Columns maps the set fields of p to their column names.
func (p BookPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.AmazonURL != nil {
		cols["amazon_url"] = *p.AmazonURL
	}
	if p.Author != nil {
		cols["author"] = *p.Author
	}
	if p.Language != nil {
		cols["language"] = *p.Language
	}
	if p.Pages != nil {
		cols["pages"] = *p.Pages
	}
	if p.Publisher != nil {
		cols["publisher"] = *p.Publisher
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Year != nil {
		cols["year"] = *p.Year
	}
	return cols
}

// BookFilter holds the exact-match filters accepted by list. Empty fields are
// not applied.
type BookFilter struct {
	Author    string
	Language  string
	Publisher string
	Title     string
	Year      *int
}
