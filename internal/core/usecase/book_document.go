package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

// bookFromDocument reads a Book out of a payload that already passed the
// creation schema. Integers are taken from the json.Number text, so forms the
// schema accepts as integers (1999.0, 1e2) decode to the same value.
func bookFromDocument(doc any) (domain.Book, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: expected object", domain.ErrInvalidJSON)
	}

	var (
		book domain.Book
		err  error
	)
	strs := []struct {
		name string
		dst  *string
	}{
		{"isbn", &book.ISBN},
		{"amazon_url", &book.AmazonURL},
		{"author", &book.Author},
		{"language", &book.Language},
		{"publisher", &book.Publisher},
		{"title", &book.Title},
	}
	for _, f := range strs {
		if *f.dst, _, err = stringField(obj, f.name); err != nil {
			return domain.Book{}, err
		}
	}
	if book.Pages, _, err = intField(obj, "pages"); err != nil {
		return domain.Book{}, err
	}
	if book.Year, _, err = intField(obj, "year"); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// patchFromDocument reads the fields present in an update payload that
// already passed the update schema.
func patchFromDocument(doc any) (domain.BookPatch, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return domain.BookPatch{}, fmt.Errorf("%w: expected object", domain.ErrInvalidJSON)
	}

	var patch domain.BookPatch
	strs := []struct {
		name string
		dst  **string
	}{
		{"amazon_url", &patch.AmazonURL},
		{"author", &patch.Author},
		{"language", &patch.Language},
		{"publisher", &patch.Publisher},
		{"title", &patch.Title},
	}
	for _, f := range strs {
		v, present, err := stringField(obj, f.name)
		if err != nil {
			return domain.BookPatch{}, err
		}
		if present {
			*f.dst = &v
		}
	}

	ints := []struct {
		name string
		dst  **int
	}{
		{"pages", &patch.Pages},
		{"year", &patch.Year},
	}
	for _, f := range ints {
		v, present, err := intField(obj, f.name)
		if err != nil {
			return domain.BookPatch{}, err
		}
		if present {
			*f.dst = &v
		}
	}
	return patch, nil
}

func stringField(obj map[string]any, name string) (string, bool, error) {
	raw, ok := obj[name]
	if !ok {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, fmt.Errorf("%w: %s must be a string", domain.ErrInvalidJSON, name)
	}
	return s, true, nil
}

func intField(obj map[string]any, name string) (int, bool, error) {
	raw, ok := obj[name]
	if !ok {
		return 0, false, nil
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, true, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidJSON, name)
	}
	n, err := integerValue(num)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s: %v", domain.ErrInvalidJSON, name, err)
	}
	return n, true, nil
}

// integerValue converts any JSON number with no fractional part to int.
func integerValue(num json.Number) (int, error) {
	f, err := strconv.ParseFloat(num.String(), 64)
	if err != nil || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%s is out of range", num)
	}
	r, ok := new(big.Rat).SetString(num.String())
	if !ok {
		return 0, fmt.Errorf("malformed number %q", num)
	}
	if !r.IsInt() {
		return 0, fmt.Errorf("%s is not an integer", num)
	}
	n := r.Num()
	if !n.IsInt64() || n.Int64() > math.MaxInt32 || n.Int64() < math.MinInt32 {
		return 0, fmt.Errorf("%s is out of range", num)
	}
	return int(n.Int64()), nil
}
