package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNoDocument is returned when no document matches a filter.
	ErrNoDocument = errors.New("no matching document")
	// ErrDuplicateKey is returned when an insert collides with an existing key value.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrMissingKey is returned when a document lacks its collection's key field.
	ErrMissingKey = errors.New("document missing key field")
	// ErrInvalidUpdate is returned for updates that do not fit the document's shape.
	ErrInvalidUpdate = errors.New("invalid update")
	// ErrInvalidFilter is returned for filters naming unusable fields.
	ErrInvalidFilter = errors.New("invalid filter")
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Document is a single record: top-level field names mapped to JSON-compatible values.
type Document map[string]any

// Filter selects documents by equality on top-level fields. An empty filter matches every document.
type Filter map[string]any

// Keys maps a collection name to the field holding its unique key.
type Keys map[string]string

// Store is a collection-oriented document store.
type Store interface {
	// FetchAll returns every document in the collection, keyed by the value of keyField.
	FetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error)
	// FetchOne returns the first document matching filters or [ErrNoDocument].
	FetchOne(ctx context.Context, collection string, filters Filter) (Document, error)
	// Insert adds a document to the collection.
	Insert(ctx context.Context, collection string, doc Document) error
	// Update applies a field-level update to the first matching document or returns [ErrNoDocument].
	Update(ctx context.Context, collection string, filters Filter, update Update) error
	// DeleteOne removes the first matching document or returns [ErrNoDocument].
	DeleteOne(ctx context.Context, collection string, filters Filter) error
	// DeleteMany removes every document in the collection.
	DeleteMany(ctx context.Context, collection string) error
}

// Transactor is implemented by stores that can run several calls as one unit.
//
// If fn returns an error every change it made through the given [Store] is discarded.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

func validateFilter(filters Filter) error {
	for field := range filters {
		if !fieldPattern.MatchString(field) {
			return fmt.Errorf("%w: field %q", ErrInvalidFilter, field)
		}
	}
	return nil
}

// keyOf returns the key value of doc for the collection's key field.
func keyOf(doc Document, keyField string) (string, bool) {
	v, ok := doc[keyField]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return s, s != ""
}

// touchesKey reports whether update writes to keyField.
func touchesKey(update Update, keyField string) bool {
	if keyField == "" {
		return false
	}
	_, push := update.Push[keyField]
	_, pull := update.Pull[keyField]
	_, inc := update.Inc[keyField]
	return push || pull || inc
}
