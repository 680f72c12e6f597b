package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Update is a field-level mutation of a single document.
//
// Push appends a value to an array field, creating the array when the field is absent.
// Pull removes every element equal to the value from an array field; an absent field is left alone.
// Inc adds a delta to a numeric field, treating an absent field as zero.
type Update struct {
	Push map[string]any
	Pull map[string]any
	Inc  map[string]int64
}

// Push returns an [Update] appending value to field.
func Push(field string, value any) Update {
	return Update{Push: map[string]any{field: value}}
}

// Pull returns an [Update] removing value from field.
func Pull(field string, value any) Update {
	return Update{Pull: map[string]any{field: value}}
}

// Inc returns an [Update] adding delta to field.
func Inc(field string, delta int64) Update {
	return Update{Inc: map[string]int64{field: delta}}
}

// IsEmpty reports whether the update carries no operations.
func (u Update) IsEmpty() bool {
	return len(u.Push) == 0 && len(u.Pull) == 0 && len(u.Inc) == 0
}

// Fields returns the sorted set of fields the update writes.
func (u Update) Fields() []string {
	seen := map[string]struct{}{}
	for f := range u.Push {
		seen[f] = struct{}{}
	}
	for f := range u.Pull {
		seen[f] = struct{}{}
	}
	for f := range u.Inc {
		seen[f] = struct{}{}
	}

	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// String renders the update in the familiar {$push: ...} notation for logs.
func (u Update) String() string {
	parts := map[string]any{}
	if len(u.Push) > 0 {
		parts["$push"] = u.Push
	}
	if len(u.Pull) > 0 {
		parts["$pull"] = u.Pull
	}
	if len(u.Inc) > 0 {
		parts["$inc"] = u.Inc
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return fmt.Sprintf("%#v", u)
	}
	return string(b)
}

// Apply returns a copy of doc with the update applied. doc itself is never modified.
//
// Operations run in pull, push, inc order. A field that does not have the shape an operation needs
// fails the whole update with [ErrInvalidUpdate].
func Apply(doc Document, u Update) (Document, error) {
	if u.IsEmpty() {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidUpdate)
	}
	for _, f := range u.Fields() {
		if !fieldPattern.MatchString(f) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidUpdate, f)
		}
	}

	out, err := Normalize(doc)
	if err != nil {
		return nil, err
	}

	for field, value := range u.Pull {
		current, ok := out[field]
		if !ok || current == nil {
			continue
		}
		arr, ok := current.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: pull from non-array field %q", ErrInvalidUpdate, field)
		}
		kept := make([]any, 0, len(arr))
		for _, el := range arr {
			if !valuesEqual(el, value) {
				kept = append(kept, el)
			}
		}
		out[field] = kept
	}

	for field, value := range u.Push {
		nv, err := normalizeValue(value)
		if err != nil {
			return nil, err
		}
		current, ok := out[field]
		if !ok || current == nil {
			out[field] = []any{nv}
			continue
		}
		arr, ok := current.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: push to non-array field %q", ErrInvalidUpdate, field)
		}
		out[field] = append(arr, nv)
	}

	for field, delta := range u.Inc {
		current, ok := out[field]
		if !ok || current == nil {
			out[field] = json.Number(strconv.FormatInt(delta, 10))
			continue
		}
		num, ok := current.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: inc on non-numeric field %q", ErrInvalidUpdate, field)
		}
		if i, err := num.Int64(); err == nil {
			out[field] = json.Number(strconv.FormatInt(i+delta, 10))
			continue
		}
		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: inc on non-numeric field %q", ErrInvalidUpdate, field)
		}
		out[field] = json.Number(strconv.FormatFloat(f+float64(delta), 'f', -1, 64))
	}

	return out, nil
}

// Matches reports whether doc satisfies every equality in filters.
func Matches(doc Document, filters Filter) bool {
	for field, want := range filters {
		got, ok := doc[field]
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Normalize deep-copies doc into its canonical form: JSON-compatible values with numbers as [json.Number].
func Normalize(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return decodeDocument(b)
}

// Encode converts a struct (or any JSON-marshalable value) into a [Document].
func Encode(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return decodeDocument(b)
}

// Decode fills v from doc using the same field names as JSON struct tags.
func Decode(doc Document, v any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func decodeDocument(b []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func normalizeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: value not JSON-compatible: %v", ErrInvalidUpdate, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	return out, nil
}

// valuesEqual compares two values by their JSON encoding, so 1, int64(1) and json.Number("1") are equal.
func valuesEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
