package docstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps collections in process memory.
//
// Every call holds the store lock for its whole duration, so individual updates are serialized.
// Documents are copied on the way in and out; callers never share maps with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

// memState holds the collections and implements the operations without locking.
type memState struct {
	keys        Keys
	collections map[string][]Document
}

// memTx is the [Store] handed to [MemoryStore.WithTx] callbacks. The outer lock is already held.
type memTx struct {
	state *memState
}

var (
	_ Store      = (*MemoryStore)(nil)
	_ Transactor = (*MemoryStore)(nil)
	_ Transactor = (*memTx)(nil)
)

// NewMemoryStore creates an empty [MemoryStore] enforcing the given key fields.
func NewMemoryStore(keys Keys) *MemoryStore {
	if keys == nil {
		keys = Keys{}
	}
	return &MemoryStore{state: &memState{keys: keys, collections: map[string][]Document{}}}
}

func (m *MemoryStore) FetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.fetchAll(ctx, collection, keyField)
}

func (m *MemoryStore) FetchOne(ctx context.Context, collection string, filters Filter) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.fetchOne(ctx, collection, filters)
}

func (m *MemoryStore) Insert(ctx context.Context, collection string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.insert(ctx, collection, doc)
}

func (m *MemoryStore) Update(ctx context.Context, collection string, filters Filter, update Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.update(ctx, collection, filters, update)
}

func (m *MemoryStore) DeleteOne(ctx context.Context, collection string, filters Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteOne(ctx, collection, filters)
}

func (m *MemoryStore) DeleteMany(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.deleteMany(ctx, collection)
}

// WithTx runs fn while holding the write lock. On error the collections are restored to their state before fn ran.
//
// Documents are replaced rather than mutated by every operation, so a shallow copy of each collection slice is
// a complete snapshot.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string][]Document, len(m.state.collections))
	for name, docs := range m.state.collections {
		snapshot[name] = append([]Document(nil), docs...)
	}

	if err := fn(&memTx{state: m.state}); err != nil {
		m.state.collections = snapshot
		return err
	}
	return nil
}

// Len returns the number of documents in a collection.
func (m *MemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.collections[collection])
}

func (t *memTx) FetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error) {
	return t.state.fetchAll(ctx, collection, keyField)
}

func (t *memTx) FetchOne(ctx context.Context, collection string, filters Filter) (Document, error) {
	return t.state.fetchOne(ctx, collection, filters)
}

func (t *memTx) Insert(ctx context.Context, collection string, doc Document) error {
	return t.state.insert(ctx, collection, doc)
}

func (t *memTx) Update(ctx context.Context, collection string, filters Filter, update Update) error {
	return t.state.update(ctx, collection, filters, update)
}

func (t *memTx) DeleteOne(ctx context.Context, collection string, filters Filter) error {
	return t.state.deleteOne(ctx, collection, filters)
}

func (t *memTx) DeleteMany(ctx context.Context, collection string) error {
	return t.state.deleteMany(ctx, collection)
}

// WithTx on an open transaction joins it.
func (t *memTx) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (s *memState) fetchAll(ctx context.Context, collection, keyField string) (map[string]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]Document, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		key, ok := keyOf(doc, keyField)
		if !ok {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		cp, err := Normalize(doc)
		if err != nil {
			return nil, err
		}
		out[key] = cp
	}
	return out, nil
}

func (s *memState) fetchOne(ctx context.Context, collection string, filters Filter) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilter(filters); err != nil {
		return nil, err
	}

	idx := s.find(collection, filters)
	if idx < 0 {
		return nil, ErrNoDocument
	}
	return Normalize(s.collections[collection][idx])
}

func (s *memState) insert(ctx context.Context, collection string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cp, err := Normalize(doc)
	if err != nil {
		return err
	}

	if keyField, ok := s.keys[collection]; ok {
		key, ok := keyOf(cp, keyField)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrMissingKey, collection, keyField)
		}
		if s.find(collection, Filter{keyField: key}) >= 0 {
			return fmt.Errorf("%w: %s %q", ErrDuplicateKey, collection, key)
		}
	}

	s.collections[collection] = append(s.collections[collection], cp)
	return nil
}

func (s *memState) update(ctx context.Context, collection string, filters Filter, update Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFilter(filters); err != nil {
		return err
	}
	if touchesKey(update, s.keys[collection]) {
		return fmt.Errorf("%w: key field %q is immutable", ErrInvalidUpdate, s.keys[collection])
	}

	idx := s.find(collection, filters)
	if idx < 0 {
		return ErrNoDocument
	}

	next, err := Apply(s.collections[collection][idx], update)
	if err != nil {
		return err
	}
	s.collections[collection][idx] = next
	return nil
}

func (s *memState) deleteOne(ctx context.Context, collection string, filters Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateFilter(filters); err != nil {
		return err
	}

	idx := s.find(collection, filters)
	if idx < 0 {
		return ErrNoDocument
	}

	docs := s.collections[collection]
	next := make([]Document, 0, len(docs)-1)
	next = append(next, docs[:idx]...)
	next = append(next, docs[idx+1:]...)
	s.collections[collection] = next
	return nil
}

func (s *memState) deleteMany(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(s.collections, collection)
	return nil
}

func (s *memState) find(collection string, filters Filter) int {
	for i, doc := range s.collections[collection] {
		if Matches(doc, filters) {
			return i
		}
	}
	return -1
}
