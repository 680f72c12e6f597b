// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/playgraph/internal/docstore"
)

// ErrInjected is the error returned by [FailingStore] once its update budget is spent.
var ErrInjected = errors.New("injected store failure")

type updateBudget struct {
	mu        sync.Mutex
	remaining int
	calls     int
}

func (b *updateBudget) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// FailingStore wraps a [docstore.Store] and fails every Update after the first n succeed.
//
// It deliberately does not implement [docstore.Transactor], so callers see a store without transactions.
type FailingStore struct {
	docstore.Store
	budget *updateBudget
}

// NewFailingStore allows n updates through to inner before failing with [ErrInjected].
func NewFailingStore(inner docstore.Store, n int) *FailingStore {
	return &FailingStore{Store: inner, budget: &updateBudget{remaining: n}}
}

func (f *FailingStore) Update(ctx context.Context, collection string, filters docstore.Filter, update docstore.Update) error {
	if !f.budget.take() {
		return ErrInjected
	}
	return f.Store.Update(ctx, collection, filters, update)
}

// Updates returns the number of Update calls seen, including failed ones.
func (f *FailingStore) Updates() int {
	f.budget.mu.Lock()
	defer f.budget.mu.Unlock()
	return f.budget.calls
}

// FailingTxStore is a [FailingStore] over a transactional store. Updates made inside
// WithTx draw from the same budget.
type FailingTxStore struct {
	*FailingStore
	inner docstore.Transactor
}

// NewFailingTxStore is [NewFailingStore] for stores that support transactions.
func NewFailingTxStore(inner interface {
	docstore.Store
	docstore.Transactor
}, n int) *FailingTxStore {
	return &FailingTxStore{FailingStore: NewFailingStore(inner, n), inner: inner}
}

func (f *FailingTxStore) WithTx(ctx context.Context, fn func(tx docstore.Store) error) error {
	return f.inner.WithTx(ctx, func(tx docstore.Store) error {
		return fn(&FailingStore{Store: tx, budget: f.budget})
	})
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return dir
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
