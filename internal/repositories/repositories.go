// package repositories provides persistence for users and playlists over a [docstore.Store].
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/social"
)

// UnitOfWork runs a group of repository calls against one store transaction.
//
// When the store is not a [docstore.Transactor] the calls run directly against it, one after another,
// and a failure part way through leaves the earlier calls applied.
type UnitOfWork struct {
	store docstore.Store
}

var _ social.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a new [UnitOfWork] over store
func NewUnitOfWork(store docstore.Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Transactional reports whether calls made through Do are atomic.
func (u *UnitOfWork) Transactional() bool {
	_, ok := u.store.(docstore.Transactor)
	return ok
}

// Do calls fn with repositories bound to a transaction when the store supports one.
func (u *UnitOfWork) Do(ctx context.Context, fn func(users social.UserStore, playlists social.PlaylistStore) error) error {
	tx, ok := u.store.(docstore.Transactor)
	if !ok {
		return fn(NewUserRepository(u.store), NewPlaylistRepository(u.store))
	}

	return tx.WithTx(ctx, func(s docstore.Store) error {
		return fn(NewUserRepository(s), NewPlaylistRepository(s))
	})
}

// insertError maps store insert failures onto the model error taxonomy.
func insertError(kind, name string, err error) error {
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return fmt.Errorf("%w: %s %q", models.ErrDuplicate, kind, name)
	}
	return fmt.Errorf("failed to insert %s: %w", kind, err)
}

func updateError(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNoDocument):
		return fmt.Errorf("%w: %s %q", models.ErrNotFound, kind, name)
	default:
		return fmt.Errorf("failed to update %s %q: %w", kind, name, err)
	}
}
