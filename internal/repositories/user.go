package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
)

// UserRepository persists [models.User] documents in the users collection.
type UserRepository struct {
	store docstore.Store
}

// NewUserRepository creates a new [UserRepository] over the given store
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// List returns every user keyed by username. An empty collection yields an empty map.
func (r *UserRepository) List(ctx context.Context) (map[string]*models.User, error) {
	docs, err := r.store.FetchAll(ctx, models.UsersCollection, models.FieldUserName)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make(map[string]*models.User, len(docs))
	for name, doc := range docs {
		user, err := models.UserFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode user %q: %w", name, err)
		}
		users[name] = user
	}

	return users, nil
}

// Exists reports whether a user with the given name is stored
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	_, err := r.store.FetchOne(ctx, models.UsersCollection, userFilter(username))
	if errors.Is(err, docstore.ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query user: %w", err)
	}
	return true, nil
}

// Get retrieves a user by name
func (r *UserRepository) Get(ctx context.Context, username string) (*models.User, error) {
	doc, err := r.store.FetchOne(ctx, models.UsersCollection, userFilter(username))
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return models.UserFromDocument(doc)
}

// Create inserts a user with no friends and no liked playlists
func (r *UserRepository) Create(ctx context.Context, username string) error {
	user := models.NewUser(username)
	if err := user.Validate(); err != nil {
		return err
	}

	exists, err := r.Exists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: user %q", models.ErrDuplicate, username)
	}

	doc, err := user.Document()
	if err != nil {
		return err
	}

	if err := r.store.Insert(ctx, models.UsersCollection, doc); err != nil {
		return insertError("user", username, err)
	}
	return nil
}

// Delete removes the user record only. Friends and likes referencing it are cleaned up by the caller.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	err := r.store.DeleteOne(ctx, models.UsersCollection, userFilter(username))
	if errors.Is(err, docstore.ErrNoDocument) {
		return fmt.Errorf("%w: user %q", models.ErrNotFound, username)
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Update applies a field-level update to a user
func (r *UserRepository) Update(ctx context.Context, username string, update docstore.Update) error {
	return updateError("user", username, r.store.Update(ctx, models.UsersCollection, userFilter(username), update))
}

// EmptyAll removes every user
func (r *UserRepository) EmptyAll(ctx context.Context) error {
	if err := r.store.DeleteMany(ctx, models.UsersCollection); err != nil {
		return fmt.Errorf("failed to empty users: %w", err)
	}
	return nil
}

func userFilter(username string) docstore.Filter {
	return docstore.Filter{models.FieldUserName: username}
}
