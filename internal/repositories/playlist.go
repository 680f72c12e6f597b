package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
)

// PlaylistRepository persists [models.Playlist] documents in the playlists collection.
//
// Like [UserRepository] it never touches the users collection; the likes back-reference is kept in step by
// the relationship operations.
type PlaylistRepository struct {
	store docstore.Store
}

// NewPlaylistRepository creates a new PlaylistRepository over the given store
func NewPlaylistRepository(store docstore.Store) *PlaylistRepository {
	return &PlaylistRepository{store: store}
}

func (r *PlaylistRepository) List(ctx context.Context) (map[string]*models.Playlist, error) {
	docs, err := r.store.FetchAll(ctx, models.PlaylistsCollection, models.FieldPlaylistName)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	playlists := make(map[string]*models.Playlist, len(docs))
	for name, doc := range docs {
		playlist, err := models.PlaylistFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode playlist %q: %w", name, err)
		}
		playlists[name] = playlist
	}

	return playlists, nil
}

func (r *PlaylistRepository) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.store.FetchOne(ctx, models.PlaylistsCollection, playlistFilter(name))
	if errors.Is(err, docstore.ErrNoDocument) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query playlist: %w", err)
	}
	return true, nil
}

// Get retrieves a playlist by name
func (r *PlaylistRepository) Get(ctx context.Context, name string) (*models.Playlist, error) {
	doc, err := r.store.FetchOne(ctx, models.PlaylistsCollection, playlistFilter(name))
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, fmt.Errorf("%w: playlist %q", models.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	return models.PlaylistFromDocument(doc)
}

// Create inserts a playlist with no likes
func (r *PlaylistRepository) Create(ctx context.Context, name string) error {
	playlist := models.NewPlaylist(name)
	if err := playlist.Validate(); err != nil {
		return err
	}

	exists, err := r.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: playlist %q", models.ErrDuplicate, name)
	}

	doc, err := playlist.Document()
	if err != nil {
		return err
	}

	if err := r.store.Insert(ctx, models.PlaylistsCollection, doc); err != nil {
		return insertError("playlist", name, err)
	}
	return nil
}

// Delete removes the playlist record only
func (r *PlaylistRepository) Delete(ctx context.Context, name string) error {
	err := r.store.DeleteOne(ctx, models.PlaylistsCollection, playlistFilter(name))
	if errors.Is(err, docstore.ErrNoDocument) {
		return fmt.Errorf("%w: playlist %q", models.ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return nil
}

func (r *PlaylistRepository) Update(ctx context.Context, name string, update docstore.Update) error {
	return updateError("playlist", name, r.store.Update(ctx, models.PlaylistsCollection, playlistFilter(name), update))
}

func (r *PlaylistRepository) EmptyAll(ctx context.Context) error {
	if err := r.store.DeleteMany(ctx, models.PlaylistsCollection); err != nil {
		return fmt.Errorf("failed to empty playlists: %w", err)
	}
	return nil
}

func playlistFilter(name string) docstore.Filter {
	return docstore.Filter{models.FieldPlaylistName: name}
}
