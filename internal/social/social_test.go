package social_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/repositories"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/social"
	tu "github.com/desertthunder/playgraph/internal/testing"
)

type fixture struct {
	store     docstore.Store
	users     *repositories.UserRepository
	playlists *repositories.PlaylistRepository
	svc       *social.Service
}

func newFixture(t *testing.T, store docstore.Store) *fixture {
	t.Helper()
	users := repositories.NewUserRepository(store)
	playlists := repositories.NewPlaylistRepository(store)
	svc := social.NewService(users, playlists, social.WithUnitOfWork(repositories.NewUnitOfWork(store)))
	return &fixture{store: store, users: users, playlists: playlists, svc: svc}
}

func sqliteStore(t *testing.T) docstore.Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, shared.RunMigrations(db, shared.DriverSQLite))

	return docstore.NewSQLStore(db, docstore.SQLite, models.Keys())
}

// fileStore opens a SQLite file database with the default pool settings.
func fileStore(t *testing.T) docstore.Store {
	t.Helper()

	cfg := shared.DefaultConfig().Database
	cfg.Path = filepath.Join(t.TempDir(), "playgraph.db")

	db, err := shared.OpenDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, shared.RunMigrations(db, shared.DriverSQLite))

	return docstore.NewSQLStore(db, docstore.SQLite, models.Keys())
}

func memoryStore(t *testing.T) docstore.Store {
	return docstore.NewMemoryStore(models.Keys())
}

func (f *fixture) createUsers(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, f.users.Create(context.Background(), n))
	}
}

func (f *fixture) createPlaylists(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, f.playlists.Create(context.Background(), n))
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Get(context.Background(), name)
	require.NoError(t, err)
	return u
}

func (f *fixture) playlist(t *testing.T, name string) *models.Playlist {
	t.Helper()
	p, err := f.playlists.Get(context.Background(), name)
	require.NoError(t, err)
	return p
}

func TestService(t *testing.T) {
	stores := map[string]func(t *testing.T) docstore.Store{
		"memory": memoryStore,
		"sqlite": sqliteStore,
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			runServiceTests(t, func(t *testing.T) *fixture { return newFixture(t, newStore(t)) })
		})
	}
}

func runServiceTests(t *testing.T, setup func(t *testing.T) *fixture) {
	ctx := context.Background()

	t.Run("created user is empty", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")

		u := f.user(t, "alice")
		assert.Equal(t, 0, u.NumFriends)
		assert.Empty(t, u.Friends)
		assert.Equal(t, 0, u.NumPlaylists)
		assert.Empty(t, u.Playlists)
	})

	t.Run("duplicate user keeps one record", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")

		err := f.users.Create(ctx, "alice")
		assert.ErrorIs(t, err, models.ErrDuplicate)

		all, err := f.users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("befriend", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "bob")

		require.NoError(t, f.svc.Befriend(ctx, "alice", "bob"))

		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		assert.Equal(t, []string{"bob"}, alice.Friends)
		assert.Equal(t, []string{"alice"}, bob.Friends)
		assert.Equal(t, 1, alice.NumFriends)
		assert.Equal(t, 1, bob.NumFriends)
	})

	t.Run("befriend twice is not acceptable", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "bob")

		require.NoError(t, f.svc.Befriend(ctx, "alice", "bob"))
		assert.ErrorIs(t, f.svc.Befriend(ctx, "alice", "bob"), models.ErrNotAcceptable)
		assert.ErrorIs(t, f.svc.Befriend(ctx, "bob", "alice"), models.ErrNotAcceptable)

		assert.Equal(t, 1, f.user(t, "alice").NumFriends)
		assert.Equal(t, 1, f.user(t, "bob").NumFriends)
	})

	t.Run("befriend self is not acceptable", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")

		assert.ErrorIs(t, f.svc.Befriend(ctx, "alice", "alice"), models.ErrNotAcceptable)
		assert.Empty(t, f.user(t, "alice").Friends)
	})

	t.Run("befriend missing user", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")

		assert.ErrorIs(t, f.svc.Befriend(ctx, "alice", "ghost"), models.ErrNotFound)
		assert.ErrorIs(t, f.svc.Befriend(ctx, "ghost", "alice"), models.ErrNotFound)
		assert.ErrorIs(t, f.svc.Befriend(ctx, "ghost", "ghost"), models.ErrNotFound)

		alice := f.user(t, "alice")
		assert.Empty(t, alice.Friends)
		assert.Equal(t, 0, alice.NumFriends)
	})

	t.Run("unfriend", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "bob")

		require.NoError(t, f.svc.Befriend(ctx, "alice", "bob"))
		require.NoError(t, f.svc.Unfriend(ctx, "alice", "bob"))

		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		assert.Equal(t, 0, alice.NumFriends)
		assert.Equal(t, 0, bob.NumFriends)
		assert.NotContains(t, alice.Friends, "bob")
		assert.NotContains(t, bob.Friends, "alice")
	})

	t.Run("unfriend strangers is not acceptable", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "bob")

		assert.ErrorIs(t, f.svc.Unfriend(ctx, "alice", "bob"), models.ErrNotAcceptable)
	})

	t.Run("unfriend missing user", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")

		assert.ErrorIs(t, f.svc.Unfriend(ctx, "alice", "ghost"), models.ErrNotFound)
	})

	t.Run("like", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")
		f.createPlaylists(t, "mix")

		require.NoError(t, f.svc.LikePlaylist(ctx, "alice", "mix"))

		alice := f.user(t, "alice")
		assert.Equal(t, []string{"mix"}, alice.Playlists)
		assert.Equal(t, 1, alice.NumPlaylists)
		assert.Equal(t, []string{"alice"}, f.playlist(t, "mix").Likes)
	})

	t.Run("like twice is not acceptable", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")
		f.createPlaylists(t, "mix")

		require.NoError(t, f.svc.LikePlaylist(ctx, "alice", "mix"))
		assert.ErrorIs(t, f.svc.LikePlaylist(ctx, "alice", "mix"), models.ErrNotAcceptable)

		assert.Equal(t, 1, f.user(t, "alice").NumPlaylists)
		assert.Len(t, f.playlist(t, "mix").Likes, 1)
	})

	t.Run("like missing entities", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")
		f.createPlaylists(t, "mix")

		assert.ErrorIs(t, f.svc.LikePlaylist(ctx, "ghost", "mix"), models.ErrNotFound)
		assert.ErrorIs(t, f.svc.LikePlaylist(ctx, "alice", "ghost"), models.ErrNotFound)
		assert.ErrorIs(t, f.svc.LikePlaylist(ctx, "ghost", "ghost"), models.ErrNotFound)

		assert.Empty(t, f.playlist(t, "mix").Likes)
		assert.Empty(t, f.user(t, "alice").Playlists)
	})

	t.Run("unlike", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")
		f.createPlaylists(t, "mix")

		require.NoError(t, f.svc.LikePlaylist(ctx, "alice", "mix"))
		require.NoError(t, f.svc.UnlikePlaylist(ctx, "alice", "mix"))

		alice := f.user(t, "alice")
		assert.NotContains(t, alice.Playlists, "mix")
		assert.Equal(t, 0, alice.NumPlaylists)
		assert.NotContains(t, f.playlist(t, "mix").Likes, "alice")
	})

	t.Run("unlike without like is not found", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice")
		f.createPlaylists(t, "mix")

		assert.ErrorIs(t, f.svc.UnlikePlaylist(ctx, "alice", "mix"), models.ErrNotFound)
		assert.ErrorIs(t, f.svc.UnlikePlaylist(ctx, "ghost", "mix"), models.ErrNotFound)
		assert.ErrorIs(t, f.svc.UnlikePlaylist(ctx, "alice", "ghost"), models.ErrNotFound)
		assert.Equal(t, 0, f.user(t, "alice").NumPlaylists)
	})

	t.Run("delete user cascades", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "bob", "carol")
		f.createPlaylists(t, "mix", "chill")

		require.NoError(t, f.svc.Befriend(ctx, "alice", "bob"))
		require.NoError(t, f.svc.Befriend(ctx, "carol", "alice"))
		require.NoError(t, f.svc.Befriend(ctx, "bob", "carol"))
		require.NoError(t, f.svc.LikePlaylist(ctx, "alice", "mix"))
		require.NoError(t, f.svc.LikePlaylist(ctx, "bob", "mix"))

		require.NoError(t, f.svc.DeleteUserCascade(ctx, "alice"))

		_, err := f.users.Get(ctx, "alice")
		assert.ErrorIs(t, err, models.ErrNotFound)

		bob, carol := f.user(t, "bob"), f.user(t, "carol")
		assert.Equal(t, []string{"carol"}, bob.Friends)
		assert.Equal(t, 1, bob.NumFriends)
		assert.Equal(t, []string{"bob"}, carol.Friends)
		assert.Equal(t, 1, carol.NumFriends)
		assert.Equal(t, []string{"bob"}, f.playlist(t, "mix").Likes)
	})

	t.Run("delete missing user", func(t *testing.T) {
		f := setup(t)

		assert.ErrorIs(t, f.svc.DeleteUserCascade(ctx, "ghost"), models.ErrNotFound)
	})

	t.Run("delete playlist cascades", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "bob")
		f.createPlaylists(t, "mix", "chill")

		require.NoError(t, f.svc.LikePlaylist(ctx, "alice", "mix"))
		require.NoError(t, f.svc.LikePlaylist(ctx, "alice", "chill"))
		require.NoError(t, f.svc.LikePlaylist(ctx, "bob", "mix"))

		require.NoError(t, f.svc.DeletePlaylistCascade(ctx, "mix"))

		_, err := f.playlists.Get(ctx, "mix")
		assert.ErrorIs(t, err, models.ErrNotFound)

		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		assert.Equal(t, []string{"chill"}, alice.Playlists)
		assert.Equal(t, 1, alice.NumPlaylists)
		assert.Empty(t, bob.Playlists)
		assert.Equal(t, 0, bob.NumPlaylists)

		assert.ErrorIs(t, f.svc.DeletePlaylistCascade(ctx, "mix"), models.ErrNotFound)
	})

	t.Run("friends and likers are sorted", func(t *testing.T) {
		f := setup(t)
		f.createUsers(t, "alice", "carol", "bob")
		f.createPlaylists(t, "mix")

		require.NoError(t, f.svc.Befriend(ctx, "alice", "carol"))
		require.NoError(t, f.svc.Befriend(ctx, "alice", "bob"))
		require.NoError(t, f.svc.LikePlaylist(ctx, "carol", "mix"))
		require.NoError(t, f.svc.LikePlaylist(ctx, "bob", "mix"))

		friends, err := f.svc.Friends(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "carol"}, friends)

		likers, err := f.svc.Likers(ctx, "mix")
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "carol"}, likers)

		_, err = f.svc.Friends(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = f.svc.Likers(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestServiceFailures(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *docstore.MemoryStore {
		t.Helper()
		base := docstore.NewMemoryStore(models.Keys())
		f := newFixture(t, base)
		f.createUsers(t, "alice", "bob")
		return base
	}

	t.Run("transaction rolls back a failed befriend", func(t *testing.T) {
		base := seed(t)
		failing := tu.NewFailingTxStore(base, 2)
		svc := social.NewService(
			repositories.NewUserRepository(failing),
			repositories.NewPlaylistRepository(failing),
			social.WithUnitOfWork(repositories.NewUnitOfWork(failing)),
		)

		err := svc.Befriend(ctx, "alice", "bob")
		require.ErrorIs(t, err, tu.ErrInjected)
		assert.Equal(t, 3, failing.Updates())

		f := newFixture(t, base)
		assert.Empty(t, f.user(t, "alice").Friends)
		assert.Empty(t, f.user(t, "bob").Friends)
	})

	t.Run("without transactions a failed befriend leaves partial state", func(t *testing.T) {
		base := seed(t)
		failing := tu.NewFailingStore(base, 2)
		svc := social.NewService(
			repositories.NewUserRepository(failing),
			repositories.NewPlaylistRepository(failing),
			social.WithUnitOfWork(repositories.NewUnitOfWork(failing)),
		)

		err := svc.Befriend(ctx, "alice", "bob")
		require.ErrorIs(t, err, tu.ErrInjected)

		f := newFixture(t, base)
		alice, bob := f.user(t, "alice"), f.user(t, "bob")
		assert.Equal(t, []string{"bob"}, alice.Friends)
		assert.Equal(t, []string{"alice"}, bob.Friends)
		assert.Equal(t, 0, alice.NumFriends)
		assert.Equal(t, 0, bob.NumFriends)
	})

	t.Run("no update precedes a failed existence check", func(t *testing.T) {
		base := seed(t)
		failing := tu.NewFailingStore(base, 100)
		svc := social.NewService(repositories.NewUserRepository(failing), repositories.NewPlaylistRepository(failing))

		assert.ErrorIs(t, svc.Befriend(ctx, "alice", "ghost"), models.ErrNotFound)
		assert.ErrorIs(t, svc.Unfriend(ctx, "ghost", "bob"), models.ErrNotFound)
		assert.ErrorIs(t, svc.LikePlaylist(ctx, "alice", "ghost"), models.ErrNotFound)
		assert.ErrorIs(t, svc.UnlikePlaylist(ctx, "ghost", "ghost"), models.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteUserCascade(ctx, "ghost"), models.ErrNotFound)
		assert.ErrorIs(t, svc.DeletePlaylistCascade(ctx, "ghost"), models.ErrNotFound)

		assert.Equal(t, 0, failing.Updates())
	})
}

func TestServiceConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	const n = 20

	f := newFixture(t, fileStore(t))
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("u%d", i)
	}
	f.createUsers(t, names...)
	f.createPlaylists(t, "mix")

	var wg sync.WaitGroup
	errs := make(chan error, 2*(n-1))
	for _, name := range names[1:] {
		wg.Add(2)
		go func(name string) {
			defer wg.Done()
			errs <- f.svc.Befriend(ctx, names[0], name)
		}(name)
		go func(name string) {
			defer wg.Done()
			errs <- f.svc.LikePlaylist(ctx, name, "mix")
		}(name)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	hub := f.user(t, names[0])
	assert.Equal(t, n-1, hub.NumFriends)
	assert.Len(t, hub.Friends, n-1)
	assert.Len(t, f.playlist(t, "mix").Likes, n-1)
}
