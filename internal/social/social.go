package social

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/shared"
)

// UserStore is the user persistence the relationship operations need.
type UserStore interface {
	List(ctx context.Context) (map[string]*models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, username string) error
	Update(ctx context.Context, username string, update docstore.Update) error
}

// PlaylistStore is the playlist persistence the relationship operations need.
type PlaylistStore interface {
	List(ctx context.Context) (map[string]*models.Playlist, error)
	Get(ctx context.Context, name string) (*models.Playlist, error)
	Delete(ctx context.Context, name string) error
	Update(ctx context.Context, name string, update docstore.Update) error
}

// UnitOfWork runs fn with stores whose calls commit or fail together, when the backing store allows it.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(users UserStore, playlists PlaylistStore) error) error
}

// Service performs the operations that span both collections: friendships, likes, and cascading deletes.
//
// Every operation reads the entities it touches before writing anything, so a missing entity is always
// reported before any change is made. Counters are adjusted with increments alongside each list change.
type Service struct {
	users     UserStore
	playlists PlaylistStore
	uow       UnitOfWork
	logger    *log.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithUnitOfWork runs every operation, reads included, through uow.
func WithUnitOfWork(uow UnitOfWork) Option {
	return func(s *Service) { s.uow = uow }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = shared.WithLogger(l, "component", "social")
		}
	}
}

// NewService creates a new [Service] over the given stores.
func NewService(users UserStore, playlists PlaylistStore, opts ...Option) *Service {
	s := &Service{users: users, playlists: playlists, logger: shared.DiscardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run calls fn inside the unit of work when one is configured.
func (s *Service) run(ctx context.Context, fn func(users UserStore, playlists PlaylistStore) error) error {
	if s.uow == nil {
		return fn(s.users, s.playlists)
	}
	return s.uow.Do(ctx, fn)
}

// step is one field-level write in an operation's fixed sequence.
type step struct {
	name string
	run  func() error
}

// apply runs steps in order and stops at the first failure. Without a transaction the steps already
// applied stay applied, so the failure is logged with enough detail to find the damage.
func (s *Service) apply(op string, steps ...step) error {
	for i, st := range steps {
		if err := st.run(); err != nil {
			s.logger.Warn("operation failed part way", "op", op, "step", st.name, "applied", i, "of", len(steps), "err", err)
			return fmt.Errorf("%s: %s: %w", op, st.name, err)
		}
	}
	return nil
}

func userUpdate(ctx context.Context, users UserStore, name string, u docstore.Update) step {
	return step{
		name: fmt.Sprintf("user %s %s", name, u),
		run:  func() error { return users.Update(ctx, name, u) },
	}
}

func playlistUpdate(ctx context.Context, playlists PlaylistStore, name string, u docstore.Update) step {
	return step{
		name: fmt.Sprintf("playlist %s %s", name, u),
		run:  func() error { return playlists.Update(ctx, name, u) },
	}
}
