package social

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
)

// Befriend makes a and b friends of each other.
//
// Fails with [models.ErrNotFound] if a, then b, does not exist, and with [models.ErrNotAcceptable] when
// a == b or a is already one of b's friends.
func (s *Service) Befriend(ctx context.Context, a, b string) error {
	err := s.run(ctx, func(users UserStore, _ PlaylistStore) error {
		if _, err := users.Get(ctx, a); err != nil {
			return err
		}
		ub, err := users.Get(ctx, b)
		if err != nil {
			return err
		}

		if a == b {
			return fmt.Errorf("%w: %q cannot befriend themselves", models.ErrNotAcceptable, a)
		}
		if ub.HasFriend(a) {
			return fmt.Errorf("%w: %q and %q are already friends", models.ErrNotAcceptable, a, b)
		}

		return s.apply("befriend",
			userUpdate(ctx, users, b, docstore.Push(models.FieldFriends, a)),
			userUpdate(ctx, users, a, docstore.Push(models.FieldFriends, b)),
			userUpdate(ctx, users, b, docstore.Inc(models.FieldNumFriends, 1)),
			userUpdate(ctx, users, a, docstore.Inc(models.FieldNumFriends, 1)),
		)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("befriended", "a", a, "b", b)
	return nil
}

// Unfriend removes the friendship between a and b.
//
// Fails with [models.ErrNotFound] if either user is missing and with [models.ErrNotAcceptable] when they
// are not friends.
func (s *Service) Unfriend(ctx context.Context, a, b string) error {
	err := s.run(ctx, func(users UserStore, _ PlaylistStore) error {
		if _, err := users.Get(ctx, a); err != nil {
			return err
		}
		ub, err := users.Get(ctx, b)
		if err != nil {
			return err
		}

		if !ub.HasFriend(a) {
			return fmt.Errorf("%w: %q and %q are not friends", models.ErrNotAcceptable, a, b)
		}

		return s.apply("unfriend",
			userUpdate(ctx, users, b, docstore.Pull(models.FieldFriends, a)),
			userUpdate(ctx, users, a, docstore.Pull(models.FieldFriends, b)),
			userUpdate(ctx, users, b, docstore.Inc(models.FieldNumFriends, -1)),
			userUpdate(ctx, users, a, docstore.Inc(models.FieldNumFriends, -1)),
		)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("unfriended", "a", a, "b", b)
	return nil
}

// Friends returns the sorted friend list of a user.
func (s *Service) Friends(ctx context.Context, username string) ([]string, error) {
	var friends []string
	err := s.run(ctx, func(users UserStore, _ PlaylistStore) error {
		u, err := users.Get(ctx, username)
		if err != nil {
			return err
		}
		friends = append([]string{}, u.Friends...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(friends)
	return friends, nil
}
