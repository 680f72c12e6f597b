package social

import (
	"context"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
)

// DeleteUserCascade deletes a user and every reference to it.
//
// The cleanup scans both collections in full, so each deletion costs O(users + playlists). An index from
// entity to referencing entities would be needed to do better.
func (s *Service) DeleteUserCascade(ctx context.Context, username string) error {
	var friendsCleaned, likesCleaned int

	err := s.run(ctx, func(users UserStore, playlists PlaylistStore) error {
		if _, err := users.Get(ctx, username); err != nil {
			return err
		}
		if err := users.Delete(ctx, username); err != nil {
			return err
		}

		all, err := users.List(ctx)
		if err != nil {
			return err
		}

		var steps []step
		for _, name := range models.SortedNames(all) {
			if !all[name].HasFriend(username) {
				continue
			}
			steps = append(steps,
				userUpdate(ctx, users, name, docstore.Pull(models.FieldFriends, username)),
				userUpdate(ctx, users, name, docstore.Inc(models.FieldNumFriends, -1)),
			)
			friendsCleaned++
		}

		lists, err := playlists.List(ctx)
		if err != nil {
			return err
		}

		for _, name := range models.SortedNames(lists) {
			if !lists[name].LikedBy(username) {
				continue
			}
			steps = append(steps, playlistUpdate(ctx, playlists, name, docstore.Pull(models.FieldLikes, username)))
			likesCleaned++
		}

		return s.apply("delete user", steps...)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("deleted user", "user", username, "friends", friendsCleaned, "likes", likesCleaned)
	return nil
}

// DeletePlaylistCascade deletes a playlist and removes it from every user that liked it.
func (s *Service) DeletePlaylistCascade(ctx context.Context, name string) error {
	var cleaned int

	err := s.run(ctx, func(users UserStore, playlists PlaylistStore) error {
		if _, err := playlists.Get(ctx, name); err != nil {
			return err
		}
		if err := playlists.Delete(ctx, name); err != nil {
			return err
		}

		all, err := users.List(ctx)
		if err != nil {
			return err
		}

		var steps []step
		for _, username := range models.SortedNames(all) {
			if !all[username].Likes(name) {
				continue
			}
			steps = append(steps,
				userUpdate(ctx, users, username, docstore.Pull(models.FieldPlaylists, name)),
				userUpdate(ctx, users, username, docstore.Inc(models.FieldNumPlaylists, -1)),
			)
			cleaned++
		}

		return s.apply("delete playlist", steps...)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("deleted playlist", "playlist", name, "users", cleaned)
	return nil
}
