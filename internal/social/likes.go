package social

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
)

// LikePlaylist records that user likes playlist, on both documents.
//
// Fails with [models.ErrNotFound] if the user, then the playlist, is missing and with
// [models.ErrNotAcceptable] if the user already likes it.
func (s *Service) LikePlaylist(ctx context.Context, user, playlist string) error {
	err := s.run(ctx, func(users UserStore, playlists PlaylistStore) error {
		u, err := users.Get(ctx, user)
		if err != nil {
			return err
		}
		if _, err := playlists.Get(ctx, playlist); err != nil {
			return err
		}

		if u.Likes(playlist) {
			return fmt.Errorf("%w: %q already likes %q", models.ErrNotAcceptable, user, playlist)
		}

		return s.apply("like",
			playlistUpdate(ctx, playlists, playlist, docstore.Push(models.FieldLikes, user)),
			userUpdate(ctx, users, user, docstore.Push(models.FieldPlaylists, playlist)),
			userUpdate(ctx, users, user, docstore.Inc(models.FieldNumPlaylists, 1)),
		)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("liked playlist", "user", user, "playlist", playlist)
	return nil
}

// UnlikePlaylist removes a like from both documents.
//
// A like that does not exist is reported as [models.ErrNotFound], like a missing user or playlist.
func (s *Service) UnlikePlaylist(ctx context.Context, user, playlist string) error {
	err := s.run(ctx, func(users UserStore, playlists PlaylistStore) error {
		u, err := users.Get(ctx, user)
		if err != nil {
			return err
		}
		if _, err := playlists.Get(ctx, playlist); err != nil {
			return err
		}

		if !u.Likes(playlist) {
			return fmt.Errorf("%w: %q does not like %q", models.ErrNotFound, user, playlist)
		}

		return s.apply("unlike",
			playlistUpdate(ctx, playlists, playlist, docstore.Pull(models.FieldLikes, user)),
			userUpdate(ctx, users, user, docstore.Pull(models.FieldPlaylists, playlist)),
			userUpdate(ctx, users, user, docstore.Inc(models.FieldNumPlaylists, -1)),
		)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("unliked playlist", "user", user, "playlist", playlist)
	return nil
}

// Likers returns the sorted list of users who like a playlist.
func (s *Service) Likers(ctx context.Context, playlist string) ([]string, error) {
	var likers []string
	err := s.run(ctx, func(_ UserStore, playlists PlaylistStore) error {
		p, err := playlists.Get(ctx, playlist)
		if err != nil {
			return err
		}
		likers = append([]string{}, p.Likes...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(likers)
	return likers, nil
}
