package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/formatter"
)

func requirePair(cmd *cli.Command, first, second string) (string, string, error) {
	a, err := requireArg(cmd, first)
	if err != nil {
		return "", "", err
	}
	b, err := requireArg(cmd, second)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// FriendsAdd makes two users friends.
func (r *Runner) FriendsAdd(ctx context.Context, cmd *cli.Command) error {
	user, friend, err := requirePair(cmd, "user", "friend")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.service.Befriend(ctx, user, friend); err != nil {
		return err
	}
	return r.writePlain("✓ %s and %s are now friends\n", user, friend)
}

// FriendsRemove ends a friendship.
func (r *Runner) FriendsRemove(ctx context.Context, cmd *cli.Command) error {
	user, friend, err := requirePair(cmd, "user", "friend")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.service.Unfriend(ctx, user, friend); err != nil {
		return err
	}
	return r.writePlain("✓ %s and %s are no longer friends\n", user, friend)
}

// FriendsList prints a user's friends, sorted.
func (r *Runner) FriendsList(ctx context.Context, cmd *cli.Command) error {
	user, err := requireArg(cmd, "user")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	friends, err := g.service.Friends(ctx, user)
	if err != nil {
		return err
	}
	return r.writeNames(cmd.String("format"), friends)
}

// LikesAdd records that a user likes a playlist.
func (r *Runner) LikesAdd(ctx context.Context, cmd *cli.Command) error {
	user, playlist, err := requirePair(cmd, "user", "playlist")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.service.LikePlaylist(ctx, user, playlist); err != nil {
		return err
	}
	return r.writePlain("✓ %s likes %s\n", user, playlist)
}

// LikesRemove removes a like.
func (r *Runner) LikesRemove(ctx context.Context, cmd *cli.Command) error {
	user, playlist, err := requirePair(cmd, "user", "playlist")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.service.UnlikePlaylist(ctx, user, playlist); err != nil {
		return err
	}
	return r.writePlain("✓ %s no longer likes %s\n", user, playlist)
}

// LikesList prints the users who like a playlist, sorted.
func (r *Runner) LikesList(ctx context.Context, cmd *cli.Command) error {
	playlist, err := requireArg(cmd, "playlist")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	likers, err := g.service.Likers(ctx, playlist)
	if err != nil {
		return err
	}
	return r.writeNames(cmd.String("format"), likers)
}

func (r *Runner) writeNames(format string, names []string) error {
	if format == formatter.FormatJSON {
		return r.writeJSON(names, false)
	}
	if len(names) == 0 {
		return r.writePlain("(none)\n")
	}
	return r.writePlain("%s\n", strings.Join(names, "\n"))
}
