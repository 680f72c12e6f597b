package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/formatter"
)

// PlaylistsList prints every playlist in the requested format, or writes it to --output.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	g, err := r.graph()
	if err != nil {
		return err
	}

	playlists, err := g.playlists.List(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Playlists(cmd.String("format"), playlists)
	if err != nil {
		return err
	}
	return r.export(cmd.String("output"), data)
}

// PlaylistsGet prints a single playlist.
func (r *Runner) PlaylistsGet(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	playlist, err := g.playlists.Get(ctx, name)
	if err != nil {
		return err
	}

	if cmd.String("format") == formatter.FormatJSON {
		return r.writeJSON(playlist, true)
	}
	data, err := formatter.PlaylistToText(playlist)
	if err != nil {
		return err
	}
	return r.write(data)
}

// PlaylistsCreate adds a playlist with no likes.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.playlists.Create(ctx, name); err != nil {
		return err
	}

	r.logger.Info("created playlist", "name", name)
	return r.writePlain("✓ Created playlist %s\n", name)
}

// PlaylistsDelete removes a playlist and drops it from every user's likes.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.service.DeletePlaylistCascade(ctx, name); err != nil {
		return err
	}

	r.logger.Info("deleted playlist", "name", name)
	return r.writePlain("✓ Deleted playlist %s\n", name)
}
