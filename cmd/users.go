package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/formatter"
	"github.com/desertthunder/playgraph/internal/shared"
)

// UsersList prints every user in the requested format, or writes it to --output.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	g, err := r.graph()
	if err != nil {
		return err
	}

	users, err := g.users.List(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Users(cmd.String("format"), users)
	if err != nil {
		return err
	}
	return r.export(cmd.String("output"), data)
}

// UsersGet prints a single user.
func (r *Runner) UsersGet(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	user, err := g.users.Get(ctx, name)
	if err != nil {
		return err
	}

	if cmd.String("format") == formatter.FormatJSON {
		return r.writeJSON(user, true)
	}
	data, err := formatter.UserToText(user)
	if err != nil {
		return err
	}
	return r.write(data)
}

// UsersCreate adds a user with no friends or likes.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.users.Create(ctx, name); err != nil {
		return err
	}

	r.logger.Info("created user", "name", name)
	return r.writePlain("✓ Created user %s\n", name)
}

// UsersDelete removes a user and every reference to it.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	g, err := r.graph()
	if err != nil {
		return err
	}

	if err := g.service.DeleteUserCascade(ctx, name); err != nil {
		return err
	}

	r.logger.Info("deleted user", "name", name)
	return r.writePlain("✓ Deleted user %s\n", name)
}

// export writes data to path, or to the runner output when path is empty.
func (r *Runner) export(path string, data []byte) error {
	if path == "" {
		return r.write(data)
	}
	if err := formatter.WriteExport(path, data); err != nil {
		return err
	}
	r.logger.Info("export written", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	value := cmd.StringArg(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}
