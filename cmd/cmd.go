// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/formatter"
)

func formatFlag(value string, allowed ...string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (" + strings.Join(allowed, ", ") + ")",
		Value:   value,
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write to a file instead of stdout",
	}
}

var listFormats = []string{formatter.FormatText, formatter.FormatCSV, formatter.FormatMarkdown, formatter.FormatJSON}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if needed, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// usersCommand handles user documents
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "users",
		Aliases: []string{"user", "u"},
		Usage:   "Manage users",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all users",
				Flags:  []cli.Flag{formatFlag(formatter.FormatText, listFormats...), outputFlag()},
				Action: r.UsersList,
			},
			{
				Name:      "get",
				Usage:     "Show a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{formatFlag(formatter.FormatText, formatter.FormatText, formatter.FormatJSON)},
				Action:    r.UsersGet,
			},
			{
				Name:      "create",
				Usage:     "Create a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.UsersCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a user and remove it from friend lists and playlist likes",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.UsersDelete,
			},
		},
	}
}

// playlistsCommand handles playlist documents
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"playlist", "p"},
		Usage:   "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all playlists",
				Flags:  []cli.Flag{formatFlag(formatter.FormatText, listFormats...), outputFlag()},
				Action: r.PlaylistsList,
			},
			{
				Name:      "get",
				Usage:     "Show a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{formatFlag(formatter.FormatText, formatter.FormatText, formatter.FormatJSON)},
				Action:    r.PlaylistsGet,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.PlaylistsCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist and remove it from every user's likes",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.PlaylistsDelete,
			},
		},
	}
}

// friendsCommand handles friendships
func friendsCommand(r *Runner) *cli.Command {
	pair := []cli.Argument{&cli.StringArg{Name: "user"}, &cli.StringArg{Name: "friend"}}
	return &cli.Command{
		Name:  "friends",
		Usage: "Manage friendships",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Make two users friends",
				Arguments: pair,
				Action:    r.FriendsAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "End a friendship",
				Arguments: pair,
				Action:    r.FriendsRemove,
			},
			{
				Name:      "list",
				Usage:     "List a user's friends",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user"}},
				Flags:     []cli.Flag{formatFlag(formatter.FormatText, formatter.FormatText, formatter.FormatJSON)},
				Action:    r.FriendsList,
			},
		},
	}
}

// likesCommand handles playlist likes
func likesCommand(r *Runner) *cli.Command {
	pair := []cli.Argument{&cli.StringArg{Name: "user"}, &cli.StringArg{Name: "playlist"}}
	return &cli.Command{
		Name:  "likes",
		Usage: "Manage playlist likes",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Like a playlist",
				Arguments: pair,
				Action:    r.LikesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a like",
				Arguments: pair,
				Action:    r.LikesRemove,
			},
			{
				Name:      "list",
				Usage:     "List the users who like a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Flags:     []cli.Flag{formatFlag(formatter.FormatText, formatter.FormatText, formatter.FormatJSON)},
				Action:    r.LikesList,
			},
		},
	}
}

// auditCommand checks and repairs the denormalized graph state
func auditCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Check the social graph for broken invariants",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Report asymmetric friendships, one-sided likes, dangling references and counter drift",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "repair",
						Usage: "Apply the updates that fix every reported issue",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Print progress while checking and repairing",
					},
					formatFlag("pretty", "pretty", formatter.FormatText, formatter.FormatJSON),
				},
				Action: r.AuditCheck,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}
