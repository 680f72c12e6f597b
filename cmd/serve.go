package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/server"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	g, err := r.graph()
	if err != nil {
		return err
	}
	defer r.Close()

	api := server.NewAPI(g.users, g.playlists, g.service, g.auditor, r.logger)
	srv := server.New(cfg, api, r.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("→ Serving on http://%s (Ctrl+C to stop)\n", srv.Addr())
	return srv.Run(ctx)
}
