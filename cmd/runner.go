package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/repositories"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/social"
	"github.com/desertthunder/playgraph/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      docstore.Store
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      docstore.Store // Used instead of opening the configured database
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// Before loads the config file named by --config (when present), applies .env and PLAYGRAPH_* overrides,
// and sets the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, r.configPath)
	}

	if err := shared.LoadEnv(); err != nil {
		return ctx, err
	}
	if err := r.config.ApplyEnv(); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// Close releases the database opened by [Runner.openStore]. An injected store is left as is.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.store = nil
	return err
}

// openStore returns the injected store or opens the configured one, running migrations for SQL drivers.
func (r *Runner) openStore() (docstore.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	cfg := r.config.Database
	if cfg.Driver == shared.DriverMemory {
		r.logger.Warn("using in-memory store, data is lost on exit")
		r.store = docstore.NewMemoryStore(models.Keys())
		return r.store, nil
	}

	dialect, err := docstore.DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := shared.RunMigrations(db, cfg.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Debug("opened database", "driver", cfg.Driver)
	r.db = db
	r.store = docstore.NewSQLStore(db, dialect, models.Keys())
	return r.store, nil
}

// graph bundles the repositories and services built over one store.
type graph struct {
	users     *repositories.UserRepository
	playlists *repositories.PlaylistRepository
	service   *social.Service
	auditor   *tasks.Auditor
}

func (r *Runner) graph() (*graph, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	users := repositories.NewUserRepository(store)
	playlists := repositories.NewPlaylistRepository(store)
	uow := repositories.NewUnitOfWork(store)
	if !uow.Transactional() {
		r.logger.Warn("store has no transactions, relationship changes are not atomic")
	}

	return &graph{
		users:     users,
		playlists: playlists,
		service:   social.NewService(users, playlists, social.WithUnitOfWork(uow), social.WithLogger(r.logger)),
		auditor: tasks.NewAuditor(users, playlists, tasks.AuditOpts{
			NumWorkers: r.config.Audit.Workers,
			RateLimit:  r.config.Audit.RateLimit,
		}, r.logger),
	}, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, usersCommand, playlistsCommand, friendsCommand, likesCommand, auditCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) write(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
