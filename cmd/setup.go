package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playgraph/internal/shared"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using current config", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			config, err := shared.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := config.ApplyEnv(); err != nil {
				return err
			}
			r.config = config
		}
	}

	cfg := r.config.Database
	if cfg.Driver == shared.DriverMemory {
		return r.writePlain("✓ Memory store needs no setup\n")
	}

	r.logger.Info("initializing database", "driver", cfg.Driver)

	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db, cfg.Driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for %s database", cfg.Driver)
	return r.writePlain("✓ Database ready (%s)\n", cfg.Driver)
}
