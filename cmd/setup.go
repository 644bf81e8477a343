package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/desertthunder/hymnal/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration unless one already exists.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			r.writePlain("Config already exists at %s (use --force to overwrite)\n", path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s Config written to %s\n", ui.OK("✓"), path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set notion.api_key and notion.hymns_database_id (or NOTION_API_KEY / NOTION_DATABASE_ID)\n")
	r.writePlain("2. Set generation.api_key (or OPENAI_API_KEY / GEMINI_API_KEY)\n")
	r.writePlain("3. Run 'hymnal lectionary %s' to test the lectionary lookup\n", shared.FormatDate(r.today()))
	return nil
}

// SetupDatabase initializes the SQLite database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Storage.DatabasePath
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("%s Rolled back latest migration on %s\n", ui.OK("✓"), path)
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("%s Database ready at %s\n", ui.OK("✓"), path)
	if r.config.Storage.Backend != shared.BackendSQLite {
		r.writePlain("%s\n", ui.Help("Set storage.backend = \"sqlite\" to keep the archive and usage log here."))
	}
	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file or initialize local storage",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration to --config",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the SQLite database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
