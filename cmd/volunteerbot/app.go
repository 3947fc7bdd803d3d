package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/volunteer-bot/internal/config"
	"github.com/example/volunteer-bot/internal/logging"
	"github.com/example/volunteer-bot/internal/persistence/sqlite"
)

func newRootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "volunteerbot",
		Short:         "Volunteer bot database and operations tool",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		migrateCmd(),
		statusCmd(),
		serveCmd(),
	)
	return root
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
}

// openApp loads configuration and opens storage. Logs go to the command's
// stderr so stdout stays parseable.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	storage, err := sqlite.Open(sqlite.Options{
		Pool:          cfg.PoolConfig(),
		MigrationsDir: cfg.DB.Migrations,
		Retry:         cfg.RetryConfig(),
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger.Debug("configuration loaded", "config", cfg.String())
	return &app{cfg: cfg, logger: logger, storage: storage}, nil
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err, "error_kind", logging.ErrorKind(err))
	}
}
