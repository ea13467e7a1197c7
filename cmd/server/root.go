package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/vocabforge/vocab-api/internal/config"
	"github.com/vocabforge/vocab-api/internal/platform/logger"
)

// commandContext lazily loads what the subcommands share.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads configuration and installs the logger once.
func (c *commandContext) ensureConfig() (*config.Config, *slog.Logger, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			c.configErr = fmt.Errorf("failed to load configuration: %w", err)
			return
		}
		l, err := logger.Setup(cfg.Server)
		if err != nil {
			c.configErr = fmt.Errorf("failed to set up logger: %w", err)
			return
		}
		c.config = cfg
		c.logger = l
	})
	return c.config, c.logger, c.configErr
}

// withDatabase opens the database for the duration of fn.
func (c *commandContext) withDatabase(
	ctx context.Context,
	fn func(cfg *config.Config, log *slog.Logger, db *sql.DB) error,
) error {
	cfg, log, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database connection", slog.String("error", cerr.Error()))
		}
	}()
	return fn(cfg, log, db)
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)
	serveCmd := newServeCommand(ctx)

	rootCmd := &cobra.Command{
		Use:           "vocab-api",
		Short:         "Vocabulary spaced repetition API",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand starts the server.
		RunE: serveCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
