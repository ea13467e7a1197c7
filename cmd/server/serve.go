package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vocabforge/vocab-api/internal/config"
	"github.com/vocabforge/vocab-api/internal/platform/postgres"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return cmdCtx.withDatabase(ctx, func(cfg *config.Config, log *slog.Logger, db *sql.DB) error {
				if migrate {
					if err := postgres.RunMigrations(ctx, db, log, "up"); err != nil {
						return err
					}
				}
				return runServer(ctx, cfg, log, db)
			})
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

// runServer wires the application and serves until ctx is cancelled.
func runServer(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) error {
	app, err := newApplication(cfg, log, db)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", cfg.Server.Port, err)
	}

	app.startBackground()
	return app.startHTTPServer(ctx, ln, app.setupRouter())
}
