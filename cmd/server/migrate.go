package main

import (
	"database/sql"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vocabforge/vocab-api/internal/config"
	"github.com/vocabforge/vocab-api/internal/platform/postgres"
)

func newMigrateCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args[0]
			return cmdCtx.withDatabase(cmd.Context(), func(_ *config.Config, log *slog.Logger, db *sql.DB) error {
				log.Info("executing migrations", slog.String("command", command))
				return postgres.RunMigrations(cmd.Context(), db, log, command)
			})
		},
	}
}
