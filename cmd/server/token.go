package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vocabforge/vocab-api/internal/service/auth"
)

func newTokenCommand(cmdCtx *commandContext) *cobra.Command {
	var userFlag string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user (local testing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userFlag, err)
			}

			cfg, log, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}
			token, err := jwtService.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			log.Debug("access token issued",
				slog.String("user_id", userID.String()),
				slog.Int("lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
