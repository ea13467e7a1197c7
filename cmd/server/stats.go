package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/vocabforge/vocab-api/internal/config"
	"github.com/vocabforge/vocab-api/internal/domain"
)

func newStatsCommand(cmdCtx *commandContext) *cobra.Command {
	var userFlag string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a user's learning statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userFlag, err)
			}

			return cmdCtx.withDatabase(cmd.Context(), func(cfg *config.Config, log *slog.Logger, db *sql.DB) error {
				app, err := newApplication(cfg, log, db)
				if err != nil {
					return err
				}
				defer app.cleanup()

				stats, err := app.progressService.GetLearningStats(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("failed to load stats for %s: %w", userID, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// renderStats formats a learning stats snapshot as a two column table.
func renderStats(stats *domain.LearningStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	rows := []struct {
		label string
		value string
	}{
		{"Words learning", strconv.Itoa(stats.TotalWords)},
		{"  learning (0-2)", strconv.Itoa(stats.LearningWords)},
		{"  strong (3-5)", strconv.Itoa(stats.StrongWords)},
		{"  mastered (6)", strconv.Itoa(stats.MasteredWords)},
		{"Due for review", strconv.Itoa(stats.DueForReview)},
		{"Overdue", strconv.Itoa(stats.OverdueWords)},
		{"Overall accuracy", fmt.Sprintf("%.1f%%", stats.OverallAccuracy)},
		{"Reviews today", strconv.Itoa(stats.ReviewsToday)},
		{"Reviews this week", strconv.Itoa(stats.ReviewsThisWeek)},
		{"Reviews total", strconv.Itoa(stats.ReviewsTotal)},
		{"Current streak", strconv.Itoa(stats.CurrentStreak)},
		{"Longest streak", strconv.Itoa(stats.LongestStreak)},
	}
	for _, row := range rows {
		tw.AppendRow(table.Row{row.label, row.value})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
