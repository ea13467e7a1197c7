package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// StreakExpirer resets stale study streaks. store.UserStatsStore satisfies it.
type StreakExpirer interface {
	ExpireStreaks(ctx context.Context, today time.Time) (int64, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron     *gocron.Scheduler
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewScheduler creates a scheduler whose daily jobs fire in loc.
func NewScheduler(loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()

	return &Scheduler{
		cron:     cron,
		location: loc,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "scheduler")),
	}
}

// ScheduleStreakSweep runs SweepStreaks every day at the HH:MM given in at.
func (s *Scheduler) ScheduleStreakSweep(at string, expirer StreakExpirer) error {
	_, err := s.cron.Every(1).Day().At(at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.SweepStreaks(ctx, expirer); err != nil {
			s.logger.Error("streak sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule streak sweep at %q: %w", at, err)
	}
	s.logger.Info("streak sweep scheduled",
		slog.String("at", at),
		slog.String("location", s.location.String()))
	return nil
}

// SweepStreaks resets streaks that were not extended yesterday or today.
func (s *Scheduler) SweepStreaks(ctx context.Context, expirer StreakExpirer) (int64, error) {
	today := s.now().In(s.location)
	n, err := expirer.ExpireStreaks(ctx, today)
	if err != nil {
		return 0, err
	}
	s.logger.Info("streak sweep completed",
		slog.Int64("expired", n),
		slog.String("day", today.Format(time.DateOnly)))
	return n, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

// Stop halts the scheduler. Running jobs are allowed to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// JobCount returns the number of scheduled jobs.
func (s *Scheduler) JobCount() int {
	return len(s.cron.Jobs())
}
