package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vocabforge/vocab-api/internal/config"
	"github.com/vocabforge/vocab-api/internal/domain/srs"
	"github.com/vocabforge/vocab-api/internal/events"
	"github.com/vocabforge/vocab-api/internal/platform/postgres"
	"github.com/vocabforge/vocab-api/internal/service/auth"
	"github.com/vocabforge/vocab-api/internal/service/progress"
	"github.com/vocabforge/vocab-api/internal/store"
	"github.com/vocabforge/vocab-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	progressStore store.ProgressStore
	wordStore     store.WordStore
	statsStore    store.UserStatsStore

	jwtService      auth.JWTService
	srsService      srs.Service
	progressService progress.Service

	eventEmitter *events.InMemoryEventEmitter
	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
	scheduler    *task.Scheduler
}

// newApplication wires stores, services and background processing. Nothing
// is started; call startBackground to run the worker pool and scheduler.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.progressStore = postgres.NewPostgresProgressStore(db, logger)
	app.wordStore = postgres.NewPostgresWordStore(db, logger)
	app.statsStore = postgres.NewPostgresUserStatsStore(db, logger)

	app.srsService = srs.NewDefaultService()

	// Reviews are published after commit; stats updates run on the worker pool.
	app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Task.WorkerCount,
	}, logger)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewReviewEventHandler(app.taskQueue, app.statsStore, logger))

	loc := cfg.Progress.Location()
	app.progressService = progress.NewProgressService(
		app.progressStore,
		app.wordStore,
		app.statsStore,
		store.NewTxManager(db),
		app.srsService,
		app.eventEmitter,
		logger,
		progress.WithLocation(loc),
		progress.WithMaxDueLimit(cfg.Progress.MaxDueLimit),
	)

	app.scheduler = task.NewScheduler(loc, logger)
	if err := app.scheduler.ScheduleStreakSweep(cfg.Jobs.StreakSweepAt, app.statsStore); err != nil {
		return nil, fmt.Errorf("failed to schedule streak sweep: %w", err)
	}

	logger.Info("application initialized",
		slog.Int("worker_count", cfg.Task.WorkerCount),
		slog.Int("queue_size", cfg.Task.QueueSize),
		slog.String("timezone", loc.String()))
	return app, nil
}

// startBackground starts the worker pool and the periodic jobs.
func (app *application) startBackground() {
	app.workerPool.Start()
	app.scheduler.Start()
}

// cleanup handles graceful shutdown of application resources. Queued stats
// tasks are drained before workers stop.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Wait()
	}

	app.logger.Info("application shutdown completed")
}
