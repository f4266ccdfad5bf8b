package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"

	"github.com/phrazzld/presser/internal/api"
	"github.com/phrazzld/presser/internal/artifact"
	"github.com/phrazzld/presser/internal/config"
	"github.com/phrazzld/presser/internal/events"
	"github.com/phrazzld/presser/internal/platform/logger"
	"github.com/phrazzld/presser/internal/platform/postgres"
	"github.com/phrazzld/presser/internal/render"
	"github.com/phrazzld/presser/internal/service"
	"github.com/phrazzld/presser/internal/store"
	"github.com/phrazzld/presser/internal/worker"
)

// application holds the wired components of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger

	jobStore   store.JobStore
	queue      *worker.Queue
	pool       *worker.Pool
	jobService *service.JobService

	jobHandler    *api.JobHandler
	healthHandler *api.HealthHandler

	// held for cleanup
	db       *sql.DB
	natsConn *nats.Conn
}

// initializeApp loads configuration and wires every application component.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"render_backend", cfg.Render.Backend,
		"worker_count", cfg.Worker.Count,
		"queue_depth", cfg.Worker.QueueDepth,
		"postgres", cfg.Storage.DatabaseURL != "",
		"nats", cfg.Notify.NATSURL != "")

	app := &application{
		config: cfg,
		logger: appLogger,
	}

	emitter, err := app.setupEmitter()
	if err != nil {
		app.cleanup()
		return nil, err
	}

	if err := app.setupJobStore(emitter); err != nil {
		app.cleanup()
		return nil, err
	}

	artifacts, err := artifact.NewStore(cfg.Storage.ArtifactDir, appLogger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to set up artifact store: %w", err)
	}

	gateway, err := app.setupGateway()
	if err != nil {
		app.cleanup()
		return nil, err
	}

	app.queue = worker.NewQueue(cfg.Worker.QueueDepth, appLogger)
	app.pool = worker.NewPool(app.jobStore, gateway, artifacts, app.queue, worker.PoolConfig{
		WorkerCount:           cfg.Worker.Count,
		StuckJobAge:           cfg.Worker.StuckJobAge,
		StuckJobCheckInterval: cfg.Worker.StuckJobCheckInterval,
	}, appLogger)

	app.jobService = service.NewJobService(app.jobStore, app.queue, artifacts, appLogger)
	app.jobHandler = api.NewJobHandler(app.jobService, appLogger)
	app.healthHandler = api.NewHealthHandler(app.jobService, appLogger)

	return app, nil
}

// setupEmitter builds the transition event emitter, attaching the NATS
// publisher when a NATS URL is configured.
func (app *application) setupEmitter() (events.Emitter, error) {
	emitter := events.NewInMemoryEmitter(app.logger)

	if app.config.Notify.NATSURL == "" {
		return emitter, nil
	}

	nc, err := nats.Connect(app.config.Notify.NATSURL,
		nats.Name("presser"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		// Notifications are best-effort; run without them rather than
		// refusing to start.
		app.logger.Warn("failed to connect to NATS, notifications disabled",
			"url", app.config.Notify.NATSURL,
			"error", err)
		return emitter, nil
	}
	app.natsConn = nc

	emitter.Subscribe(events.NewNATSPublisher(nc, app.config.Notify.SubjectPrefix, app.logger))
	app.logger.Info("NATS notifications enabled",
		"subject_prefix", app.config.Notify.SubjectPrefix)
	return emitter, nil
}

// setupJobStore selects the Postgres-backed job store when a database URL is
// configured, falling back to the in-memory store otherwise.
func (app *application) setupJobStore(emitter events.Emitter) error {
	if app.config.Storage.DatabaseURL == "" {
		app.logger.Info("using in-memory job store")
		app.jobStore = store.NewMemoryJobStore(emitter, app.logger)
		return nil
	}

	db, err := sql.Open("pgx", app.config.Storage.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	app.db = db

	if err := runMigrations(db, app.logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app.logger.Info("using postgres job store")
	app.jobStore = postgres.NewPostgresJobStore(db, emitter, app.logger)
	return nil
}

// setupGateway builds the configured rendering backend.
func (app *application) setupGateway() (render.Gateway, error) {
	switch app.config.Render.Backend {
	case "exec":
		return render.NewExecGateway(app.config.Render.BrowserPath, app.config.Render.Timeout, app.logger), nil
	case "http":
		return render.NewHTTPGateway(app.config.Render.ServiceURL, app.config.Render.Timeout, app.logger), nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", app.config.Render.Backend)
	}
}

// cleanup releases external resources in reverse acquisition order.
func (app *application) cleanup() {
	if app.pool != nil {
		app.pool.Stop()
	}
	if app.natsConn != nil {
		app.natsConn.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
