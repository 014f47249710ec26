package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"periodicd/internal/adapter/httpapi"
	"periodicd/internal/adapter/scheduler"
	"periodicd/internal/config"
	"periodicd/internal/platform/httpclient"
	"periodicd/internal/platform/logger"
	"periodicd/internal/platform/pg"
	"periodicd/internal/platform/sqlite"
	"periodicd/internal/probe"
	"periodicd/internal/shared"
	"periodicd/pkg/periodic"
)

const shutdownTimeout = 5 * time.Second

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger

	jobs *scheduler.Scheduler
	db   *sql.DB
	pool *pgxpool.Pool
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "periodicd",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run starts the probes and the HTTP API and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	a.log.Info("starting")
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.setup(ctx); err != nil {
		a.close()
		return err
	}
	defer a.close()

	if err := a.jobs.StartAll(a.cfg.Probe.StartDelay); err != nil {
		return err
	}

	r := httpapi.NewRouter(a.jobs, httpapi.Options{
		Logger:       a.log,
		ControlToken: a.cfg.HTTP.ControlToken,
		ControlRate:  a.cfg.HTTP.ControlRate,
	})
	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("http listening", "addr", a.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server", slog.Any("err", err))
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.jobs.StopContext(shutdownCtx); err != nil {
		a.log.Warn("jobs did not stop in time", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// setup opens the configured probe targets and registers one job per target.
// Work runs under ctx, so the signal context also ends every driving loop.
func (a *App) setup(ctx context.Context) error {
	a.jobs = scheduler.New(scheduler.Config{Logger: a.log})

	p := a.cfg.Probe
	if p.SQLitePath != "" {
		db, err := sqlite.NewDB(ctx, p.SQLitePath)
		if err != nil {
			return shared.Wrap(shared.MarkKind(err, shared.KindDependencyFailure), "open sqlite probe target")
		}
		a.db = db
		if err := a.register(ctx, "sqlite", probe.SQLite(db, p.SQLitePath)); err != nil {
			return err
		}
	}
	if p.PostgresDSN != "" {
		pool, err := pg.NewPool(ctx, p.PostgresDSN)
		if err != nil {
			return shared.Wrap(shared.MarkKind(err, shared.KindValidation), "open postgres probe target")
		}
		a.pool = pool
		if err := a.register(ctx, "postgres", probe.Postgres(pool, pool.Config().ConnConfig.Host)); err != nil {
			return err
		}
	}
	if p.HTTPURL != "" {
		client := httpclient.New(
			httpclient.WithLogger(a.log),
			httpclient.WithTimeout(p.Timeout),
			httpclient.WithHeaders(p.HTTPHeaders),
			httpclient.WithURLRedactor(httpclient.RedactQuery),
		)
		if err := a.register(ctx, "http", probe.HTTP(client, p.HTTPURL)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) register(ctx context.Context, name string, work periodic.WorkFunc[probe.Report]) error {
	job, err := periodic.New(probe.WithTimeout(a.cfg.Probe.Timeout, work), a.cfg.Probe.Interval,
		periodic.WithName(name),
		periodic.WithLogger(a.log),
		periodic.WithIgnoreFailures(a.cfg.Probe.IgnoreFailures),
		periodic.WithContext(ctx),
		periodic.WithHooks(a.jobs.Hooks()),
	)
	if err != nil {
		return shared.Wrapf(err, "create %s probe", name)
	}
	return a.jobs.Add(name, scheduler.Adapt(job))
}

func (a *App) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close sqlite", "error", err)
		}
	}
}
