// Package bootstrap brings up the shared infrastructure before the bot runs.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/triplog/core/config"
	coredatabase "github.com/m3rciful/triplog/core/database"
	"github.com/m3rciful/triplog/core/logger"
)

const defaultWaitTimeout = 30 * time.Second

// Options control the generic bootstrap pipeline.
type Options struct {
	Config  *coreconfig.Config
	Modules Modules

	// WaitTimeout bounds how long to wait for PostgreSQL to answer;
	// negative skips the wait.
	WaitTimeout time.Duration

	LoggerInit func(*coreconfig.Config) error
	Wait       func(ctx context.Context, dsn string, timeout time.Duration) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, applies migrations
// and runs the seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.Init
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	if opts.WaitTimeout >= 0 {
		wait := opts.Wait
		if wait == nil {
			wait = coredatabase.WaitForPostgres
		}
		timeout := opts.WaitTimeout
		if timeout == 0 {
			timeout = defaultWaitTimeout
		}
		if err := wait(ctx, cfg.Database.DSN(), timeout); err != nil {
			return nil, fmt.Errorf("bootstrap: database not ready: %w", err)
		}
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	if err := opts.Modules.seed(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info(ctx, logger.CompApp, "bootstrap.done",
		slog.String("status", "ok"),
		slog.Int("seeders", len(opts.Modules.Seeders)),
		slog.Duration("duration", logger.Took(start)),
	)
	return &Result{DB: db}, nil
}
