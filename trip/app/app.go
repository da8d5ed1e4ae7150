// Package app assembles the trip log bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/triplog/core/bootstrap"
	"github.com/m3rciful/triplog/core/cmd"
	"github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/database"
	"github.com/m3rciful/triplog/core/logger"
	"github.com/m3rciful/triplog/core/metrics"
	tg "github.com/m3rciful/triplog/core/telegram"
	tghelpers "github.com/m3rciful/triplog/core/telegram/helpers"
	"github.com/m3rciful/triplog/core/telegram/router"
	tgsender "github.com/m3rciful/triplog/core/telegram/sender"
	"github.com/m3rciful/triplog/core/telegram/ui"
	"github.com/m3rciful/triplog/trip/bot"
	"github.com/m3rciful/triplog/trip/engine"
	"github.com/m3rciful/triplog/trip/geocode"
	"github.com/m3rciful/triplog/trip/record"
	"github.com/m3rciful/triplog/trip/reference"
	"github.com/m3rciful/triplog/trip/session"

	tele "gopkg.in/telebot.v4"
)

const textSlowDown = "Too many messages. Please wait a moment."

// App owns every long-lived component of the bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	redis    *redis.Client
	cache    *reference.Cache
	metrics  *metrics.Metrics
	telegram *bot.Telegram
}

var _ cmd.TelegramApp = (*App)(nil)

// New bootstraps infrastructure and wires the conversation.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config: cfg,
		Modules: bootstrap.Modules{
			Seeders: []bootstrap.Seeder{reference.NewSeeder(cfg.Reference)},
		},
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, db: res.DB, metrics: metrics.New()}

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.cache = reference.NewCache(reference.NewSQLSource(a.db))
	if err := a.cache.Refresh(ctx); err != nil {
		logger.Warn(ctx, logger.CompApp, "app.reference",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if err := a.cache.Start(cfg.Reference.RefreshCron); err != nil {
		_ = a.Close()
		return nil, err
	}

	records := record.NewSQLStore(a.db)
	eng := engine.New(engine.Deps{
		Reference: a.cache,
		Records:   records,
		Geocoder:  newGeocoder(ctx, cfg.Geocoder),
	})
	dispatcher := bot.NewDispatcher(bot.Options{
		Sessions: sessions,
		Records:  records,
		Handler:  engine.WithTimeout(eng, cfg.Session.Timeout, time.Now),
		Metrics:  a.metrics,
	})
	a.telegram = bot.NewTelegram(dispatcher, a.cache)

	logger.Info(ctx, logger.CompApp, "app.wired",
		slog.String("status", "ok"),
		slog.String("sessions", cfg.Session.Backend),
		slog.Duration("session_timeout", cfg.Session.Timeout),
		slog.Bool("geocoder", cfg.Geocoder.APIKey != ""),
	)
	return a, nil
}

func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Backend {
	case config.SessionMemory:
		return session.NewMemoryStore(), nil
	case config.SessionRedis:
		client, err := database.ConnectRedis(ctx, a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("app: session store: %w", err)
		}
		a.redis = client
		return session.NewRedisStore(client,
			session.WithPrefix(a.cfg.Redis.Prefix),
			session.WithTTL(a.cfg.Session.TTL),
		), nil
	default:
		return session.NewSQLStore(a.db), nil
	}
}

// newGeocoder returns nil without an API key; locations are then stored as
// coordinates.
func newGeocoder(ctx context.Context, cfg config.GeocoderConfig) geocode.Reverser {
	if cfg.APIKey == "" {
		logger.Warn(ctx, logger.CompGeocoder, "geocoder.disabled",
			slog.String("status", "skip"),
			slog.String("reason", "no_api_key"),
		)
		return nil
	}
	return geocode.New(cfg, nil)
}

// TelegramRunOptions builds routes, middleware and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.telegram.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	var fallback ui.FallbackProvider = a.telegram
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{NotFound: fallback.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a.telegram, reg, router.TextOptions{UnknownDocument: fallback.UnknownDocument()})...)

	onLimited := func(c tele.Context) error {
		if c.Callback() != nil {
			return tghelpers.Respond(c, textSlowDown)
		}
		return nil
	}

	mr := newMetricsRunner(a.metrics, a.cfg.Metrics)

	return tg.RunOptions{
		Config:        a.cfg,
		Registry:      reg,
		SenderOptions: tgsender.Options{MaxRetries: 3},
		Middlewares:   tg.DefaultMiddlewares(a.cfg, a.metrics, onLimited),
		Routes:        routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			mr.start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			mr.stop(ctx)
			return nil
		},
	}, nil
}

// metricsRunner owns the metrics server goroutine started with the bot.
type metricsRunner struct {
	m      *metrics.Metrics
	cfg    config.MetricsConfig
	cancel context.CancelFunc
	done   chan struct{}
}

func newMetricsRunner(m *metrics.Metrics, cfg config.MetricsConfig) *metricsRunner {
	return &metricsRunner{m: m, cfg: cfg}
}

func (r *metricsRunner) start(ctx context.Context) {
	mctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		if err := r.m.Serve(mctx, r.cfg); err != nil {
			logger.Error(mctx, logger.CompMetrics, "metrics.serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// stop cancels the server and waits for it until ctx expires. It returns
// at once when start never ran.
func (r *metricsRunner) stop(ctx context.Context) {
	if r.cancel == nil {
		return
	}
	r.cancel()
	select {
	case <-r.done:
	case <-ctx.Done():
	}
}

// Close releases the database, Redis and the refresh schedule.
func (a *App) Close() error {
	if a.cache != nil {
		a.cache.Stop()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
