package reference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/triplog/core/logger"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Cache keeps a process-local copy of a Source. The first read loads it;
// later reads are served from memory until Refresh runs.
type Cache struct {
	src Source

	mu       sync.RWMutex
	loaded   bool
	vehicles []Vehicle
	stores   []Store
	window   Window

	cron *cron.Cron
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	return &Cache{src: src, window: DefaultWindow()}
}

// Refresh reloads every list from the source. On failure the previous
// contents are kept.
func (c *Cache) Refresh(ctx context.Context) error {
	start := time.Now()
	vehicles, err := c.src.Vehicles(ctx)
	if err != nil {
		return c.refreshFailed(ctx, err)
	}
	stores, err := c.src.Stores(ctx)
	if err != nil {
		return c.refreshFailed(ctx, err)
	}
	window, err := c.src.Window(ctx)
	if err != nil {
		return c.refreshFailed(ctx, err)
	}

	c.mu.Lock()
	c.vehicles, c.stores, c.window, c.loaded = vehicles, stores, window, true
	c.mu.Unlock()

	logger.Debug(ctx, logger.CompReference, "cache.refresh",
		slog.String("status", "ok"),
		slog.String("cache", "refresh"),
		slog.Int("vehicles", len(vehicles)),
		slog.Int("stores", len(stores)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (c *Cache) refreshFailed(ctx context.Context, err error) error {
	logger.Warn(ctx, logger.CompReference, "cache.refresh",
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("reference: refresh: %w", err)
}

func (c *Cache) ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Refresh(ctx)
}

// Vehicles returns the cached vehicle list.
func (c *Cache) Vehicles(ctx context.Context) ([]Vehicle, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Vehicle(nil), c.vehicles...), nil
}

// Stores returns the cached store list.
func (c *Cache) Stores(ctx context.Context) ([]Store, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Store(nil), c.stores...), nil
}

// Window returns the cached reporting window, or the default one when the
// source cannot be read.
func (c *Cache) Window(ctx context.Context) (Window, error) {
	if err := c.ensure(ctx); err != nil {
		return DefaultWindow(), nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window, nil
}

// Start schedules Refresh on spec. An empty spec disables the schedule.
func (c *Cache) Start(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("reference: refresh schedule %q: %w", spec, err)
	}
	c.cron = cron.New(cron.WithParser(cronParser))
	if _, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = c.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("reference: refresh schedule %q: %w", spec, err)
	}
	c.cron.Start()
	logger.Info(context.Background(), logger.CompReference, "cache.schedule",
		slog.String("status", "ok"),
		slog.String("spec", spec),
	)
	return nil
}

// Stop halts the refresh schedule and waits for a running refresh.
func (c *Cache) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}
