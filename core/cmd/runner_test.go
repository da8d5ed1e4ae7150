package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/triplog/core/config"
	coretelegram "github.com/m3rciful/triplog/core/telegram"
)

type stubApp struct {
	closed bool
}

func (s *stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (s *stubApp) Close() error {
	s.closed = true
	return nil
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("TRIP_CONFIG", "/env.yaml")

	p, err := ResolveConfigPath("/flag.yaml", "TRIP_CONFIG", "/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/flag.yaml", p)

	p, err = ResolveConfigPath("", "TRIP_CONFIG", "/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/env.yaml", p)

	p, err = ResolveConfigPath("", "UNSET_TRIP_CONFIG", "/default.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/default.yaml", p)

	_, err = ResolveConfigPath("", "UNSET_TRIP_CONFIG", "")
	assert.Error(t, err)
}

func TestRunHooks(t *testing.T) {
	app := &stubApp{}
	var started, stopped bool
	err := Run(Options{
		ConfigPath:     "config.yaml",
		LoadConfig:     func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap:      func(context.Context, *coreconfig.Config) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, app.closed)
}

func TestRunBootstrapFailure(t *testing.T) {
	err := Run(Options{
		ConfigPath: "config.yaml",
		LoadConfig: func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap: func(context.Context, *coreconfig.Config) (TelegramApp, error) {
			return nil, errors.New("no db")
		},
	})
	assert.ErrorContains(t, err, "no db")
}
