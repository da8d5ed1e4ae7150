package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	coreconfig "github.com/m3rciful/triplog/core/config"
)

func testOptions(t *testing.T, calls *[]string) Options {
	t.Helper()
	return Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { *calls = append(*calls, "logger"); return nil },
		Wait: func(context.Context, string, time.Duration) error {
			*calls = append(*calls, "wait")
			return nil
		},
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			*calls = append(*calls, "connect")
			return sqlx.Open("sqlite", ":memory:")
		},
		Migrate: func(context.Context, coreconfig.DatabaseConfig) error {
			*calls = append(*calls, "migrate")
			return nil
		},
	}
}

func TestRunOrder(t *testing.T) {
	var calls []string
	opts := testOptions(t, &calls)
	opts.Modules.Seeders = []Seeder{SeederFunc(func(context.Context, *sqlx.DB) error {
		calls = append(calls, "seed")
		return nil
	})}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { res.DB.Close() })
	assert.Equal(t, []string{"logger", "wait", "connect", "migrate", "seed"}, calls)
}

func TestRunSkipsWait(t *testing.T) {
	var calls []string
	opts := testOptions(t, &calls)
	opts.WaitTimeout = -1

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { res.DB.Close() })
	assert.NotContains(t, calls, "wait")
}

func TestRunFailures(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)

	var calls []string
	opts := testOptions(t, &calls)
	opts.Migrate = func(context.Context, coreconfig.DatabaseConfig) error { return errors.New("dirty") }
	_, err = Run(context.Background(), opts)
	assert.ErrorContains(t, err, "migrations failed")

	opts = testOptions(t, &calls)
	opts.Modules.Seeders = []Seeder{SeederFunc(func(context.Context, *sqlx.DB) error { return errors.New("dup") })}
	_, err = Run(context.Background(), opts)
	assert.ErrorContains(t, err, "seeder 0")
}
