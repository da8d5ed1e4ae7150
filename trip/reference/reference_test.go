package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/triplog/core/config"
)

var sqliteSchema = []string{`CREATE TABLE vehicles (
	no INTEGER PRIMARY KEY AUTOINCREMENT,
	vehicle_number TEXT NOT NULL UNIQUE,
	info TEXT NOT NULL DEFAULT ''
)`, `CREATE TABLE stores (
	no INTEGER PRIMARY KEY AUTOINCREMENT,
	store_name TEXT NOT NULL UNIQUE,
	address TEXT NOT NULL DEFAULT ''
)`, `CREATE TABLE report_window (
	id INTEGER PRIMARY KEY,
	start_hour INTEGER NOT NULL,
	end_hour INTEGER NOT NULL
)`}

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range sqliteSchema {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestWindowBounds(t *testing.T) {
	day := time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC)

	from, to := DefaultWindow().Bounds(day)
	assert.Equal(t, "2025/01/31 19:00", from)
	assert.Equal(t, "2025/02/01 04:00", to)

	from, to = Window{StartHour: 22, EndHour: 5}.Bounds(day)
	assert.Equal(t, "2025/01/31 22:00", from)
	assert.Equal(t, "2025/02/01 05:00", to)

	from, to = Window{StartHour: 8, EndHour: 17}.Bounds(day)
	assert.Equal(t, "2025/01/31 08:00", from)
	assert.Equal(t, "2025/01/31 17:00", to)
}

func TestSeedAndRead(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	seeder := NewSeeder(config.ReferenceConfig{
		Vehicles: []config.VehicleSeed{{Number: "A-1", Info: "van"}, {Number: "B-2"}},
		Stores:   []config.StoreSeed{{Name: "Ginza", Address: "Chuo"}},
	})
	require.NoError(t, seeder.Seed(ctx, db))
	require.NoError(t, seeder.Seed(ctx, db), "seeding twice keeps existing rows")

	src := NewSQLSource(db)
	vehicles, err := src.Vehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, "A-1", vehicles[0].Number)
	assert.Equal(t, "van", vehicles[0].Info)

	stores, err := src.Stores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Choice{{Label: "Ginza", Value: "Ginza"}}, StoreChoices(stores))
}

func TestSQLWindow(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	src := NewSQLSource(db)

	w, err := src.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow(), w)

	_, err = db.Exec(`INSERT INTO report_window (id, start_hour, end_hour) VALUES (1, 18, 0)`)
	require.NoError(t, err)
	w, err = src.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, Window{StartHour: 18, EndHour: DefaultEndHour}, w)

	_, err = db.Exec(`DROP TABLE report_window`)
	require.NoError(t, err)
	w, err = src.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow(), w)
}

type countingSource struct {
	calls    int
	vehicles []Vehicle
	err      error
}

func (s *countingSource) Vehicles(context.Context) ([]Vehicle, error) {
	s.calls++
	return s.vehicles, s.err
}

func (s *countingSource) Stores(context.Context) ([]Store, error) {
	return nil, nil
}

func (s *countingSource) Window(context.Context) (Window, error) {
	return Window{StartHour: 20, EndHour: 26}, nil
}

func TestCacheLoadsOnceAndRefreshes(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{vehicles: []Vehicle{{Number: "A-1"}}}
	c := NewCache(src)

	v, err := c.Vehicles(ctx)
	require.NoError(t, err)
	assert.Len(t, v, 1)
	_, _ = c.Vehicles(ctx)
	assert.Equal(t, 1, src.calls)

	w, err := c.Window(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, w.StartHour)

	src.vehicles = append(src.vehicles, Vehicle{Number: "B-2"})
	require.NoError(t, c.Refresh(ctx))
	v, _ = c.Vehicles(ctx)
	assert.Len(t, v, 2)

	src.err = errors.New("down")
	assert.Error(t, c.Refresh(ctx))
	v, err = c.Vehicles(ctx)
	require.NoError(t, err)
	assert.Len(t, v, 2, "failed refresh keeps previous contents")
}

func TestCacheWindowFallsBack(t *testing.T) {
	c := NewCache(&countingSource{err: errors.New("down")})
	w, err := c.Window(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow(), w)
	_, err = c.Vehicles(context.Background())
	assert.Error(t, err)
}

func TestCacheStart(t *testing.T) {
	c := NewCache(&countingSource{})
	assert.NoError(t, c.Start(""))
	assert.Error(t, c.Start("not a schedule"))
	require.NoError(t, c.Start("*/5 * * * *"))
	c.Stop()
}
