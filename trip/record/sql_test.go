package record

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/triplog/trip/flow"
)

const sqliteSchema = `CREATE TABLE trip_records (
	no INTEGER PRIMARY KEY AUTOINCREMENT,
	departure_time TEXT NOT NULL,
	departure_point TEXT NOT NULL DEFAULT '',
	store_name TEXT NOT NULL,
	via_point TEXT NOT NULL DEFAULT '',
	arrival_time TEXT NOT NULL,
	destination TEXT NOT NULL,
	distance TEXT NOT NULL,
	amount TEXT NOT NULL,
	vehicle_number TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT ''
)`

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return NewSQLStore(db)
}

func trip(departure, store, vehicle string) Record {
	return Record{
		DepartureTime: departure,
		StoreName:     store,
		ArrivalTime:   departure,
		Destination:   "Home",
		Distance:      "10",
		Amount:        "3000",
		VehicleNumber: vehicle,
	}
}

func TestAppendAssignsSequence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Append(ctx, trip("2025/01/02 19:30", "Ginza", "A-1"))
	require.NoError(t, err)
	b, err := s.Append(ctx, trip("2025/01/02 20:00", "Shibuya", "A-1"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.No)
	assert.Equal(t, int64(2), b.No)
}

func TestSearchFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, r := range []Record{
		trip("2025/01/02 18:59", "Ginza", "A-1"),
		trip("2025/01/02 19:00", "Ginza", "A-1"),
		trip("2025/01/02 23:15", "Shibuya", "B-2"),
		trip("2025/01/03 03:59", "Ginza", "A-1"),
		trip("2025/01/03 04:00", "Ginza", "A-1"),
	} {
		_, err := s.Append(ctx, r)
		require.NoError(t, err)
	}

	window := Query{From: "2025/01/02 19:00", To: "2025/01/03 04:00"}
	all, err := s.Search(ctx, window)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025/01/02 19:00", all[0].DepartureTime)
	assert.Equal(t, "2025/01/03 03:59", all[2].DepartureTime)

	q := window
	q.Vehicle = "A-1"
	byVehicle, err := s.Search(ctx, q)
	require.NoError(t, err)
	assert.Len(t, byVehicle, 2)

	q = window
	q.Hour = "23"
	byHour, err := s.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, byHour, 1)
	assert.Equal(t, "Shibuya", byHour[0].StoreName)

	q = window
	q.Store = "Ginza"
	byStore, err := s.Search(ctx, q)
	require.NoError(t, err)
	assert.Len(t, byStore, 2)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r, err := s.Append(ctx, trip("2025/01/02 19:30", "Ginza", "A-1"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, r.No))
	assert.ErrorIs(t, s.Delete(ctx, r.No), ErrNotFound)

	left, err := s.Search(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestFromDraftAndHelpers(t *testing.T) {
	r := FromDraft(map[string]string{
		flow.FieldDepartureTime: "2025/01/02 09:30",
		flow.FieldStoreName:     "Ginza",
		flow.FieldDestination:   "Home",
		flow.FieldNote:          "",
	})
	r.No = 5
	assert.Equal(t, "09", r.Hour())
	assert.Equal(t, "#5 2025/01/02 09:30 Ginza -> Home", r.Summary())
	assert.Equal(t, "", Record{DepartureTime: "bad"}.Hour())
}
