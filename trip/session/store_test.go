package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/triplog/trip/flow"
)

const sqliteSchema = `CREATE TABLE user_sessions (
	user_id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	draft TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return db
}

// runStoreContract checks the behavior every Store must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	in := &Session{
		UserID:    "42",
		State:     flow.StateAmount,
		Draft:     map[string]string{flow.FieldStoreName: "Ginza", flow.FieldDistance: "12.5"},
		UpdatedAt: at,
	}
	require.NoError(t, store.Put(ctx, in))

	got, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, flow.StateAmount, got.State)
	assert.Equal(t, in.Draft, got.Draft)
	assert.True(t, at.Equal(got.UpdatedAt), "updated_at %v != %v", got.UpdatedAt, at)

	in.Reset()
	in.UpdatedAt = at.Add(time.Minute)
	require.NoError(t, store.Put(ctx, in))

	got, err = store.Get(ctx, "42")
	require.NoError(t, err)
	assert.True(t, got.Idle())
	assert.Empty(t, got.Draft)
	assert.NotNil(t, got.Draft)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	runStoreContract(t, store)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New("7")
	s.Draft["note"] = "a"
	require.NoError(t, store.Put(ctx, s))

	s.Draft["note"] = "b"
	got, err := store.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Draft["note"])

	got.Draft["note"] = "c"
	again, _ := store.Get(ctx, "7")
	assert.Equal(t, "a", again.Draft["note"])
}

func TestSQLStore(t *testing.T) {
	runStoreContract(t, NewSQLStore(openSQLite(t)))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	runStoreContract(t, NewRedisStore(client))
	assert.True(t, mr.Exists("triplog:session:42"))
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, WithPrefix("test:"), WithTTL(time.Hour))
	require.NoError(t, store.Put(context.Background(), New("1")))
	assert.Equal(t, time.Hour, mr.TTL("test:1"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCreatesIdleSession(t *testing.T) {
	s, err := Load(context.Background(), NewMemoryStore(), "9")
	require.NoError(t, err)
	assert.Equal(t, "9", s.UserID)
	assert.True(t, s.Idle())
	assert.NotNil(t, s.Draft)
}
