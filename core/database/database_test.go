package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/triplog/core/config"
)

func TestUpFilesAndApplied(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_records.up.sql",
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000003_window.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files := upFiles(dir)
	assert.Equal(t, []string{"000001_init.up.sql", "000002_records.up.sql", "000003_window.up.sql"}, files)
	assert.Equal(t, []string{"000002_records.up.sql", "000003_window.up.sql"}, appliedBetween(files, 1, 3))
	assert.Empty(t, appliedBetween(files, 3, 3))
	assert.Nil(t, upFiles(filepath.Join(dir, "missing")))
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = ConnectRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	assert.Error(t, err)
}
