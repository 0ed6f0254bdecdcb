package storage

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestOpenPostgres(t *testing.T) {
	dsn := os.Getenv("POKERSYNC_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("POKERSYNC_TEST_PG_DSN not set")
	}
	db, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
