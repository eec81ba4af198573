package storage_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/stockwatch/pkg/storage"
)

func TestRedis_SetGet(t *testing.T) {
	addr := os.Getenv("STOCKWATCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOCKWATCH_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	r, err := storage.NewRedis(ctx, storage.RedisOptions{
		Addr:   addr,
		Prefix: "stockwatch-test:" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", "v"))
	value, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestRedis_Unreachable(t *testing.T) {
	_, err := storage.NewRedis(context.Background(), storage.RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
