package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/stockwatch/pkg/storage"
)

func newTestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_GetMissing(t *testing.T) {
	db := newTestDB(t)

	value, ok, err := db.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestSQLite_SetGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "stock_alert_settings", `{"warningThreshold":10}`))

	value, ok, err := db.Get(ctx, "stock_alert_settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"warningThreshold":10}`, value)
}

func TestSQLite_SetOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "k", "v1"))
	require.NoError(t, db.Set(ctx, "k", "v2"))

	value, ok, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "settings.db")
	ctx := context.Background()

	db1, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, db1.Set(ctx, "k", "kept"))
	require.NoError(t, db1.Close())

	// Reopening also re-runs migrations, which must be idempotent
	db2, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	value, ok, err := db2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", value)
}
