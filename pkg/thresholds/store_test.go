package thresholds_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
	"github.com/ogulcanaydogan/stockwatch/pkg/storage"
	"github.com/ogulcanaydogan/stockwatch/pkg/thresholds"
)

func newTestStore(t *testing.T) (*thresholds.Store, storage.Storage) {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return thresholds.NewStore(db, "", logger), db
}

func intPtr(v int) *int { return &v }

func TestStore_LoadDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	got := store.Load(context.Background())
	assert.Equal(t, model.DefaultSettings(), got)
	assert.Equal(t, model.DefaultSettings(), store.Current())
}

func TestStore_LoadCorrupt(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, thresholds.DefaultKey, "{not json"))

	assert.Equal(t, model.DefaultSettings(), store.Load(ctx))
}

func TestStore_LoadInvalidValues(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, thresholds.DefaultKey, `{"warningThreshold":3,"criticalThreshold":7}`))

	assert.Equal(t, model.DefaultSettings(), store.Load(ctx))
}

func TestStore_LoadPartialDocument(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, thresholds.DefaultKey, `{"warningThreshold":25,"criticalThreshold":3}`))

	got := store.Load(ctx)
	assert.Equal(t, 25, got.WarningThreshold)
	assert.Equal(t, 3, got.CriticalThreshold)
	assert.Equal(t, int64(model.DefaultNotificationDurationMs), got.NotificationDurationMs)
	assert.Equal(t, int64(model.DefaultPollIntervalMs), got.PollIntervalMs)
}

func TestStore_UpdatePersists(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	store.Load(ctx)

	got, err := store.Update(ctx, model.SettingsPatch{WarningThreshold: intPtr(20), CriticalThreshold: intPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, 20, got.WarningThreshold)
	assert.Equal(t, 8, got.CriticalThreshold)
	assert.Equal(t, got, store.Current())

	raw, ok, err := db.Get(ctx, thresholds.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)

	var persisted model.ThresholdSettings
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, got, persisted)

	// A fresh store sees the persisted values
	reloaded := thresholds.NewStore(db, "", slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	assert.Equal(t, got, reloaded.Load(ctx))
}

func TestStore_UpdateRejectsInvertedThresholds(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	store.Load(ctx)

	called := false
	store.OnChange(func(model.ThresholdSettings) { called = true })

	got, err := store.Update(ctx, model.SettingsPatch{CriticalThreshold: intPtr(20), WarningThreshold: intPtr(10)})
	require.Error(t, err)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "criticalThreshold", verr.Field)

	assert.Equal(t, model.DefaultSettings(), got)
	assert.Equal(t, model.DefaultSettings(), store.Current())
	assert.False(t, called)

	_, ok, err := db.Get(ctx, thresholds.DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok, "rejected update must not be persisted")
}

func TestStore_UpdateRunsHooks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var seen []model.ThresholdSettings
	store.OnChange(func(s model.ThresholdSettings) { seen = append(seen, s) })

	interval := int64(5000)
	_, err := store.Update(ctx, model.SettingsPatch{PollIntervalMs: &interval})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, int64(5000), seen[0].PollIntervalMs)
}

func TestStore_Save(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	bad := model.DefaultSettings()
	bad.CriticalThreshold = bad.WarningThreshold
	assert.Error(t, store.Save(ctx, bad))

	good := model.DefaultSettings()
	good.WarningThreshold = 50
	require.NoError(t, store.Save(ctx, good))
	assert.Equal(t, good, store.Load(ctx))
}
