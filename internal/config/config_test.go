package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/stockwatch/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "stock_alert_settings", cfg.Settings.Key)
	assert.Equal(t, "/products", cfg.Inventory.ProductsPath)
	assert.Equal(t, 100000, cfg.Inventory.PageSize)
	assert.Equal(t, "limit", cfg.Inventory.PageSizeParam)
	assert.Equal(t, "10s", cfg.Inventory.Timeout)
	assert.Equal(t, "10s", cfg.Scheduler.RetryDelay)
	assert.Equal(t, "300ms", cfg.Notifications.FadeWindow)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  driver: redis
  path: /tmp/test.db
  redis:
    addr: redis:6379
    db: 2
inventory:
  base_url: http://inventory.internal:8000
  products_path: /api/products
  token: secret
scheduler:
  retry_delay: 5s
server:
  listen: ":9090"
  allowed_origins:
    - http://localhost:5173
logging:
  level: debug
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "http://inventory.internal:8000", cfg.Inventory.BaseURL)
	assert.Equal(t, "/api/products", cfg.Inventory.ProductsPath)
	assert.Equal(t, "secret", cfg.Inventory.Token)
	assert.Equal(t, "5s", cfg.Scheduler.RetryDelay)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "limit", cfg.Inventory.PageSizeParam, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOCKWATCH_LOGGING_LEVEL", "error")
	t.Setenv("STOCKWATCH_SERVER_LISTEN", ":7070")
	t.Setenv("STOCKWATCH_INVENTORY_BASE_URL", "http://env:1234")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, "http://env:1234", cfg.Inventory.BaseURL)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	d, err := config.Duration("", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	d, err = config.Duration("250ms", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = config.Duration("soon", time.Second)
	assert.Error(t, err)

	_, err = config.Duration("-1s", time.Second)
	assert.Error(t, err)
}
