package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/stockwatch/internal/config"
	"github.com/ogulcanaydogan/stockwatch/pkg/inventory"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
	"github.com/ogulcanaydogan/stockwatch/pkg/notify"
	"github.com/ogulcanaydogan/stockwatch/pkg/scheduler"
	"github.com/ogulcanaydogan/stockwatch/pkg/storage"
	"github.com/ogulcanaydogan/stockwatch/pkg/thresholds"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stockwatch",
	Short: "stockwatch - inventory stock alert monitor",
	Long: `stockwatch polls an inventory service, classifies products against
configurable low-stock and critical-stock thresholds, and surfaces changes
as grouped notifications. It provides a long-running watcher with an HTTP
settings API, a one-shot check, and settings management.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.stockwatch/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates the settings backend selected by storage.driver.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "", "sqlite":
		return storage.NewSQLite(cfg.Storage.Path)
	case "redis":
		return storage.NewRedis(ctx, storage.RedisOptions{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// initStore opens storage and loads the persisted threshold settings.
func initStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*thresholds.Store, storage.Storage, error) {
	db, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	store := thresholds.NewStore(db, cfg.Settings.Key, logger)
	store.Load(ctx)
	return store, db, nil
}

// initSource creates the inventory source. A non-empty file overrides the HTTP service.
func initSource(cfg *config.Config, file string, logger *slog.Logger) (inventory.Source, error) {
	if file != "" {
		return inventory.NewFileSource(file, logger), nil
	}

	timeout, err := config.Duration(cfg.Inventory.Timeout, inventory.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("inventory.timeout: %w", err)
	}
	if cfg.Inventory.BaseURL == "" {
		return nil, fmt.Errorf("inventory.base_url is required")
	}

	return inventory.NewHTTPSource(inventory.HTTPOptions{
		BaseURL:       cfg.Inventory.BaseURL,
		ProductsPath:  cfg.Inventory.ProductsPath,
		PageSizeParam: cfg.Inventory.PageSizeParam,
		PageSize:      cfg.Inventory.PageSize,
		Token:         cfg.Inventory.Token,
		Timeout:       timeout,
	}, logger), nil
}

// initEngine wires the lifecycle manager and scheduler around a source.
func initEngine(cfg *config.Config, source inventory.Source, store *thresholds.Store, surfaces []notify.Surface, logger *slog.Logger) (*scheduler.Scheduler, *notify.Manager, error) {
	fade, err := config.Duration(cfg.Notifications.FadeWindow, notify.DefaultFadeWindow)
	if err != nil {
		return nil, nil, fmt.Errorf("notifications.fade_window: %w", err)
	}
	stagger, err := config.Duration(cfg.Notifications.ClearStagger, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("notifications.clear_stagger: %w", err)
	}
	retry, err := config.Duration(cfg.Scheduler.RetryDelay, scheduler.DefaultRetryDelay)
	if err != nil {
		return nil, nil, fmt.Errorf("scheduler.retry_delay: %w", err)
	}

	manager := notify.NewManager(surfaces, notify.Options{FadeWindow: fade, ClearStagger: stagger}, logger)
	sched := scheduler.New(source, store, manager, scheduler.Options{RetryDelay: retry}, logger)
	store.OnChange(func(_ model.ThresholdSettings) {
		sched.Trigger(scheduler.TriggerSettings)
	})

	return sched, manager, nil
}
