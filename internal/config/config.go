package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all stockwatch configuration.
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage"`
	Settings      SettingsConfig      `mapstructure:"settings"`
	Inventory     InventoryConfig     `mapstructure:"inventory"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// StorageConfig selects the settings key-value backend.
type StorageConfig struct {
	Driver string      `mapstructure:"driver"` // sqlite or redis
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines the optional Redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// SettingsConfig names the persisted threshold document.
type SettingsConfig struct {
	Key string `mapstructure:"key"`
}

// InventoryConfig defines how the product snapshot is fetched.
type InventoryConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ProductsPath  string `mapstructure:"products_path"`
	PageSize      int    `mapstructure:"page_size"`
	PageSizeParam string `mapstructure:"page_size_param"`
	Token         string `mapstructure:"token"`
	Timeout       string `mapstructure:"timeout"`
}

// SchedulerConfig defines poll cycle behavior not covered by threshold settings.
type SchedulerConfig struct {
	RetryDelay string `mapstructure:"retry_delay"`
}

// NotificationsConfig defines lifecycle timing.
type NotificationsConfig struct {
	FadeWindow   string `mapstructure:"fade_window"`
	ClearStagger string `mapstructure:"clear_stagger"`
}

// ServerConfig defines the HTTP API.
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".stockwatch"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", filepath.Join(home, ".stockwatch", "stockwatch.db"))
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "stockwatch:")
	v.SetDefault("settings.key", "stock_alert_settings")
	v.SetDefault("inventory.base_url", "http://localhost:3000")
	v.SetDefault("inventory.products_path", "/products")
	v.SetDefault("inventory.page_size", 100000)
	v.SetDefault("inventory.page_size_param", "limit")
	v.SetDefault("inventory.timeout", "10s")
	v.SetDefault("scheduler.retry_delay", "10s")
	v.SetDefault("notifications.fade_window", "300ms")
	v.SetDefault("notifications.clear_stagger", "50ms")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("STOCKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Duration parses a configured duration string, falling back to def when it is empty.
func Duration(value string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse duration %q: must not be negative", value)
	}
	return d, nil
}
