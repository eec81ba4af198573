package thresholds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ogulcanaydogan/stockwatch/pkg/model"
	"github.com/ogulcanaydogan/stockwatch/pkg/storage"
)

// DefaultKey is the storage key holding the JSON settings document.
const DefaultKey = "stock_alert_settings"

// ChangeFunc is invoked after settings were successfully updated.
type ChangeFunc func(model.ThresholdSettings)

// Store owns the current threshold settings and persists them.
type Store struct {
	storage storage.Storage
	key     string
	logger  *slog.Logger

	mu       sync.RWMutex
	current  model.ThresholdSettings
	onChange []ChangeFunc
}

// NewStore creates a threshold store holding the defaults until Load is called.
// An empty key selects DefaultKey.
func NewStore(store storage.Storage, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		storage: store,
		key:     key,
		logger:  logger,
		current: model.DefaultSettings(),
	}
}

// OnChange registers a hook run after every successful Update.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Current returns the settings in effect.
func (s *Store) Current() model.ThresholdSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads persisted settings, falling back to the defaults when they are
// missing, unreadable or invalid. It never fails.
func (s *Store) Load(ctx context.Context) model.ThresholdSettings {
	settings := s.read(ctx)

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	return settings
}

func (s *Store) read(ctx context.Context) model.ThresholdSettings {
	defaults := model.DefaultSettings()

	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("settings unreadable, using defaults", "key", s.key, "error", err)
		return defaults
	}
	if !ok {
		s.logger.Info("no stored settings, using defaults", "key", s.key)
		return defaults
	}

	// Decode over the defaults so documents missing newer fields still load.
	settings := defaults
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.logger.Warn("stored settings corrupt, using defaults", "key", s.key, "error", err)
		return defaults
	}
	if err := settings.Validate(); err != nil {
		s.logger.Warn("stored settings invalid, using defaults", "key", s.key, "error", err)
		return defaults
	}

	return settings
}

// Save validates and persists settings without notifying change hooks.
func (s *Store) Save(ctx context.Context, settings model.ThresholdSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.persist(ctx, settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

// Update merges patch over the current settings. It returns a
// *model.ValidationError when the result is invalid, in which case the
// previous settings stay in effect. On success the new settings are
// persisted, swapped in, and every change hook is called.
func (s *Store) Update(ctx context.Context, patch model.SettingsPatch) (model.ThresholdSettings, error) {
	s.mu.Lock()
	previous := s.current
	next := previous.Apply(patch)

	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return previous, err
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return previous, err
	}

	s.current = next
	hooks := append([]ChangeFunc(nil), s.onChange...)
	s.mu.Unlock()

	s.logger.Info("settings updated",
		"warning", next.WarningThreshold,
		"critical", next.CriticalThreshold,
		"duration_ms", next.NotificationDurationMs,
		"interval_ms", next.PollIntervalMs,
	)

	for _, fn := range hooks {
		fn(next)
	}

	return next, nil
}

func (s *Store) persist(ctx context.Context, settings model.ThresholdSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}
