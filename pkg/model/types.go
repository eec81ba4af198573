package model

import (
	"fmt"
	"time"
)

// Default threshold settings used when nothing valid has been persisted.
const (
	DefaultWarningThreshold       = 10
	DefaultCriticalThreshold      = 5
	DefaultNotificationDurationMs = 8000
	DefaultPollIntervalMs         = 30000
)

// ThresholdSettings configures stock classification and engine timing.
type ThresholdSettings struct {
	WarningThreshold       int   `json:"warningThreshold"`
	CriticalThreshold      int   `json:"criticalThreshold"`
	NotificationDurationMs int64 `json:"notificationDurationMs"`
	PollIntervalMs         int64 `json:"pollIntervalMs"`
}

// DefaultSettings returns the built-in threshold settings.
func DefaultSettings() ThresholdSettings {
	return ThresholdSettings{
		WarningThreshold:       DefaultWarningThreshold,
		CriticalThreshold:      DefaultCriticalThreshold,
		NotificationDurationMs: DefaultNotificationDurationMs,
		PollIntervalMs:         DefaultPollIntervalMs,
	}
}

// Validate checks the settings invariants.
func (s ThresholdSettings) Validate() error {
	switch {
	case s.WarningThreshold < 0:
		return &ValidationError{Field: "warningThreshold", Reason: "must be zero or greater"}
	case s.CriticalThreshold < 0:
		return &ValidationError{Field: "criticalThreshold", Reason: "must be zero or greater"}
	case s.CriticalThreshold >= s.WarningThreshold:
		return &ValidationError{
			Field:  "criticalThreshold",
			Reason: fmt.Sprintf("must be lower than the warning threshold (%d)", s.WarningThreshold),
		}
	case s.NotificationDurationMs <= 0:
		return &ValidationError{Field: "notificationDurationMs", Reason: "must be greater than zero"}
	case s.PollIntervalMs <= 0:
		return &ValidationError{Field: "pollIntervalMs", Reason: "must be greater than zero"}
	}
	return nil
}

// NotificationDuration is how long a non-critical notification stays visible.
func (s ThresholdSettings) NotificationDuration() time.Duration {
	return time.Duration(s.NotificationDurationMs) * time.Millisecond
}

// PollInterval is the delay between scheduled poll cycles.
func (s ThresholdSettings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

// Apply returns a copy of s with every non-nil patch field overriding it.
func (s ThresholdSettings) Apply(p SettingsPatch) ThresholdSettings {
	if p.WarningThreshold != nil {
		s.WarningThreshold = *p.WarningThreshold
	}
	if p.CriticalThreshold != nil {
		s.CriticalThreshold = *p.CriticalThreshold
	}
	if p.NotificationDurationMs != nil {
		s.NotificationDurationMs = *p.NotificationDurationMs
	}
	if p.PollIntervalMs != nil {
		s.PollIntervalMs = *p.PollIntervalMs
	}
	return s
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	WarningThreshold       *int   `json:"warningThreshold,omitempty"`
	CriticalThreshold      *int   `json:"criticalThreshold,omitempty"`
	NotificationDurationMs *int64 `json:"notificationDurationMs,omitempty"`
	PollIntervalMs         *int64 `json:"pollIntervalMs,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.WarningThreshold == nil && p.CriticalThreshold == nil &&
		p.NotificationDurationMs == nil && p.PollIntervalMs == nil
}

// ValidationError reports a settings value that violates an invariant.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProductID is the canonical string form of an inventory identifier.
type ProductID string

// ProductStockRecord is one normalized inventory entry.
type ProductStockRecord struct {
	ID    ProductID `json:"id"`
	Name  string    `json:"name"`
	SKU   string    `json:"sku,omitempty"`
	Stock int       `json:"stock"`
}

// AlertType is the severity of a stock alert.
type AlertType string

const (
	AlertWarning  AlertType = "warning"  // At or below the warning threshold
	AlertCritical AlertType = "critical" // At or below the critical threshold
)

// Alert flags one product whose stock crossed a threshold.
type Alert struct {
	Type    AlertType          `json:"type"`
	Product ProductStockRecord `json:"product"`
	Limit   int                `json:"limit"`
}

// Severity is the display level of a notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// NotificationState is the lifecycle position of a notification.
type NotificationState string

const (
	StateDisplayed  NotificationState = "displayed"
	StateDismissing NotificationState = "dismissing"
	StateRemoved    NotificationState = "removed"
)

// NotificationRecord is a UI-facing summary of one diff batch.
type NotificationRecord struct {
	ID             string            `json:"id"`
	Severity       Severity          `json:"severity"`
	SourceAlertIDs []ProductID       `json:"source_alert_ids"`
	State          NotificationState `json:"state"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	CreatedAt      time.Time         `json:"created_at"`
}
