package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/stockwatch/pkg/alerts"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

const (
	// DefaultFadeWindow is the time a record spends dismissing before removal.
	DefaultFadeWindow = 300 * time.Millisecond

	maxNamesInMessage = 3
)

// ErrNotFound is returned when dismissing a record that is not visible.
var ErrNotFound = errors.New("notification not found")

// Options tunes lifecycle timing.
type Options struct {
	// FadeWindow is the dismissing → removed delay. Zero selects DefaultFadeWindow.
	FadeWindow time.Duration
	// ClearStagger spaces out the removal of stale records before a new batch.
	ClearStagger time.Duration
}

type entry struct {
	rec   model.NotificationRecord
	timer *time.Timer
}

// Manager turns alert diffs into notification records and owns their lifecycle.
type Manager struct {
	surfaces []Surface
	opts     Options
	logger   *slog.Logger

	mu       sync.Mutex
	records  map[string]*entry
	critical map[model.ProductID]model.Alert
	closed   bool
}

// NewManager creates a lifecycle manager driving the given surfaces.
func NewManager(surfaces []Surface, opts Options, logger *slog.Logger) *Manager {
	if opts.FadeWindow <= 0 {
		opts.FadeWindow = DefaultFadeWindow
	}
	return &Manager{
		surfaces: surfaces,
		opts:     opts,
		logger:   logger,
		records:  make(map[string]*entry),
		critical: make(map[model.ProductID]model.Alert),
	}
}

// Process surfaces one diff batch. Visible records are cleared first, then
// at most one critical, one warning and one resolved summary are created.
// Non-critical records stay visible for visibleFor.
func (m *Manager) Process(ctx context.Context, d alerts.Diff, visibleFor time.Duration) {
	if d.Empty() {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	for _, a := range d.Resolved {
		delete(m.critical, a.Product.ID)
	}

	var warnings []model.Alert
	for _, list := range [][]model.Alert{d.New, d.Modified} {
		for _, a := range list {
			switch a.Type {
			case model.AlertCritical:
				m.critical[a.Product.ID] = a
			case model.AlertWarning:
				delete(m.critical, a.Product.ID)
				warnings = append(warnings, a)
			}
		}
	}

	stale := m.visibleLocked()
	m.mu.Unlock()

	m.clear(ctx, stale)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	if len(m.critical) > 0 {
		tracked := make([]model.Alert, 0, len(m.critical))
		for _, a := range m.critical {
			tracked = append(tracked, a)
		}
		slices.SortFunc(tracked, func(a, b model.Alert) int { return strings.Compare(string(a.Product.ID), string(b.Product.ID)) })
		m.showLocked(model.SeverityCritical, "Critical stock", summarize(tracked, "at critical stock"), tracked, 0)
	}
	if len(warnings) > 0 {
		m.showLocked(model.SeverityWarning, "Low stock", summarize(warnings, "at low stock"), warnings, visibleFor)
	}
	if len(d.Resolved) > 0 {
		m.showLocked(model.SeverityInfo, "Stock recovered", summarize(d.Resolved, "back in stock"), d.Resolved, visibleFor)
	}

	m.logger.Info("notifications updated",
		"new", len(d.New),
		"modified", len(d.Modified),
		"resolved", len(d.Resolved),
		"critical_tracked", len(m.critical),
		"cleared", len(stale),
	)
}

// clear removes the given records, pausing ClearStagger between removals.
func (m *Manager) clear(ctx context.Context, ids []string) {
	for i, id := range ids {
		if i > 0 && m.opts.ClearStagger > 0 && ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-time.After(m.opts.ClearStagger):
			}
		}
		m.mu.Lock()
		m.removeLocked(id)
		m.mu.Unlock()
	}
}

// Dismiss removes a record immediately, whatever its severity. Dismissing the
// critical record stops tracking its products until their alerts change.
func (m *Manager) Dismiss(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[id]
	if !ok {
		return fmt.Errorf("dismiss %s: %w", id, ErrNotFound)
	}
	if e.rec.Severity == model.SeverityCritical {
		for _, pid := range e.rec.SourceAlertIDs {
			delete(m.critical, pid)
		}
	}
	m.removeLocked(id)

	m.logger.Info("notification dismissed", "id", id, "severity", e.rec.Severity)
	return nil
}

// Active returns the displayed and dismissing records, oldest first.
func (m *Manager) Active() []model.NotificationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]model.NotificationRecord, 0, len(m.records))
	for _, e := range m.records {
		list = append(list, e.rec)
	}
	sortRecords(list)
	return list
}

// TrackedCritical returns the products covered by critical notifications.
func (m *Manager) TrackedCritical() []model.ProductID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]model.ProductID, 0, len(m.critical))
	for id := range m.critical {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close stops every pending timer. Records stay where they are.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for _, e := range m.records {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (m *Manager) visibleLocked() []string {
	list := make([]model.NotificationRecord, 0, len(m.records))
	for _, e := range m.records {
		list = append(list, e.rec)
	}
	sortRecords(list)

	ids := make([]string, 0, len(list))
	for _, rec := range list {
		ids = append(ids, rec.ID)
	}
	return ids
}

func (m *Manager) showLocked(sev model.Severity, title, message string, source []model.Alert, visibleFor time.Duration) {
	ids := make([]model.ProductID, 0, len(source))
	for _, a := range source {
		ids = append(ids, a.Product.ID)
	}

	rec := model.NotificationRecord{
		ID:             uuid.New().String(),
		Severity:       sev,
		SourceAlertIDs: ids,
		State:          model.StateDisplayed,
		Title:          title,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	}
	e := &entry{rec: rec}
	m.records[rec.ID] = e

	for _, s := range m.surfaces {
		s.Show(rec)
	}

	// Critical records only leave through dismissal or a later batch.
	if sev != model.SeverityCritical {
		e.timer = time.AfterFunc(visibleFor, func() { m.beginDismiss(rec.ID) })
	}
}

func (m *Manager) beginDismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[id]
	if !ok || m.closed || e.rec.State != model.StateDisplayed {
		return
	}
	e.rec.State = model.StateDismissing
	for _, s := range m.surfaces {
		s.UpdateState(id, model.StateDismissing)
	}
	e.timer = time.AfterFunc(m.opts.FadeWindow, func() { m.expire(id) })
}

func (m *Manager) expire(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.records[id]
	if !ok || m.closed || e.rec.State != model.StateDismissing {
		return
	}
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id string) {
	e, ok := m.records[id]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(m.records, id)

	for _, s := range m.surfaces {
		s.UpdateState(id, model.StateRemoved)
	}
}

// summarize renders "N product(s) <suffix>: A, B, C and 2 more".
func summarize(list []model.Alert, suffix string) string {
	msg := fmt.Sprintf("%d product(s) %s", len(list), suffix)

	names := make([]string, 0, maxNamesInMessage)
	for _, a := range list {
		if len(names) == maxNamesInMessage {
			break
		}
		name := a.Product.Name
		if name == "" {
			name = string(a.Product.ID)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return msg
	}

	msg += ": " + strings.Join(names, ", ")
	if extra := len(list) - len(names); extra > 0 {
		msg += fmt.Sprintf(" and %d more", extra)
	}
	return msg
}
