package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/ogulcanaydogan/stockwatch/pkg/alerts"
	"github.com/ogulcanaydogan/stockwatch/pkg/inventory"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

// DefaultRetryDelay is the one-shot delay before retrying a failed cycle.
const DefaultRetryDelay = 10 * time.Second

// Cycle triggers, used in logs.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerRetry    = "retry"
	TriggerSettings = "settings"
	TriggerManual   = "manual"
)

// ErrBusy is returned by RunCycle when a cycle is already in flight.
var ErrBusy = errors.New("poll cycle already in flight")

// Processor consumes the diff produced by each successful cycle.
type Processor interface {
	Process(ctx context.Context, d alerts.Diff, visibleFor time.Duration)
}

// SettingsProvider supplies the settings read at the start of every cycle.
type SettingsProvider interface {
	Current() model.ThresholdSettings
}

// State is the scheduler activity.
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
)

// Status describes the outcome of recent cycles. Healthy is false while
// fetches fail, which tells "no alerts" apart from "no data".
type Status struct {
	State               State      `json:"state"`
	Healthy             bool       `json:"healthy"`
	Retrying            bool       `json:"retrying"`
	LastAttempt         *time.Time `json:"last_attempt,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	AlertCount          int        `json:"alert_count"`
	Cycles              int64      `json:"cycles"`
}

// Options tunes the scheduler.
type Options struct {
	// RetryDelay replaces the poll interval after a failed cycle. Zero selects DefaultRetryDelay.
	RetryDelay time.Duration
}

// Scheduler runs fetch → classify → diff → notify cycles on a timer.
// At most one cycle is in flight at any time.
type Scheduler struct {
	source    inventory.Source
	settings  SettingsProvider
	processor Processor
	opts      Options
	logger    *slog.Logger

	busy atomic.Bool
	wg   sync.WaitGroup
	done chan struct{}

	mu       sync.Mutex
	ctx      context.Context
	started  bool
	stopped  bool
	timer    *time.Timer
	retrying bool
	pending  bool
	previous []model.Alert
	status   Status
}

// New creates a scheduler. It does nothing until Start or RunCycle.
func New(source inventory.Source, settings SettingsProvider, processor Processor, opts Options, logger *slog.Logger) *Scheduler {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Scheduler{
		source:    source,
		settings:  settings,
		processor: processor,
		opts:      opts,
		logger:    logger,
		done:      make(chan struct{}),
		status:    Status{State: StateIdle},
	}
}

// Start runs one cycle immediately and then one per poll interval until
// Stop is called or ctx is cancelled. Cancelling ctx does not abort a cycle
// that is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	if s.stopped {
		s.mu.Unlock()
		return errors.New("scheduler stopped")
	}
	s.started = true
	s.ctx = context.WithoutCancel(ctx)
	interval := s.settings.Current().PollInterval()
	s.scheduleLocked(interval, s.tick)
	s.mu.Unlock()

	s.logger.Info("scheduler started", "interval", interval.String(), "retry_delay", s.opts.RetryDelay.String())
	s.fire(TriggerStartup, false)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()
	return nil
}

// Stop cancels the pending timer and waits for an in-flight cycle to finish.
// No cycle starts afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.timer != nil {
			s.timer.Stop()
		}
		close(s.done)
		s.logger.Info("scheduler stopping")
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Trigger runs an out-of-band cycle and restarts the normal interval from
// now, picking up a changed poll interval. If a cycle is in flight, one
// rerun starts when it completes.
func (s *Scheduler) Trigger(reason string) {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	if !s.retrying {
		s.scheduleLocked(s.settings.Current().PollInterval(), s.tick)
	}
	s.mu.Unlock()

	s.fire(reason, true)
}

// RunCycle runs a single cycle synchronously. It returns ErrBusy when a cycle
// is already in flight.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)
	return s.cycle(ctx, TriggerManual)
}

// Alerts returns a copy of the alert set retained from the last successful cycle.
func (s *Scheduler) Alerts() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Alert{}, s.previous...)
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status
	st.Retrying = s.retrying
	if st.LastAttempt != nil {
		t := *st.LastAttempt
		st.LastAttempt = &t
	}
	if st.LastSuccess != nil {
		t := *st.LastSuccess
		st.LastSuccess = &t
	}
	return st
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.scheduleLocked(s.settings.Current().PollInterval(), s.tick)
	s.mu.Unlock()

	s.fire(TriggerInterval, false)
}

func (s *Scheduler) retryTick() {
	s.fire(TriggerRetry, false)
}

func (s *Scheduler) scheduleLocked(d time.Duration, fn func()) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, fn)
}

// fire starts a cycle in the background unless one is in flight. Skipped
// firings are dropped; rerun marks one follow-up cycle instead.
func (s *Scheduler) fire(trigger string, rerun bool) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		if rerun {
			s.pending = true
		}
		s.mu.Unlock()
		s.logger.Warn("poll cycle skipped, previous cycle still running", "trigger", trigger, "rerun", rerun)
		return
	}
	s.wg.Add(1)
	ctx := s.ctx
	s.mu.Unlock()

	go s.run(ctx, trigger)
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	defer s.wg.Done()

	err := s.cycle(ctx, trigger)
	s.busy.Store(false)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		s.retrying = true
		s.scheduleLocked(s.opts.RetryDelay, s.retryTick)
	case s.retrying:
		s.retrying = false
		s.scheduleLocked(s.settings.Current().PollInterval(), s.tick)
		s.logger.Info("inventory reachable again, resuming normal interval")
	}
	rerun := s.pending
	s.pending = false
	s.mu.Unlock()

	if rerun {
		s.fire(TriggerSettings, false)
	}
}

func (s *Scheduler) cycle(ctx context.Context, trigger string) error {
	settings := s.settings.Current()
	started := time.Now().UTC()

	s.mu.Lock()
	s.status.State = StatePolling
	s.status.LastAttempt = &started
	s.mu.Unlock()

	snapshot, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		s.mu.Lock()
		s.status.State = StateIdle
		s.status.Healthy = false
		s.status.LastError = err.Error()
		s.status.ConsecutiveFailures++
		failures := s.status.ConsecutiveFailures
		s.mu.Unlock()

		kind := "unknown"
		var fetchErr *inventory.FetchError
		if errors.As(err, &fetchErr) {
			kind = string(fetchErr.Kind)
		}
		s.logger.Warn("poll cycle failed",
			"trigger", trigger,
			"kind", kind,
			"consecutive_failures", failures,
			"error", err,
		)
		return fmt.Errorf("poll cycle: %w", err)
	}

	current := alerts.Classify(snapshot, settings)

	s.mu.Lock()
	previous := s.previous
	s.mu.Unlock()

	d := alerts.Compare(previous, current)
	s.processor.Process(ctx, d, settings.NotificationDuration())

	finished := time.Now().UTC()
	s.mu.Lock()
	s.previous = current
	s.status.State = StateIdle
	s.status.Healthy = true
	s.status.LastSuccess = &finished
	s.status.LastError = ""
	s.status.ConsecutiveFailures = 0
	s.status.AlertCount = len(current)
	s.status.Cycles++
	s.mu.Unlock()

	s.logger.Debug("poll cycle complete",
		"trigger", trigger,
		"products", len(snapshot),
		"alerts", len(current),
		"new", len(d.New),
		"modified", len(d.Modified),
		"resolved", len(d.Resolved),
		"duration", finished.Sub(started).String(),
	)
	return nil
}
