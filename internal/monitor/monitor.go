// Package monitor implements the deployment monitor: a poll-driven state
// machine that triggers an environment update, watches the environment's
// asynchronous transition through snapshots and events, and decides
// whether the deployment succeeded, failed, or timed out.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/narvanalabs/eb-deploy/internal/models"
	"github.com/narvanalabs/eb-deploy/internal/provider"
)

// Config tunes a monitoring run.
type Config struct {
	ApplicationName string
	EnvironmentName string
	VersionLabel    string

	// PollInterval is the cadence between ticks.
	PollInterval time.Duration
	// Timeout bounds the whole run; see MachineConfig.Timeout.
	Timeout time.Duration
	// StabilityTicks is the confirmation window in consecutive ticks.
	StabilityTicks int
	// FailureGrace is how long Red health is tolerated.
	FailureGrace time.Duration
	// EventLookback widens the first event fetch before monitor start.
	EventLookback time.Duration
	// SeverityFloor drops events below this severity from the stream.
	// ERROR and FATAL events always pass.
	SeverityFloor models.Severity
	// Criterion selects the health confirmation rule.
	Criterion HealthCriterion
	// Retry bounds in-tick retries of throttled/transient fetches.
	Retry provider.RetryPolicy
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithEventSink sets the callback invoked once per newly observed event,
// in chronological order. When unset, events go to the logger.
func WithEventSink(sink func(models.EventRecord)) Option {
	return func(m *Monitor) {
		m.onEvent = sink
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// Monitor drives one deployment to a terminal verdict. A single tick is
// in flight at any moment: fetch snapshot, fetch events, filter, decide.
type Monitor struct {
	cfg     Config
	client  provider.Client
	logger  *slog.Logger
	onEvent func(models.EventRecord)
	now     func() time.Time

	tracker *Tracker
	machine *Machine
}

// New creates a monitor for one environment update.
func New(cfg Config, client provider.Client, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:    cfg,
		client: client,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.SeverityFloor == "" {
		m.cfg.SeverityFloor = models.SeverityInfo
	}
	if m.cfg.PollInterval <= 0 {
		m.cfg.PollInterval = 15 * time.Second
	}
	return m
}

// Run triggers the update and polls until a terminal verdict, a fatal
// adapter error, or context cancellation. The returned verdict is only
// meaningful when err is nil. Cancellation does not cancel the remote
// update; that stays with the provider.
func (m *Monitor) Run(ctx context.Context) (models.Verdict, error) {
	start := m.now()
	m.tracker = NewTracker(start, m.cfg.EventLookback)
	m.machine = NewMachine(MachineConfig{
		TargetVersion:  m.cfg.VersionLabel,
		StabilityTicks: m.cfg.StabilityTicks,
		FailureGrace:   m.cfg.FailureGrace,
		Timeout:        m.cfg.Timeout,
		Criterion:      m.cfg.Criterion,
	}, start)

	m.logger.Info("updating environment",
		"application", m.cfg.ApplicationName,
		"environment", m.cfg.EnvironmentName,
		"version", m.cfg.VersionLabel,
	)

	err := m.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		return m.client.TriggerUpdate(ctx, m.cfg.ApplicationName, m.cfg.EnvironmentName, m.cfg.VersionLabel)
	})
	if err != nil {
		return models.InProgress(), fmt.Errorf("trigger update: %w", err)
	}
	m.logger.Info("update requested, monitoring", "poll_interval", m.cfg.PollInterval, "timeout", m.cfg.Timeout)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		verdict, err := m.tick(ctx)
		if err != nil {
			return models.InProgress(), err
		}
		if verdict.Terminal() {
			return verdict, nil
		}

		select {
		case <-ctx.Done():
			return models.InProgress(), ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick performs one synchronous poll round-trip. Retryable fetch errors
// exhaust the retry policy and then abandon the tick; fatal adapter
// errors abort the run.
func (m *Monitor) tick(ctx context.Context) (models.Verdict, error) {
	// The deadline holds even when every fetch in a tick fails.
	if v := m.machine.CheckTimeout(m.now()); v.Terminal() {
		return v, nil
	}

	var snap models.StatusSnapshot
	err := m.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		snap, err = m.client.FetchSnapshot(ctx, m.cfg.ApplicationName, m.cfg.EnvironmentName)
		return err
	})
	if err != nil {
		return m.abandonTick("fetch snapshot", err)
	}

	var raw []models.EventRecord
	err = m.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = m.client.FetchEvents(ctx, m.cfg.ApplicationName, m.cfg.EnvironmentName, m.tracker.Since())
		return err
	})
	if err != nil {
		return m.abandonTick("fetch events", err)
	}

	fresh := m.tracker.Ingest(raw)
	for _, ev := range fresh {
		m.surface(ev)
	}

	verdict := m.machine.Tick(m.now(), snap, fresh)
	m.logger.Debug("tick evaluated",
		"status", snap.Status,
		"health", snap.Health,
		"version", snap.VersionLabel,
		"phase", m.machine.Phase(),
		"verdict", verdict.Kind,
	)
	return verdict, nil
}

// abandonTick converts a failed fetch into either a fatal abort or a
// skipped tick, keeping the timeout ticking either way.
func (m *Monitor) abandonTick(op string, err error) (models.Verdict, error) {
	if provider.Fatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.InProgress(), fmt.Errorf("%s: %w", op, err)
	}
	m.logger.Warn("abandoning poll tick", "op", op, "error", err)
	return m.machine.CheckTimeout(m.now()), nil
}

// surface delivers one fresh event to the sink, honoring the severity
// floor except for ERROR and FATAL, which always pass.
func (m *Monitor) surface(ev models.EventRecord) {
	if !ev.Severity.AtLeast(m.cfg.SeverityFloor) && !ev.Severity.AtLeast(models.SeverityError) {
		return
	}
	if m.onEvent != nil {
		m.onEvent(ev)
		return
	}
	m.logger.Info(ev.Format())
}
