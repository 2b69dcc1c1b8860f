package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/narvanalabs/eb-deploy/internal/models"
)

// HealthCriterion selects how the machine decides health is acceptable
// while confirming a deployment.
type HealthCriterion string

const (
	// CriterionMustGreen requires an explicit Green sample every tick.
	CriterionMustGreen HealthCriterion = "must-green"
	// CriterionNoRed accepts any tick without a Red or Yellow sample.
	// Single-instance environments updating in place cannot report Green
	// mid-update, so this lets them confirm on the absence of degradation.
	CriterionNoRed HealthCriterion = "no-red"
)

// IsValid returns true if the criterion is a known one.
func (c HealthCriterion) IsValid() bool {
	return c == CriterionMustGreen || c == CriterionNoRed
}

// Event messages that mean the provider gave up on the environment.
// Matched case-insensitively against FATAL events only.
var abortPatterns = []string{
	"terminat",
	"abort",
	"failed to launch",
}

// Phase is the machine's non-terminal progress through a deployment.
type Phase string

const (
	// PhasePending means no snapshot has been consumed yet.
	PhasePending Phase = "pending"
	// PhaseObserving means snapshots are flowing but the success
	// condition has not been met on the latest tick.
	PhaseObserving Phase = "observing"
	// PhaseConfirming means the success condition held on the latest
	// tick and the stability window is counting down.
	PhaseConfirming Phase = "confirming"
)

// MachineConfig tunes the deployment state machine.
type MachineConfig struct {
	// TargetVersion is the version label the environment must end up on.
	TargetVersion string
	// StabilityTicks is how many consecutive satisfying ticks are
	// required before declaring success.
	StabilityTicks int
	// FailureGrace is how long Red health is tolerated before failing,
	// absorbing transient blips during a rolling update.
	FailureGrace time.Duration
	// Timeout bounds the whole monitoring run in wall-clock time.
	Timeout time.Duration
	// Criterion selects the health confirmation rule.
	Criterion HealthCriterion
}

// Machine decides, tick by tick, whether a deployment is still in
// progress, succeeded, or failed. It is pure with respect to I/O: callers
// feed it snapshots and events on a cadence and read the verdict.
type Machine struct {
	cfg     MachineConfig
	start   time.Time
	phase   Phase
	verdict models.Verdict

	stableTicks int
	redSince    time.Time
}

// NewMachine creates a machine anchored at start, which is also the
// instant the overall timeout is measured from.
func NewMachine(cfg MachineConfig, start time.Time) *Machine {
	if cfg.StabilityTicks < 1 {
		cfg.StabilityTicks = 1
	}
	if !cfg.Criterion.IsValid() {
		cfg.Criterion = CriterionMustGreen
	}
	return &Machine{
		cfg:     cfg,
		start:   start,
		phase:   PhasePending,
		verdict: models.InProgress(),
	}
}

// Phase returns the machine's current non-terminal phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Verdict returns the machine's current verdict without advancing it.
func (m *Machine) Verdict() models.Verdict {
	return m.verdict
}

// CheckTimeout transitions to TimedOut when the overall budget has
// elapsed and no terminal verdict was reached. It lets the monitor loop
// enforce the deadline even on ticks whose fetches were abandoned.
func (m *Machine) CheckTimeout(now time.Time) models.Verdict {
	if m.verdict.Terminal() {
		return m.verdict
	}
	if m.cfg.Timeout > 0 && now.Sub(m.start) > m.cfg.Timeout {
		m.verdict = models.TimedOut()
	}
	return m.verdict
}

// Tick consumes one snapshot and the events surfaced since the previous
// tick, and returns the verdict. The snapshot is evaluated before the
// events so transitions stay deterministic. Terminal verdicts are sticky.
func (m *Machine) Tick(now time.Time, snap models.StatusSnapshot, events []models.EventRecord) models.Verdict {
	if m.verdict.Terminal() {
		return m.verdict
	}

	// Nothing upgrades or downgrades an elapsed timeout.
	if v := m.CheckTimeout(now); v.Terminal() {
		return v
	}

	if m.phase == PhasePending {
		m.phase = PhaseObserving
	}

	// Provider-side abort ends the deployment regardless of health.
	if snap.Status.Terminated() {
		m.verdict = models.Failed(models.FailureProviderAbort,
			fmt.Sprintf("environment status is %s", snap.Status))
		return m.verdict
	}

	// A version flip while confirming means someone else deployed, or
	// the provider rolled the update back.
	if m.phase == PhaseConfirming && snap.VersionLabel != m.cfg.TargetVersion {
		m.verdict = models.Failed(models.FailureVersionMismatch,
			fmt.Sprintf("environment is running %q, expected %q", snap.VersionLabel, m.cfg.TargetVersion))
		return m.verdict
	}

	if v := m.trackRedHealth(now, snap); v.Terminal() {
		return v
	}

	if m.satisfied(snap) {
		m.phase = PhaseConfirming
		m.stableTicks++
		if m.stableTicks >= m.cfg.StabilityTicks {
			m.verdict = models.Succeeded()
			return m.verdict
		}
	} else {
		// Any degradation while confirming restarts the window.
		m.phase = PhaseObserving
		m.stableTicks = 0
	}

	if v := m.scanEvents(events); v.Terminal() {
		return v
	}

	return m.verdict
}

// trackRedHealth fails the deployment once Red health has been sustained
// beyond the grace period.
func (m *Machine) trackRedHealth(now time.Time, snap models.StatusSnapshot) models.Verdict {
	if snap.Health != models.HealthRed {
		m.redSince = time.Time{}
		return m.verdict
	}
	if m.redSince.IsZero() {
		m.redSince = now
	}
	if now.Sub(m.redSince) > m.cfg.FailureGrace {
		detail := snap.HealthDetail
		if detail == "" {
			detail = fmt.Sprintf("health stayed Red for more than %s", m.cfg.FailureGrace)
		}
		m.verdict = models.Failed(models.FailureHealthDegraded, detail)
	}
	return m.verdict
}

// satisfied reports whether the snapshot meets the success condition:
// update finished, target version running, health acceptable.
func (m *Machine) satisfied(snap models.StatusSnapshot) bool {
	if snap.Status != models.EnvironmentStatusReady {
		return false
	}
	if snap.VersionLabel != m.cfg.TargetVersion {
		return false
	}
	switch m.cfg.Criterion {
	case CriterionNoRed:
		return snap.Health != models.HealthRed && snap.Health != models.HealthYellow
	default:
		return snap.Health == models.HealthGreen
	}
}

// scanEvents fails the deployment on a FATAL event matching a known
// abort pattern. Other ERROR/FATAL events are diagnostic only; the
// monitor surfaces them but the health and lifecycle signals decide.
func (m *Machine) scanEvents(events []models.EventRecord) models.Verdict {
	for _, ev := range events {
		if ev.Severity != models.SeverityFatal {
			continue
		}
		msg := strings.ToLower(ev.Message)
		for _, pattern := range abortPatterns {
			if strings.Contains(msg, pattern) {
				m.verdict = models.Failed(models.FailureProviderAbort, ev.Message)
				return m.verdict
			}
		}
	}
	return m.verdict
}
