package monitor

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/narvanalabs/eb-deploy/internal/models"
)

var machineEpoch = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

const machineInterval = 15 * time.Second

func genHealth() gopter.Gen {
	return gen.OneConstOf(models.HealthGreen, models.HealthYellow, models.HealthRed, models.HealthGrey)
}

func genEnvironmentStatus() gopter.Gen {
	return gen.OneConstOf(
		models.EnvironmentStatusLaunching,
		models.EnvironmentStatusUpdating,
		models.EnvironmentStatusReady,
	)
}

// genSnapshot generates non-terminating snapshots: a mix of the target
// and a stale version, any non-terminal lifecycle status, any health.
func genSnapshot() gopter.Gen {
	return gopter.CombineGens(
		genEnvironmentStatus(),
		genHealth(),
		gen.Bool(),
	).Map(func(vals []interface{}) models.StatusSnapshot {
		version := target
		if vals[2].(bool) {
			version = "stale-version"
		}
		return models.StatusSnapshot{
			VersionLabel: version,
			Status:       vals[0].(models.EnvironmentStatus),
			Health:       vals[1].(models.Health),
		}
	})
}

// A Green streak on the target version of at least the stability window,
// appended to any prefix that did not already terminate the machine,
// yields Succeeded.
func TestMachineGreenStreakEventuallySucceeds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("green streak of window length succeeds", prop.ForAll(
		func(prefix []models.StatusSnapshot, window int) bool {
			m := NewMachine(MachineConfig{
				TargetVersion:  target,
				StabilityTicks: window,
				FailureGrace:   time.Hour,
				Timeout:        24 * time.Hour,
			}, machineEpoch)

			tick := 0
			for _, snap := range prefix {
				tick++
				if m.Tick(machineEpoch.Add(time.Duration(tick)*machineInterval), snap, nil).Terminal() {
					// Prefix already decided the run; the property is
					// about undecided machines.
					return true
				}
			}

			green := models.StatusSnapshot{
				VersionLabel: target,
				Status:       models.EnvironmentStatusReady,
				Health:       models.HealthGreen,
			}
			var verdict models.Verdict
			for i := 0; i < window; i++ {
				tick++
				verdict = m.Tick(machineEpoch.Add(time.Duration(tick)*machineInterval), green, nil)
			}
			return verdict.Kind == models.VerdictSucceeded
		},
		gen.SliceOf(genSnapshot()),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

// Success requires the full window: fewer consecutive satisfying ticks
// than the window never yields Succeeded.
func TestMachineNeverSucceedsEarly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no success before the window elapses", prop.ForAll(
		func(window int) bool {
			m := NewMachine(MachineConfig{
				TargetVersion:  target,
				StabilityTicks: window,
				FailureGrace:   time.Hour,
				Timeout:        24 * time.Hour,
			}, machineEpoch)

			green := models.StatusSnapshot{
				VersionLabel: target,
				Status:       models.EnvironmentStatusReady,
				Health:       models.HealthGreen,
			}
			ticks := window - 1
			verdict := models.InProgress()
			for i := 0; i < ticks; i++ {
				verdict = m.Tick(machineEpoch.Add(time.Duration(i+1)*machineInterval), green, nil)
			}
			return verdict.Kind != models.VerdictSucceeded
		},
		gen.IntRange(2, 8),
	))

	properties.TestingRun(t)
}

// Once the budget is spent, the verdict is exactly TimedOut for any
// snapshot sequence that had not already terminated the machine.
func TestMachineTimeoutVerdictIsExactlyTimedOut(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("expired budget yields TimedOut, never Failed or Succeeded", prop.ForAll(
		func(snaps []models.StatusSnapshot, final models.StatusSnapshot) bool {
			timeout := time.Duration(len(snaps)+1) * machineInterval
			m := NewMachine(MachineConfig{
				TargetVersion:  target,
				StabilityTicks: 3,
				FailureGrace:   time.Hour,
				Timeout:        timeout,
			}, machineEpoch)

			for i, snap := range snaps {
				if m.Tick(machineEpoch.Add(time.Duration(i+1)*machineInterval), snap, nil).Terminal() {
					return true
				}
			}

			verdict := m.Tick(machineEpoch.Add(timeout+machineInterval), final, nil)
			return verdict.Kind == models.VerdictTimedOut
		},
		gen.SliceOf(genSnapshot()),
		genSnapshot(),
	))

	properties.TestingRun(t)
}

// Terminal verdicts are immutable: further ticks return the same value.
func TestMachineTerminalVerdictImmutable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ticks after a terminal verdict change nothing", prop.ForAll(
		func(snaps []models.StatusSnapshot, after []models.StatusSnapshot) bool {
			m := NewMachine(MachineConfig{
				TargetVersion:  target,
				StabilityTicks: 2,
				FailureGrace:   30 * time.Second,
				Timeout:        5 * time.Minute,
			}, machineEpoch)

			tick := 0
			var terminal models.Verdict
			for _, snap := range snaps {
				tick++
				v := m.Tick(machineEpoch.Add(time.Duration(tick)*machineInterval), snap, nil)
				if v.Terminal() {
					terminal = v
					break
				}
			}
			if !terminal.Terminal() {
				return true
			}

			for _, snap := range after {
				tick++
				if m.Tick(machineEpoch.Add(time.Duration(tick)*machineInterval), snap, nil) != terminal {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genSnapshot()),
		gen.SliceOf(genSnapshot()),
	))

	properties.TestingRun(t)
}
