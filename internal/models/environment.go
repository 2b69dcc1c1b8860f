// Package models provides data models for the eb-deploy tool.
package models

// EnvironmentStatus represents the lifecycle status of an environment.
type EnvironmentStatus string

const (
	// EnvironmentStatusLaunching indicates the environment is being created.
	EnvironmentStatusLaunching EnvironmentStatus = "Launching"
	// EnvironmentStatusUpdating indicates an update is being applied.
	EnvironmentStatusUpdating EnvironmentStatus = "Updating"
	// EnvironmentStatusReady indicates the environment has no operation in flight.
	EnvironmentStatusReady EnvironmentStatus = "Ready"
	// EnvironmentStatusTerminating indicates the environment is being torn down.
	EnvironmentStatusTerminating EnvironmentStatus = "Terminating"
	// EnvironmentStatusTerminated indicates the environment no longer exists.
	EnvironmentStatusTerminated EnvironmentStatus = "Terminated"
)

// String returns the string representation of the environment status.
func (s EnvironmentStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is one the provider can report.
func (s EnvironmentStatus) IsValid() bool {
	switch s {
	case EnvironmentStatusLaunching, EnvironmentStatusUpdating, EnvironmentStatusReady,
		EnvironmentStatusTerminating, EnvironmentStatusTerminated:
		return true
	default:
		return false
	}
}

// Terminated reports whether the environment is going away or already gone.
func (s EnvironmentStatus) Terminated() bool {
	return s == EnvironmentStatusTerminating || s == EnvironmentStatusTerminated
}

// Health represents the provider-computed aggregate health of an environment.
type Health string

const (
	// HealthGreen indicates the environment is healthy.
	HealthGreen Health = "Green"
	// HealthYellow indicates degraded but functioning health.
	HealthYellow Health = "Yellow"
	// HealthRed indicates the environment is failing.
	HealthRed Health = "Red"
	// HealthGrey indicates health is unknown, typically while an
	// operation is settling or no instances are reporting.
	HealthGrey Health = "Grey"
)

// String returns the string representation of the health value.
func (h Health) String() string {
	return string(h)
}

// IsValid returns true if the health is one the provider can report.
func (h Health) IsValid() bool {
	switch h {
	case HealthGreen, HealthYellow, HealthRed, HealthGrey:
		return true
	default:
		return false
	}
}

// StatusSnapshot is a normalized point-in-time view of an environment.
// A fresh value is fetched each poll and never mutated.
type StatusSnapshot struct {
	VersionLabel string            `json:"version_label"`
	Status       EnvironmentStatus `json:"status"`
	Health       Health            `json:"health"`
	HealthDetail string            `json:"health_detail,omitempty"`
}
