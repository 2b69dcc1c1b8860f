package models

// VerdictKind enumerates the monitoring outcomes.
type VerdictKind string

const (
	// VerdictInProgress indicates the deployment is still being observed.
	VerdictInProgress VerdictKind = "in_progress"
	// VerdictSucceeded indicates the deployment completed and stayed healthy.
	VerdictSucceeded VerdictKind = "succeeded"
	// VerdictFailed indicates the deployment failed; the verdict carries a reason.
	VerdictFailed VerdictKind = "failed"
	// VerdictTimedOut indicates the overall monitoring timeout elapsed first.
	VerdictTimedOut VerdictKind = "timed_out"
)

// FailureReason classifies why a deployment failed.
type FailureReason string

const (
	// FailureHealthDegraded indicates health stayed Red beyond the grace period.
	FailureHealthDegraded FailureReason = "health_degraded"
	// FailureVersionMismatch indicates the running version diverged from the
	// target after it had been confirmed, typically a concurrent deployment
	// or a provider-side rollback.
	FailureVersionMismatch FailureReason = "version_mismatch"
	// FailureProviderAbort indicates the provider aborted or terminated the
	// environment mid-update.
	FailureProviderAbort FailureReason = "provider_abort"
)

// Verdict is the state machine's decision for a deployment. Once a verdict
// is terminal it is never revisited.
type Verdict struct {
	Kind   VerdictKind   `json:"kind"`
	Reason FailureReason `json:"reason,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// InProgress returns the non-terminal verdict.
func InProgress() Verdict {
	return Verdict{Kind: VerdictInProgress}
}

// Succeeded returns the success verdict.
func Succeeded() Verdict {
	return Verdict{Kind: VerdictSucceeded}
}

// Failed returns a failure verdict with the given reason and detail.
func Failed(reason FailureReason, detail string) Verdict {
	return Verdict{Kind: VerdictFailed, Reason: reason, Detail: detail}
}

// TimedOut returns the timeout verdict.
func TimedOut() Verdict {
	return Verdict{Kind: VerdictTimedOut}
}

// Terminal reports whether the verdict ends monitoring.
func (v Verdict) Terminal() bool {
	return v.Kind != VerdictInProgress
}
