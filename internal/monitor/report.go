package monitor

import (
	"fmt"

	"github.com/narvanalabs/eb-deploy/internal/models"
)

// Exit codes for the deploy command. Distinct per outcome so callers in
// CI pipelines can branch without parsing output.
const (
	ExitSucceeded = 0
	ExitError     = 1
	ExitFailed    = 2
	ExitTimedOut  = 3
)

// Summarize renders the final human-readable verdict line. It carries no
// decision logic; the machine already decided.
func Summarize(v models.Verdict) string {
	switch v.Kind {
	case models.VerdictSucceeded:
		return "Release Complete! Environment is healthy"
	case models.VerdictFailed:
		if v.Detail != "" {
			return fmt.Sprintf("Release Failed! %s (%s)", v.Detail, v.Reason)
		}
		return fmt.Sprintf("Release Failed! (%s)", v.Reason)
	case models.VerdictTimedOut:
		return "Release Timed Out! Environment never confirmed the target version"
	default:
		return "Release still in progress"
	}
}

// ExitCode maps a verdict to the process exit code.
func ExitCode(v models.Verdict) int {
	switch v.Kind {
	case models.VerdictSucceeded:
		return ExitSucceeded
	case models.VerdictFailed:
		return ExitFailed
	case models.VerdictTimedOut:
		return ExitTimedOut
	default:
		return ExitError
	}
}
