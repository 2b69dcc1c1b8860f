package models

import (
	"fmt"
	"time"
)

// Severity represents the severity of a provider-emitted event.
type Severity string

const (
	SeverityTrace Severity = "TRACE"
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
	SeverityFatal Severity = "FATAL"
)

// severityRank orders severities for threshold comparisons.
var severityRank = map[Severity]int{
	SeverityTrace: 0,
	SeverityDebug: 1,
	SeverityInfo:  2,
	SeverityWarn:  3,
	SeverityError: 4,
	SeverityFatal: 5,
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid returns true if the severity is one the provider can emit.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is of equal or higher severity than min.
// Unknown severities compare below everything known.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// EventRecord is a single operational event emitted by the provider.
// The provider may return overlapping windows across fetches, so the
// (Timestamp, SourceID, Message) triple is the identity of an event.
type EventRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	SourceID  string    `json:"source_id,omitempty"`
}

// Key returns the de-duplication key for the event.
func (e EventRecord) Key() EventKey {
	return EventKey{
		Timestamp: e.Timestamp.UnixNano(),
		SourceID:  e.SourceID,
		Message:   e.Message,
	}
}

// EventKey identifies an event across overlapping fetch windows.
// It is comparable so it can be used as a map key.
type EventKey struct {
	Timestamp int64
	SourceID  string
	Message   string
}

// Format renders the event in the log line form streamed to the operator:
// "... HH:MM:SS [SEVERITY] message".
func (e EventRecord) Format() string {
	return fmt.Sprintf("... %s [%s] %s", e.Timestamp.Format("15:04:05"), e.Severity, e.Message)
}
