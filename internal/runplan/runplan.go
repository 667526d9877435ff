// Package runplan turns a raw session specification into a fully resolved,
// immutable execution plan. The central job is run-mode reconciliation:
// collapsing the duration/workload pair into a single authoritative
// termination condition before anything reaches the scheduler.
package runplan

import (
	"fmt"
	"time"

	"github.com/perfpilot/perfpilot/internal/cpuscope"
)

// SessionType distinguishes sampling (record) from counting (stat) sessions.
type SessionType string

const (
	// SessionRecord is a sampling session (perf record).
	SessionRecord SessionType = "record"
	// SessionStat is a counting session (perf stat).
	SessionStat SessionType = "stat"
)

// RunMode is the resolved termination condition for a session. Exactly one
// concrete mode survives reconciliation; the both-set and neither-set states
// cannot be represented.
type RunMode interface {
	fmt.Stringer
	runMode()
}

// DurationMode terminates the session after a fixed wall-clock interval.
type DurationMode struct {
	Seconds int
}

func (DurationMode) runMode() {}

func (m DurationMode) String() string { return fmt.Sprintf("duration(%ds)", m.Seconds) }

// Duration returns the mode's interval as a time.Duration.
func (m DurationMode) Duration() time.Duration { return time.Duration(m.Seconds) * time.Second }

// WorkloadMode ties the session's lifetime to an external command: the
// measurement runs until the workload process exits naturally.
type WorkloadMode struct {
	Command string
}

func (WorkloadMode) runMode() {}

func (m WorkloadMode) String() string { return fmt.Sprintf("workload(%q)", m.Command) }

// Flags carries the per-session tuning knobs that do not affect scheduling.
type Flags struct {
	// FrequencyHz is the sampling frequency (record sessions only).
	FrequencyHz int
	// CallGraph enables call-stack capture (record sessions only).
	CallGraph bool
	// SystemWide observes all processes, not just the workload.
	SystemWide bool
	// AllThreads reports per-CPU counts instead of aggregates (stat only).
	AllThreads bool
	// ExcludeSelf requests that the orchestrator's own process be excluded.
	ExcludeSelf bool
	// CountDeltaMs prints counter deltas at this interval (stat only, 0 off).
	CountDeltaMs int
}

// RunPlan is the fully resolved, executable description of one session kind.
// Immutable after reconciliation.
type RunPlan struct {
	Type   SessionType
	Mode   RunMode
	Events []string
	Scope  cpuscope.Scope
	Flags  Flags
}

// SessionSpec is the raw per-type configuration handed to Reconcile. Events
// and Scope must already have passed their resolvers.
type SessionSpec struct {
	Type   SessionType
	Events []string
	// DurationSeconds is the requested fixed duration. Zero or negative
	// means unset and falls through to the workload.
	DurationSeconds int
	// Workload is the command line to measure when no duration is set.
	Workload string
	Scope    cpuscope.Scope
	Flags    Flags
}

// AmbiguousRunModeError reports a spec with no usable termination condition.
type AmbiguousRunModeError struct {
	Type SessionType
}

func (e *AmbiguousRunModeError) Error() string {
	return fmt.Sprintf("%s session has neither a positive duration nor a workload; no termination condition", e.Type)
}
