package runplan

import "strings"

// Reconcile resolves the duration-vs-workload precedence for one session
// spec and produces its plan.
//
// The rule is hard precedence, not prioritization: a positive duration is
// authoritative and the workload string is discarded entirely, so it can
// never be launched. A zero or negative duration counts as unset and falls
// through to the workload, which then must be non-empty. Neither set is an
// AmbiguousRunModeError.
//
// Reconciliation is evaluated independently per session type; record and
// stat sessions may resolve to different modes.
func Reconcile(spec SessionSpec) (RunPlan, error) {
	mode, err := resolveMode(spec)
	if err != nil {
		return RunPlan{}, err
	}

	events := make([]string, len(spec.Events))
	copy(events, spec.Events)

	return RunPlan{
		Type:   spec.Type,
		Mode:   mode,
		Events: events,
		Scope:  spec.Scope,
		Flags:  spec.Flags,
	}, nil
}

func resolveMode(spec SessionSpec) (RunMode, error) {
	if spec.DurationSeconds > 0 {
		return DurationMode{Seconds: spec.DurationSeconds}, nil
	}
	if workload := strings.TrimSpace(spec.Workload); workload != "" {
		return WorkloadMode{Command: workload}, nil
	}
	return nil, &AmbiguousRunModeError{Type: spec.Type}
}
