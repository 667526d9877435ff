package perftool

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/perfpilot/perfpilot/internal/runplan"
)

// BuildArgs renders the perf command line for a resolved plan. The first
// element is the perf subcommand (record/stat); the perf binary itself is
// prepended by the invoker.
//
// Duration mode runs `sleep <seconds>` as the measured child so perf
// terminates on its own even if the scheduler's cutoff never fires.
func BuildArgs(plan runplan.RunPlan, artifact string) []string {
	switch plan.Type {
	case runplan.SessionRecord:
		return recordArgs(plan, artifact)
	case runplan.SessionStat:
		return statArgs(plan, artifact)
	default:
		// Reconciliation only produces the two known types.
		panic(fmt.Sprintf("unknown session type %q", plan.Type))
	}
}

func recordArgs(plan runplan.RunPlan, artifact string) []string {
	args := []string{"record"}

	if plan.Flags.FrequencyHz > 0 {
		args = append(args, "-F", strconv.Itoa(plan.Flags.FrequencyHz))
	}

	// Sampled events run as a single leader group so samples stay attributable.
	args = append(args, "-e", "{"+strings.Join(plan.Events, ",")+"}:S")

	if plan.Flags.CallGraph {
		args = append(args, "-g")
	}
	if plan.Flags.SystemWide {
		args = append(args, "-a")
	}
	if arg := plan.Scope.PerfArg(); arg != "" {
		args = append(args, "-C", arg)
	}

	args = append(args, "-o", artifact)
	return append(args, tailArgs(plan.Mode)...)
}

func statArgs(plan runplan.RunPlan, artifact string) []string {
	args := []string{"stat"}

	if plan.Flags.SystemWide {
		args = append(args, "-a")
	}
	if plan.Flags.CountDeltaMs > 0 {
		args = append(args, "-I", strconv.Itoa(plan.Flags.CountDeltaMs))
	}

	args = append(args, "-e", strings.Join(plan.Events, ","))

	if arg := plan.Scope.PerfArg(); arg != "" {
		args = append(args, "-C", arg)
	}
	if plan.Flags.AllThreads {
		args = append(args, "-A")
	}

	args = append(args, "-o", artifact)
	return append(args, tailArgs(plan.Mode)...)
}

// tailArgs is the measured child command: the workload itself, or sleep for
// duration-bounded sessions.
func tailArgs(mode runplan.RunMode) []string {
	switch m := mode.(type) {
	case runplan.DurationMode:
		return []string{"sleep", strconv.Itoa(m.Seconds)}
	case runplan.WorkloadMode:
		return strings.Fields(m.Command)
	default:
		panic(fmt.Sprintf("unknown run mode %T", mode))
	}
}
