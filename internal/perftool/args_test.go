package perftool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfpilot/perfpilot/internal/cpuscope"
	"github.com/perfpilot/perfpilot/internal/runplan"
)

func TestBuildArgs_RecordDuration(t *testing.T) {
	plan := runplan.RunPlan{
		Type:   runplan.SessionRecord,
		Mode:   runplan.DurationMode{Seconds: 30},
		Events: []string{"cycles", "instructions"},
		Scope:  cpuscope.All(),
		Flags: runplan.Flags{
			FrequencyHz: 99,
			CallGraph:   true,
			SystemWide:  true,
		},
	}

	args := BuildArgs(plan, "/tmp/run/perf.data")

	assert.Equal(t, []string{
		"record",
		"-F", "99",
		"-e", "{cycles,instructions}:S",
		"-g",
		"-a",
		"-o", "/tmp/run/perf.data",
		"sleep", "30",
	}, args)
}

func TestBuildArgs_RecordWorkload(t *testing.T) {
	plan := runplan.RunPlan{
		Type:   runplan.SessionRecord,
		Mode:   runplan.WorkloadMode{Command: "bench futex hash"},
		Events: []string{"cycles"},
		Scope:  cpuscope.All(),
		Flags:  runplan.Flags{FrequencyHz: 99, SystemWide: true},
	}

	args := BuildArgs(plan, "perf.data")

	assert.Equal(t, []string{"bench", "futex", "hash"}, args[len(args)-3:])
	assert.NotContains(t, args, "sleep")
}

func TestBuildArgs_StatWithScopeAndDeltas(t *testing.T) {
	scope, err := cpuscope.Resolve("0-3", 8)
	require.NoError(t, err)

	plan := runplan.RunPlan{
		Type:   runplan.SessionStat,
		Mode:   runplan.DurationMode{Seconds: 10},
		Events: []string{"cycles", "branch-misses"},
		Scope:  scope,
		Flags: runplan.Flags{
			SystemWide:   true,
			AllThreads:   true,
			CountDeltaMs: 1000,
		},
	}

	args := BuildArgs(plan, "/tmp/run/perf_stat.txt")

	assert.Equal(t, []string{
		"stat",
		"-a",
		"-I", "1000",
		"-e", "cycles,branch-misses",
		"-C", "0,1,2,3",
		"-A",
		"-o", "/tmp/run/perf_stat.txt",
		"sleep", "10",
	}, args)
}

func TestBuildArgs_StatMinimal(t *testing.T) {
	plan := runplan.RunPlan{
		Type:   runplan.SessionStat,
		Mode:   runplan.WorkloadMode{Command: "stress-ng --cpu 2"},
		Events: []string{"cycles"},
		Scope:  cpuscope.All(),
	}

	args := BuildArgs(plan, "out.txt")

	assert.Equal(t, []string{
		"stat",
		"-e", "cycles",
		"-o", "out.txt",
		"stress-ng", "--cpu", "2",
	}, args)
}
