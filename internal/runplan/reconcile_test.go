package runplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfpilot/perfpilot/internal/cpuscope"
)

func TestReconcile_DurationWinsOverWorkload(t *testing.T) {
	plan, err := Reconcile(SessionSpec{
		Type:            SessionRecord,
		Events:          []string{"cycles", "instructions"},
		DurationSeconds: 120,
		Workload:        "bench futex hash",
		Scope:           cpuscope.All(),
	})

	require.NoError(t, err)
	mode, ok := plan.Mode.(DurationMode)
	require.True(t, ok, "duration must be authoritative when both are set")
	assert.Equal(t, 120, mode.Seconds)
}

func TestReconcile_WorkloadWhenDurationUnset(t *testing.T) {
	plan, err := Reconcile(SessionSpec{
		Type:     SessionStat,
		Events:   []string{"cycles"},
		Workload: "bench futex hash",
		Scope:    cpuscope.All(),
	})

	require.NoError(t, err)
	mode, ok := plan.Mode.(WorkloadMode)
	require.True(t, ok)
	assert.Equal(t, "bench futex hash", mode.Command)
}

func TestReconcile_NonPositiveDurationFallsThrough(t *testing.T) {
	for _, seconds := range []int{0, -1, -30} {
		plan, err := Reconcile(SessionSpec{
			Type:            SessionRecord,
			Events:          []string{"cycles"},
			DurationSeconds: seconds,
			Workload:        "stress-ng --cpu 4",
			Scope:           cpuscope.All(),
		})

		require.NoError(t, err)
		_, ok := plan.Mode.(WorkloadMode)
		assert.True(t, ok, "duration %d should be treated as unset", seconds)
	}
}

func TestReconcile_NeitherSetFails(t *testing.T) {
	_, err := Reconcile(SessionSpec{
		Type:   SessionStat,
		Events: []string{"cycles"},
		Scope:  cpuscope.All(),
	})

	var ambiguous *AmbiguousRunModeError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, SessionStat, ambiguous.Type)
}

func TestReconcile_BlankWorkloadIsUnset(t *testing.T) {
	_, err := Reconcile(SessionSpec{
		Type:     SessionRecord,
		Events:   []string{"cycles"},
		Workload: "   ",
		Scope:    cpuscope.All(),
	})

	var ambiguous *AmbiguousRunModeError
	require.ErrorAs(t, err, &ambiguous)
}

func TestReconcile_IndependentPerType(t *testing.T) {
	record, err := Reconcile(SessionSpec{
		Type:            SessionRecord,
		Events:          []string{"cycles"},
		DurationSeconds: 30,
		Scope:           cpuscope.All(),
	})
	require.NoError(t, err)

	stat, err := Reconcile(SessionSpec{
		Type:     SessionStat,
		Events:   []string{"cycles"},
		Workload: "bench futex hash",
		Scope:    cpuscope.All(),
	})
	require.NoError(t, err)

	_, recordIsDuration := record.Mode.(DurationMode)
	_, statIsWorkload := stat.Mode.(WorkloadMode)
	assert.True(t, recordIsDuration)
	assert.True(t, statIsWorkload)
}

func TestReconcile_CopiesEventSlice(t *testing.T) {
	events := []string{"cycles", "instructions"}
	plan, err := Reconcile(SessionSpec{
		Type:            SessionStat,
		Events:          events,
		DurationSeconds: 10,
		Scope:           cpuscope.All(),
	})
	require.NoError(t, err)

	events[0] = "mutated"
	assert.Equal(t, "cycles", plan.Events[0], "plan must be immutable after reconciliation")
}
