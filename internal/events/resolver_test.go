package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PreservesOrder(t *testing.T) {
	resolved, warn, err := Resolve([]string{"cycles", "instructions", "branch-misses"}, Sampling, 0)

	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, []string{"cycles", "instructions", "branch-misses"}, resolved)
}

func TestResolve_EmptyInput(t *testing.T) {
	_, _, err := Resolve(nil, Counting, 0)

	var invalid *InvalidEventError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, invalid.Event)
}

func TestResolve_RejectsDuplicates(t *testing.T) {
	_, _, err := Resolve([]string{"cycles", "instructions", "cycles"}, Counting, 0)

	var invalid *InvalidEventError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "cycles", invalid.Event)
}

func TestResolve_DuplicatesAreCaseSensitive(t *testing.T) {
	resolved, _, err := Resolve([]string{"cycles", "Cycles"}, Sampling, 0)

	require.NoError(t, err)
	assert.Len(t, resolved, 2)
}

func TestResolve_MalformedNames(t *testing.T) {
	tests := []struct {
		name  string
		event string
	}{
		{"empty", ""},
		{"whitespace", "cycles instructions"},
		{"comma", "cycles,instructions"},
		{"group braces", "{cycles}"},
		{"leading dash", "-cycles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Resolve([]string{tt.event}, Counting, 0)
			var invalid *InvalidEventError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestResolve_AcceptsPerfSyntaxes(t *testing.T) {
	names := []string{
		"cycles",
		"L1-dcache-load-misses",
		"r01c2",
		"sched:sched_switch",
		"cpu/event=0x3c/",
		"cycles:u",
	}

	resolved, _, err := Resolve(names, Counting, len(names))
	require.NoError(t, err)
	assert.Equal(t, names, resolved)
}

func TestResolve_MultiplexWarningForCounting(t *testing.T) {
	evs := []string{"cycles", "instructions", "branch-misses", "cache-misses", "page-faults"}

	resolved, warn, err := Resolve(evs, Counting, 4)
	require.NoError(t, err)
	assert.Equal(t, evs, resolved)
	require.NotNil(t, warn)
	assert.Equal(t, 5, warn.Requested)
	assert.Equal(t, 4, warn.SafeLimit)
}

func TestResolve_NoMultiplexWarningForSampling(t *testing.T) {
	evs := []string{"cycles", "instructions", "branch-misses", "cache-misses", "page-faults"}

	_, warn, err := Resolve(evs, Sampling, 4)
	require.NoError(t, err)
	assert.Nil(t, warn)
}

func TestResolve_SafeLimitDefault(t *testing.T) {
	evs := make([]string, 0, DefaultSafeSimultaneous+1)
	for _, ev := range []string{"cycles", "instructions", "branch-misses", "cache-misses", "page-faults"} {
		evs = append(evs, ev)
	}

	_, warn, err := Resolve(evs, Counting, 0)
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, DefaultSafeSimultaneous, warn.SafeLimit)
}
