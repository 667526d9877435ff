// Package cpuscope resolves CPU-range specifications ("all", "0-3", "2")
// into validated sets of logical CPU indices.
package cpuscope

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
)

// Scope is the set of logical CPUs a session observes: either every CPU on
// the host or a contiguous inclusive range.
type Scope struct {
	all  bool
	low  int
	high int
}

// All returns the scope covering every logical CPU.
func All() Scope {
	return Scope{all: true}
}

// InvalidCpuRangeError reports an unparseable or out-of-bounds CPU range.
type InvalidCpuRangeError struct {
	Spec   string
	Reason string
}

func (e *InvalidCpuRangeError) Error() string {
	return fmt.Sprintf("invalid cpu range %q: %s", e.Spec, e.Reason)
}

// Resolve parses a CPU-range specification against the host's logical CPU
// count. Accepted forms: "all" (case-insensitive), "low-high", and a single
// index "n" (shorthand for "n-n"). maxCpu is exclusive: every index must be
// in [0, maxCpu).
func Resolve(spec string, maxCpu int) (Scope, error) {
	if maxCpu <= 0 {
		return Scope{}, &InvalidCpuRangeError{Spec: spec, Reason: fmt.Sprintf("host reports %d logical cpus", maxCpu)}
	}

	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return Scope{}, &InvalidCpuRangeError{Spec: spec, Reason: "empty specification"}
	}
	if strings.EqualFold(trimmed, "all") {
		return All(), nil
	}

	lowStr, highStr, isRange := strings.Cut(trimmed, "-")
	if !isRange {
		highStr = lowStr
	}

	low, err := strconv.Atoi(lowStr)
	if err != nil || low < 0 {
		return Scope{}, &InvalidCpuRangeError{Spec: spec, Reason: fmt.Sprintf("bad lower bound %q", lowStr)}
	}
	high, err := strconv.Atoi(highStr)
	if err != nil || high < 0 {
		return Scope{}, &InvalidCpuRangeError{Spec: spec, Reason: fmt.Sprintf("bad upper bound %q", highStr)}
	}
	if low > high {
		return Scope{}, &InvalidCpuRangeError{Spec: spec, Reason: fmt.Sprintf("lower bound %d exceeds upper bound %d", low, high)}
	}
	if high >= maxCpu {
		return Scope{}, &InvalidCpuRangeError{Spec: spec, Reason: fmt.Sprintf("upper bound %d outside host range [0,%d)", high, maxCpu)}
	}

	return Scope{low: low, high: high}, nil
}

// IsAll reports whether the scope covers every logical CPU.
func (s Scope) IsAll() bool {
	return s.all
}

// Bounds returns the inclusive range bounds. ok is false for the all-CPUs
// scope, which has no explicit bounds.
func (s Scope) Bounds() (low, high int, ok bool) {
	if s.all {
		return 0, 0, false
	}
	return s.low, s.high, true
}

// List expands the scope into individual CPU indices. Returns nil for the
// all-CPUs scope.
func (s Scope) List() []int {
	if s.all {
		return nil
	}
	cpus := make([]int, 0, s.high-s.low+1)
	for i := s.low; i <= s.high; i++ {
		cpus = append(cpus, i)
	}
	return cpus
}

// PerfArg renders the scope as a perf -C argument ("0,1,2,3"). Empty for the
// all-CPUs scope, which perf expresses through -a instead.
func (s Scope) PerfArg() string {
	if s.all {
		return ""
	}
	parts := make([]string, 0, s.high-s.low+1)
	for i := s.low; i <= s.high; i++ {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ",")
}

// Overlaps reports whether two scopes share at least one CPU.
func (s Scope) Overlaps(other Scope) bool {
	if s.all || other.all {
		return true
	}
	return s.low <= other.high && other.low <= s.high
}

func (s Scope) String() string {
	if s.all {
		return "all"
	}
	if s.low == s.high {
		return strconv.Itoa(s.low)
	}
	return fmt.Sprintf("%d-%d", s.low, s.high)
}

// DetectMaxCpu returns the host's logical CPU count via gopsutil.
func DetectMaxCpu() (int, error) {
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, fmt.Errorf("failed to count logical cpus: %w", err)
	}
	return n, nil
}
