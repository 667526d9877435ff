// Package events validates and normalizes perf event sets before a session
// is planned. Resolution is pure: it never touches the perf subsystem.
package events

import (
	"fmt"
	"regexp"
)

// Class distinguishes how a session consumes its events. Sampling sessions
// group events into a single leader group; counting sessions let perf
// multiplex them.
type Class int

const (
	// Sampling identifies record-style sessions.
	Sampling Class = iota
	// Counting identifies stat-style sessions.
	Counting
)

func (c Class) String() string {
	switch c {
	case Sampling:
		return "sampling"
	case Counting:
		return "counting"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// DefaultSafeSimultaneous is the number of events a typical core can count
// without multiplexing (general-purpose counter budget on common x86 parts).
const DefaultSafeSimultaneous = 4

// Event names as perf accepts them: symbolic names (cycles, branch-misses),
// raw events (r01c2), tracepoints (sched:sched_switch), PMU syntax
// (cpu/event=0x3c/). Group braces and commas are ours to add, never the
// caller's.
var eventNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:/=-]*$`)

// InvalidEventError reports a rejected event set.
type InvalidEventError struct {
	Event  string // offending event, empty when the whole set is invalid
	Reason string
}

func (e *InvalidEventError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("invalid event set: %s", e.Reason)
	}
	return fmt.Sprintf("invalid event %q: %s", e.Event, e.Reason)
}

// MultiplexWarning signals that a counting session requested more events
// than the hardware can count simultaneously. The scheduler decides what to
// do with it; resolution never fails on it.
type MultiplexWarning struct {
	Requested int
	SafeLimit int
}

func (w *MultiplexWarning) String() string {
	return fmt.Sprintf("%d events requested, hardware counts ~%d simultaneously; perf will multiplex", w.Requested, w.SafeLimit)
}

// Resolve validates the requested event list for the given session class.
// It rejects empty input and duplicates (case-sensitive, first-seen order is
// preserved) and returns a MultiplexWarning for counting sessions whose set
// exceeds safeLimit. A safeLimit <= 0 falls back to DefaultSafeSimultaneous.
func Resolve(requested []string, class Class, safeLimit int) ([]string, *MultiplexWarning, error) {
	if len(requested) == 0 {
		return nil, nil, &InvalidEventError{Reason: "no events requested"}
	}
	if safeLimit <= 0 {
		safeLimit = DefaultSafeSimultaneous
	}

	seen := make(map[string]struct{}, len(requested))
	resolved := make([]string, 0, len(requested))
	for _, ev := range requested {
		if !eventNameRe.MatchString(ev) {
			return nil, nil, &InvalidEventError{Event: ev, Reason: "malformed event name"}
		}
		if _, dup := seen[ev]; dup {
			return nil, nil, &InvalidEventError{Event: ev, Reason: "duplicate event"}
		}
		seen[ev] = struct{}{}
		resolved = append(resolved, ev)
	}

	var warn *MultiplexWarning
	if class == Counting && len(resolved) > safeLimit {
		warn = &MultiplexWarning{Requested: len(resolved), SafeLimit: safeLimit}
	}

	return resolved, warn, nil
}
