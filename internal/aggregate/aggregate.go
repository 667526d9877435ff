// Package aggregate correlates per-session raw outputs with their resolved
// plan metadata so downstream annotation and reporting can attribute
// measurements without inspecting output content.
package aggregate

import (
	"fmt"
	"os"
	"time"

	"github.com/perfpilot/perfpilot/internal/cpuscope"
	"github.com/perfpilot/perfpilot/internal/runplan"
	"github.com/perfpilot/perfpilot/internal/scheduler"
)

// Result is one session's outcome joined with its plan metadata. The
// artifact is carried as an opaque path; aggregation never parses it.
type Result struct {
	SessionID uint64
	Type      runplan.SessionType
	Mode      runplan.RunMode
	Events    []string
	Scope     cpuscope.Scope
	State     scheduler.State
	// Cause is the failure or cancellation cause, empty for completed sessions.
	Cause        string
	ArtifactPath string
	LogPath      string
	StartedAt    time.Time
	EndedAt      time.Time
	Elapsed      time.Duration
}

// IncompleteResultError reports a session that claims completion but left no
// usable output behind. This is a collaborator contract violation: silent
// data loss that must surface as a hard failure.
type IncompleteResultError struct {
	SessionID uint64
	Path      string
	Err       error
}

func (e *IncompleteResultError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session %d completed but artifact %q is unusable: %v", e.SessionID, e.Path, e.Err)
	}
	return fmt.Sprintf("session %d completed but artifact %q is empty", e.SessionID, e.Path)
}

func (e *IncompleteResultError) Unwrap() error { return e.Err }

// ResultSet holds collected results, ordered by original scheduling order.
type ResultSet struct {
	ordered []Result
	byID    map[uint64]int
}

// Collect builds a ResultSet from terminal sessions. Every completed
// session must have a non-empty artifact on disk; a missing or empty one
// fails the whole collection with IncompleteResultError.
func Collect(sessions []*scheduler.Session) (*ResultSet, error) {
	set := &ResultSet{
		ordered: make([]Result, 0, len(sessions)),
		byID:    make(map[uint64]int, len(sessions)),
	}

	for _, sess := range sessions {
		state := sess.State()
		if !state.Terminal() {
			return nil, fmt.Errorf("session %d is still %s; only terminal sessions can be collected", sess.ID, state)
		}

		if state == scheduler.StateCompleted {
			if err := verifyArtifact(sess.ID, sess.Paths.Artifact); err != nil {
				return nil, err
			}
		}

		cause := ""
		if err := sess.Cause(); err != nil {
			cause = err.Error()
		}

		set.byID[sess.ID] = len(set.ordered)
		set.ordered = append(set.ordered, Result{
			SessionID:    sess.ID,
			Type:         sess.Plan.Type,
			Mode:         sess.Plan.Mode,
			Events:       sess.Plan.Events,
			Scope:        sess.Plan.Scope,
			State:        state,
			Cause:        cause,
			ArtifactPath: sess.Paths.Artifact,
			LogPath:      sess.Paths.Log,
			StartedAt:    sess.StartedAt(),
			EndedAt:      sess.EndedAt(),
			Elapsed:      sess.Elapsed(),
		})
	}

	return set, nil
}

func verifyArtifact(id uint64, path string) error {
	if path == "" {
		return &IncompleteResultError{SessionID: id, Path: path}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &IncompleteResultError{SessionID: id, Path: path, Err: err}
	}
	if info.Size() == 0 {
		return &IncompleteResultError{SessionID: id, Path: path}
	}
	return nil
}

// Results returns all results in original scheduling order.
func (rs *ResultSet) Results() []Result {
	return rs.ordered
}

// Lookup returns the result for a session identity.
func (rs *ResultSet) Lookup(sessionID uint64) (Result, bool) {
	idx, ok := rs.byID[sessionID]
	if !ok {
		return Result{}, false
	}
	return rs.ordered[idx], true
}

// Len returns the number of collected results.
func (rs *ResultSet) Len() int {
	return len(rs.ordered)
}

// Counts tallies results by terminal state, for the run summary.
func (rs *ResultSet) Counts() (completed, failed, cancelled int) {
	for _, r := range rs.ordered {
		switch r.State {
		case scheduler.StateCompleted:
			completed++
		case scheduler.StateFailed:
			failed++
		case scheduler.StateCancelled:
			cancelled++
		}
	}
	return completed, failed, cancelled
}
