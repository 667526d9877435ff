// Package scheduler turns resolved run plans into executed measurement
// sessions. Sessions run strictly one at a time: the hardware counter
// subsystem is a serially contended resource, and overlapping sampling and
// counting sessions would skew each other's numbers.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/perfpilot/perfpilot/internal/perftool"
	"github.com/perfpilot/perfpilot/internal/runplan"
)

// State is a session's lifecycle state.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Session is one executed measurement run. Identity is a monotonic id
// assigned at creation; re-runs create new sessions, never mutate past ones.
type Session struct {
	ID    uint64
	Plan  runplan.RunPlan
	Paths perftool.Paths

	mu        sync.Mutex
	state     State
	cause     error
	startedAt time.Time
	endedAt   time.Time
}

func newSession(id uint64, plan runplan.RunPlan, paths perftool.Paths) *Session {
	return &Session{ID: id, Plan: plan, Paths: paths, state: StatePending}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cause returns the captured failure cause, nil unless the session Failed.
func (s *Session) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// StartedAt returns the Running transition timestamp.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// EndedAt returns the terminal transition timestamp.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Elapsed returns the wall-clock time the session actually ran.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() || s.endedAt.IsZero() {
		return 0
	}
	return s.endedAt.Sub(s.startedAt)
}

func (s *Session) markRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateRunning
	s.startedAt = time.Now()
}

func (s *Session) markTerminal(state State, cause error) {
	if !state.Terminal() {
		panic(fmt.Sprintf("non-terminal transition to %s", state))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = state
	s.cause = cause
	s.endedAt = time.Now()
}
