package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/perfpilot/perfpilot/internal/perftool"
	"github.com/perfpilot/perfpilot/internal/retry"
	"github.com/perfpilot/perfpilot/internal/runplan"
)

const (
	// DefaultStopGrace is how long a stopped tool gets to flush and exit
	// before it is killed.
	DefaultStopGrace = 5 * time.Second
)

// Config tunes scheduler behavior.
type Config struct {
	// FailFast aborts the batch on the first failed session.
	FailFast bool
	// StopGrace bounds the graceful-shutdown wait. Zero means DefaultStopGrace.
	StopGrace time.Duration
	// LaunchRetry retries transient tool launch failures (busy counters).
	// Zero MaxRetries means a single attempt.
	LaunchRetry retry.Config
}

// Scheduler executes run plans sequentially, holding the counter token for
// the full lifetime of each session.
type Scheduler struct {
	log     zerolog.Logger
	invoker perftool.Invoker
	token   CounterToken
	runDir  string
	cfg     Config
	nextID  uint64
}

// New creates a scheduler writing session artifacts under runDir.
func New(log zerolog.Logger, invoker perftool.Invoker, token CounterToken, runDir string, cfg Config) *Scheduler {
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	if cfg.LaunchRetry.MaxRetries <= 0 {
		cfg.LaunchRetry = retry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	}
	return &Scheduler{
		log:     log,
		invoker: invoker,
		token:   token,
		runDir:  runDir,
		cfg:     cfg,
	}
}

// Execute runs every plan in submission order and returns one terminal
// session per executed plan, in the same order.
//
// A session failure does not abort the batch unless FailFast is set. Context
// cancellation marks the in-flight session Cancelled, terminates its owned
// process within the stop grace, and abandons the remaining plans.
func (s *Scheduler) Execute(ctx context.Context, plans []runplan.RunPlan) ([]*Session, error) {
	sessions := make([]*Session, 0, len(plans))

	for _, plan := range plans {
		sess, err := s.prepare(plan)
		if err != nil {
			return sessions, err
		}
		sessions = append(sessions, sess)

		s.runOne(ctx, sess)

		if err := ctx.Err(); err != nil {
			return sessions, err
		}
		if s.cfg.FailFast && sess.State() == StateFailed {
			return sessions, fmt.Errorf("session %d failed: %w", sess.ID, sess.Cause())
		}
	}

	return sessions, nil
}

// prepare assigns the session identity and its unique artifact paths.
func (s *Scheduler) prepare(plan runplan.RunPlan) (*Session, error) {
	s.nextID++
	id := s.nextID

	dir := filepath.Join(s.runDir, fmt.Sprintf("session_%03d_%s", id, plan.Type))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	artifact := "perf_stat.txt"
	if plan.Type == runplan.SessionRecord {
		artifact = "perf.data"
	}

	paths := perftool.Paths{
		Artifact: filepath.Join(dir, artifact),
		Log:      filepath.Join(dir, fmt.Sprintf("perf_%s_output.log", plan.Type)),
	}
	return newSession(id, plan, paths), nil
}

// runOne drives a single session to a terminal state. The counter token is
// held from the Running transition until the terminal transition.
func (s *Scheduler) runOne(ctx context.Context, sess *Session) {
	log := s.log.With().
		Uint64("session", sess.ID).
		Str("type", string(sess.Plan.Type)).
		Str("mode", sess.Plan.Mode.String()).
		Logger()

	if err := s.token.Acquire(ctx); err != nil {
		sess.markTerminal(StateCancelled, err)
		log.Warn().Msg("session cancelled before acquiring counters")
		return
	}
	defer s.token.Release()

	sess.markRunning()
	log.Info().Str("artifact", sess.Paths.Artifact).Msg("session running")

	var handle perftool.Handle
	launch := func() error {
		h, err := s.invoker.Start(ctx, sess.Plan, sess.Paths)
		if err != nil {
			return err
		}
		handle = h
		return nil
	}
	if err := retry.Do(ctx, s.cfg.LaunchRetry, launch, perftool.IsTransient); err != nil {
		if ctx.Err() != nil {
			sess.markTerminal(StateCancelled, ctx.Err())
			log.Warn().Msg("session cancelled during launch")
		} else {
			sess.markTerminal(StateFailed, err)
			log.Error().Err(err).Msg("session failed to launch")
		}
		return
	}

	state, cause := s.await(ctx, sess.Plan.Mode, handle)
	sess.markTerminal(state, cause)

	switch state {
	case StateCompleted:
		log.Info().Dur("elapsed", sess.Elapsed()).Msg("session completed")
	case StateCancelled:
		log.Warn().Msg("session cancelled")
	case StateFailed:
		log.Error().Err(cause).Msg("session failed")
	}
}

// await blocks until the session's termination condition is met.
//
// Workload mode: the tool's lifetime is the workload's lifetime; we only
// observe its exit or preempt it on cancellation.
//
// Duration mode: the tool terminates itself at the deadline; the scheduler
// keeps its own cutoff as a hard backstop and stops the tool gracefully if
// it overstays.
func (s *Scheduler) await(ctx context.Context, mode runplan.RunMode, handle perftool.Handle) (State, error) {
	switch m := mode.(type) {
	case runplan.WorkloadMode:
		select {
		case <-handle.Done():
			if err := handle.Err(); err != nil {
				return StateFailed, err
			}
			return StateCompleted, nil
		case <-ctx.Done():
			return s.cancel(handle)
		}

	case runplan.DurationMode:
		cutoff := time.NewTimer(m.Duration() + s.cfg.StopGrace)
		defer cutoff.Stop()

		select {
		case <-handle.Done():
			if err := handle.Err(); err != nil {
				return StateFailed, err
			}
			return StateCompleted, nil
		case <-cutoff.C:
			return s.stopAndWait(handle)
		case <-ctx.Done():
			return s.cancel(handle)
		}

	default:
		return StateFailed, fmt.Errorf("unknown run mode %T", mode)
	}
}

// stopAndWait gracefully stops an overstaying duration session. The tool is
// given the stop grace to flush; Stop escalates to a forced kill after that,
// so the bounded wait below always returns.
func (s *Scheduler) stopAndWait(handle perftool.Handle) (State, error) {
	if err := handle.Stop(s.cfg.StopGrace); err != nil {
		return StateFailed, fmt.Errorf("failed to stop tool at cutoff: %w", err)
	}
	select {
	case <-handle.Done():
		if err := handle.Err(); err != nil {
			return StateFailed, err
		}
		return StateCompleted, nil
	case <-time.After(2 * s.cfg.StopGrace):
		return StateFailed, fmt.Errorf("tool did not exit within %s of cutoff", 2*s.cfg.StopGrace)
	}
}

// cancel terminates the session's owned process within the grace period.
func (s *Scheduler) cancel(handle perftool.Handle) (State, error) {
	_ = handle.Stop(s.cfg.StopGrace)
	select {
	case <-handle.Done():
	case <-time.After(2 * s.cfg.StopGrace):
	}
	return StateCancelled, context.Canceled
}
