// Package orchestrator drives a full measurement run: resolve the
// configuration into run plans, execute them through the scheduler, collect
// the results, and optionally annotate sampling artifacts.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/perfpilot/perfpilot/internal/aggregate"
	"github.com/perfpilot/perfpilot/internal/annotate"
	"github.com/perfpilot/perfpilot/internal/config"
	"github.com/perfpilot/perfpilot/internal/cpuscope"
	"github.com/perfpilot/perfpilot/internal/events"
	"github.com/perfpilot/perfpilot/internal/perftool"
	"github.com/perfpilot/perfpilot/internal/retry"
	"github.com/perfpilot/perfpilot/internal/runplan"
	"github.com/perfpilot/perfpilot/internal/scheduler"
	"github.com/perfpilot/perfpilot/internal/sys/perfcap"
)

// Annotator renders annotation for a sampling artifact.
type Annotator interface {
	Render(ctx context.Context, artifactPath, outPath string) error
}

// Options customizes collaborators, mainly for tests.
type Options struct {
	// Invoker launches the measurement tool. Nil uses the real perf binary.
	Invoker perftool.Invoker
	// Annotator renders sampling annotation. Nil uses perf annotate.
	Annotator Annotator
	// MaxCpu overrides host CPU detection when positive.
	MaxCpu int
	// Renice lowers the orchestrator's own priority before measuring.
	Renice bool
}

// Report is the outcome of one measurement run.
type Report struct {
	RunDir   string
	Results  *aggregate.ResultSet
	Warnings []string
}

// Failed reports whether any session failed.
func (r *Report) Failed() bool {
	if r.Results == nil {
		return true
	}
	_, failed, _ := r.Results.Counts()
	return failed > 0
}

// Orchestrator runs measurement sessions for one configuration.
type Orchestrator struct {
	log  zerolog.Logger
	cfg  *config.Config
	opts Options
}

// New creates an orchestrator.
func New(log zerolog.Logger, cfg *config.Config, opts Options) *Orchestrator {
	return &Orchestrator{log: log, cfg: cfg, opts: opts}
}

// Run executes the configured sessions. Configuration-time errors (bad
// events, CPU ranges, ambiguous run modes) abort before anything is
// launched or any directory is created. Per-session failures are recorded
// in the report, not returned as errors.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	maxCpu := o.opts.MaxCpu
	if maxCpu <= 0 {
		detected, err := cpuscope.DetectMaxCpu()
		if err != nil {
			return nil, err
		}
		maxCpu = detected
	}

	plans, warnings, err := o.resolvePlans(maxCpu)
	if err != nil {
		return nil, err
	}
	for _, warn := range warnings {
		o.log.Warn().Msg(warn)
	}

	runDir, err := o.createRunDir()
	if err != nil {
		return nil, err
	}
	o.log.Info().Str("dir", runDir).Msg("created run directory")

	if err := o.cfg.Save(filepath.Join(runDir, "config_used.yaml")); err != nil {
		return nil, err
	}

	if o.opts.Renice {
		// Keep our own scheduling noise out of the measurement.
		if err := perfcap.Renice(19); err != nil {
			o.log.Warn().Err(err).Msg("could not lower own priority")
		}
	}

	invoker := o.opts.Invoker
	if invoker == nil {
		invoker = &perftool.PerfInvoker{Log: o.log.With().Str("component", "perftool").Logger()}
	}

	sched := scheduler.New(
		o.log.With().Str("component", "scheduler").Logger(),
		invoker,
		scheduler.NewCounterToken(),
		runDir,
		scheduler.Config{
			FailFast: o.cfg.FailFast,
			LaunchRetry: retry.Config{
				MaxRetries:     3,
				InitialBackoff: 200 * time.Millisecond,
				MaxBackoff:     2 * time.Second,
			},
		},
	)

	sessions, execErr := sched.Execute(ctx, plans)

	results, err := aggregate.Collect(sessions)
	if err != nil {
		return &Report{RunDir: runDir, Warnings: warnings}, err
	}
	report := &Report{RunDir: runDir, Results: results, Warnings: warnings}

	if execErr != nil {
		o.summarize(report)
		return report, execErr
	}

	o.annotateResults(ctx, results)
	o.summarize(report)
	return report, nil
}

// resolvePlans runs the configuration-time pipeline: event resolution, CPU
// scope resolution, and run-mode reconciliation, record before stat.
func (o *Orchestrator) resolvePlans(maxCpu int) ([]runplan.RunPlan, []string, error) {
	var plans []runplan.RunPlan
	var warnings []string

	if o.cfg.RecordOn() {
		evs, _, err := events.Resolve(o.cfg.RecordEvents, events.Sampling, o.cfg.SafeEventLimit)
		if err != nil {
			return nil, nil, err
		}
		scope, err := cpuscope.Resolve(o.cfg.RecordCpus, maxCpu)
		if err != nil {
			return nil, nil, err
		}
		plan, err := runplan.Reconcile(runplan.SessionSpec{
			Type:            runplan.SessionRecord,
			Events:          evs,
			DurationSeconds: o.cfg.RecordDuration(),
			Workload:        o.cfg.RecordWork,
			Scope:           scope,
			Flags: runplan.Flags{
				FrequencyHz: o.cfg.RecordFreq,
				CallGraph:   true,
				SystemWide:  true,
				ExcludeSelf: o.cfg.RecordNoSelf,
			},
		})
		if err != nil {
			return nil, nil, err
		}
		plans = append(plans, plan)
	}

	if o.cfg.StatOn() {
		evs, warn, err := events.Resolve(o.cfg.StatEvents, events.Counting, o.cfg.SafeEventLimit)
		if err != nil {
			return nil, nil, err
		}
		if warn != nil {
			warnings = append(warnings, warn.String())
		}
		scope, err := cpuscope.Resolve(o.cfg.StatCpus, maxCpu)
		if err != nil {
			return nil, nil, err
		}
		plan, err := runplan.Reconcile(runplan.SessionSpec{
			Type:            runplan.SessionStat,
			Events:          evs,
			DurationSeconds: o.cfg.StatDuration(),
			Workload:        o.cfg.StatWork,
			Scope:           scope,
			Flags: runplan.Flags{
				SystemWide:   true,
				AllThreads:   o.cfg.StatPerCpu,
				ExcludeSelf:  o.cfg.StatNoSelf,
				CountDeltaMs: o.cfg.StatDeltas,
			},
		})
		if err != nil {
			return nil, nil, err
		}
		plans = append(plans, plan)
	}

	if o.cfg.RecordNoSelf || o.cfg.StatNoSelf {
		// perf has no portable --exclude-pid; the flag is recorded in the
		// plan but system-wide sessions still observe this process.
		warnings = append(warnings, "exclude_self requested but perf cannot exclude a single pid; own process remains visible")
	}

	return plans, warnings, nil
}

// createRunDir creates a unique per-run directory. The uuid suffix keeps
// same-second reruns apart.
func (o *Orchestrator) createRunDir() (string, error) {
	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("perf_run_%s_%s", stamp, uuid.NewString()[:8])
	dir := filepath.Join(o.cfg.OutputDirectory, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// annotateResults renders annotation for completed sampling sessions when
// enabled. Annotation failure degrades the run, it never fails it.
func (o *Orchestrator) annotateResults(ctx context.Context, results *aggregate.ResultSet) {
	if !o.cfg.UsePerfAnnotation {
		return
	}

	annotator := o.opts.Annotator
	if annotator == nil {
		annotator = &annotate.Renderer{Log: o.log.With().Str("component", "annotate").Logger()}
	}

	for _, res := range results.Results() {
		if res.Type != runplan.SessionRecord || res.State != scheduler.StateCompleted {
			continue
		}
		outPath := filepath.Join(filepath.Dir(res.ArtifactPath), "perf_annotate.txt")
		if err := annotator.Render(ctx, res.ArtifactPath, outPath); err != nil {
			o.log.Warn().Err(err).Uint64("session", res.SessionID).Msg("annotation failed, continuing")
		}
	}
}

// summarize logs every session's terminal state so partial success is
// distinguishable from total failure.
func (o *Orchestrator) summarize(report *Report) {
	if report.Results == nil {
		return
	}
	for _, res := range report.Results.Results() {
		var ev *zerolog.Event
		switch res.State {
		case scheduler.StateFailed:
			ev = o.log.Error()
		case scheduler.StateCancelled:
			ev = o.log.Warn()
		default:
			ev = o.log.Info()
		}
		ev.Uint64("session", res.SessionID).
			Str("type", string(res.Type)).
			Str("mode", res.Mode.String()).
			Str("state", res.State.String()).
			Str("cause", res.Cause).
			Dur("elapsed", res.Elapsed).
			Msg("session summary")
	}

	completed, failed, cancelled := report.Results.Counts()
	o.log.Info().
		Int("completed", completed).
		Int("failed", failed).
		Int("cancelled", cancelled).
		Str("dir", report.RunDir).
		Msg("measurement run finished")
}
