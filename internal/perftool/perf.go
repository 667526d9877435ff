package perftool

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/perfpilot/perfpilot/internal/runplan"
)

// PerfInvoker launches the real perf binary.
type PerfInvoker struct {
	// Log receives invocation diagnostics.
	Log zerolog.Logger
	// PerfPath overrides the perf binary location. Empty means $PATH lookup.
	PerfPath string
}

// Start launches perf for the given plan. The process runs in its own
// process group so that Stop can signal perf and the measured child together.
func (p *PerfInvoker) Start(ctx context.Context, plan runplan.RunPlan, paths Paths) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perfPath := p.PerfPath
	if perfPath == "" {
		found, err := exec.LookPath("perf")
		if err != nil {
			return nil, &ToolInvocationError{Op: "lookup", Err: err}
		}
		perfPath = found
	}

	// In workload mode perf execs the workload itself; a missing workload
	// binary would otherwise surface as an opaque perf exit status.
	if wl, ok := plan.Mode.(runplan.WorkloadMode); ok {
		argv := strings.Fields(wl.Command)
		if _, err := exec.LookPath(argv[0]); err != nil {
			return nil, &WorkloadLaunchError{Command: wl.Command, Err: err}
		}
	}

	args := BuildArgs(plan, paths.Artifact)

	logFile, err := os.Create(paths.Log)
	if err != nil {
		return nil, &ToolInvocationError{Op: string(plan.Type), Err: err}
	}

	cmd := exec.Command(perfPath, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	p.Log.Info().
		Str("type", string(plan.Type)).
		Str("mode", plan.Mode.String()).
		Strs("argv", append([]string{perfPath}, args...)).
		Msg("launching perf")

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return nil, &ToolInvocationError{Op: string(plan.Type), Err: err}
	}

	h := &processHandle{
		pgid:   cmd.Process.Pid,
		exited: make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		_ = logFile.Close()
		h.mu.Lock()
		if err != nil {
			h.waitErr = &ToolInvocationError{Op: string(plan.Type), Err: err}
		}
		h.mu.Unlock()
		close(h.exited)
	}()

	return h, nil
}

// processHandle tracks a running perf process group.
type processHandle struct {
	pgid     int
	exited   chan struct{}
	mu       sync.Mutex
	waitErr  error
	stopOnce sync.Once
}

func (h *processHandle) Done() <-chan struct{} { return h.exited }

func (h *processHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

// Stop sends SIGINT to the process group; perf flushes its output on SIGINT.
// If the group is still alive after the grace period it is SIGKILLed.
func (h *processHandle) Stop(grace time.Duration) error {
	var sigErr error
	h.stopOnce.Do(func() {
		sigErr = unix.Kill(-h.pgid, unix.SIGINT)
		go func() {
			select {
			case <-h.exited:
			case <-time.After(grace):
				_ = unix.Kill(-h.pgid, unix.SIGKILL)
			}
		}()
	})
	return sigErr
}
