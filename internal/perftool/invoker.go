// Package perftool invokes the external perf binary for resolved run plans.
// It owns argument construction and process lifetime primitives; it knows
// nothing about scheduling policy.
package perftool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/perfpilot/perfpilot/internal/runplan"
)

// Paths names the filesystem locations a session writes to. The scheduler
// guarantees these are unique per session.
type Paths struct {
	// Artifact receives the tool's measurement output (perf.data, stat text).
	Artifact string
	// Log receives the tool's captured stdout/stderr.
	Log string
}

// Handle tracks a launched measurement process.
type Handle interface {
	// Done is closed when the process has exited.
	Done() <-chan struct{}
	// Err returns the process exit error. Only valid once Done is closed.
	Err() error
	// Stop requests a graceful shutdown (SIGINT to the process group) and
	// escalates to SIGKILL if the process outlives the grace period.
	Stop(grace time.Duration) error
}

// Invoker launches the external measurement tool for a run plan.
type Invoker interface {
	Start(ctx context.Context, plan runplan.RunPlan, paths Paths) (Handle, error)
}

// WorkloadLaunchError reports a workload command that could not be launched.
type WorkloadLaunchError struct {
	Command string
	Err     error
}

func (e *WorkloadLaunchError) Error() string {
	return fmt.Sprintf("failed to launch workload %q: %v", e.Command, e.Err)
}

func (e *WorkloadLaunchError) Unwrap() error { return e.Err }

// ToolInvocationError reports a failure launching or running the tool itself.
type ToolInvocationError struct {
	Op  string
	Err error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("perf %s failed: %v", e.Op, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

// IsTransient reports whether a launch failure is worth retrying. The
// counter subsystem returns EBUSY/EAGAIN while another consumer holds it.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, unix.EBUSY) || errors.Is(err, unix.EAGAIN) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "device or resource busy") ||
		strings.Contains(msg, "resource temporarily unavailable")
}
