// Package perfcap probes the host for perf availability and the kernel
// settings that gate performance monitoring.
package perfcap

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const paranoidPath = "/proc/sys/kernel/perf_event_paranoid"

// Capabilities describes what the host permits.
type Capabilities struct {
	// PerfPath is the resolved perf binary location.
	PerfPath string
	// ParanoidLevel is the kernel's perf_event_paranoid setting.
	// -1 permits everything; 2 restricts unprivileged users to their own
	// user-space measurements; >2 blocks them entirely.
	ParanoidLevel int
	// KernelVersion is the running kernel release.
	KernelVersion string
}

// SystemWideAllowed reports whether an unprivileged process may observe all
// CPUs. Root bypasses the paranoid setting.
func (c Capabilities) SystemWideAllowed() bool {
	return c.ParanoidLevel <= 0 || os.Geteuid() == 0
}

// Check probes the host. A missing perf binary is an error; an unreadable
// paranoid setting is not (the level defaults to 2, the common kernel default).
func Check() (Capabilities, error) {
	perfPath, err := exec.LookPath("perf")
	if err != nil {
		return Capabilities{}, fmt.Errorf("perf binary not found on PATH: %w", err)
	}

	return Capabilities{
		PerfPath:      perfPath,
		ParanoidLevel: paranoidLevel(),
		KernelVersion: kernelVersion(),
	}, nil
}

func paranoidLevel() int {
	data, err := os.ReadFile(paranoidPath)
	if err != nil {
		return 2
	}
	level, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 2
	}
	return level
}

// kernelVersion reads the kernel release from /proc/version.
func kernelVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return "unknown"
	}

	// Parse release from "Linux version 5.15.0-xxx ...".
	version := string(data)
	if idx := strings.Index(version, "Linux version "); idx >= 0 {
		version = version[idx+14:]
		if idx := strings.Index(version, " "); idx >= 0 {
			version = version[:idx]
		}
		return version
	}

	return "unknown"
}

// Renice lowers the orchestrator's own scheduling priority to the given
// niceness so it perturbs the measurement as little as possible.
func Renice(niceness int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, niceness); err != nil {
		return fmt.Errorf("failed to set niceness %d: %w", niceness, err)
	}
	return nil
}
