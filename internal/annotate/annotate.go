// Package annotate renders human-readable annotation for sampling artifacts
// by delegating to perf annotate. It never inspects artifact content itself.
package annotate

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	perrors "github.com/perfpilot/perfpilot/internal/errors"
)

// Renderer runs perf annotate over a sampling artifact.
type Renderer struct {
	// Log receives invocation diagnostics.
	Log zerolog.Logger
	// PerfPath overrides the perf binary location. Empty means $PATH lookup.
	PerfPath string
}

// Render annotates the perf.data at artifactPath into outPath.
func (r *Renderer) Render(ctx context.Context, artifactPath, outPath string) error {
	perfPath := r.PerfPath
	if perfPath == "" {
		found, err := exec.LookPath("perf")
		if err != nil {
			return fmt.Errorf("perf binary not found on PATH: %w", err)
		}
		perfPath = found
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create annotation output: %w", err)
	}
	defer perrors.DeferClose(r.Log, out, "failed to close annotation output")

	cmd := exec.CommandContext(ctx, perfPath, "annotate", "-i", artifactPath)
	cmd.Stdout = out

	r.Log.Info().Str("artifact", artifactPath).Str("output", outPath).Msg("running perf annotate")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("perf annotate failed: %w", err)
	}
	return nil
}
