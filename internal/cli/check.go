package cli

import (
	"github.com/spf13/cobra"

	"github.com/perfpilot/perfpilot/internal/cpuscope"
	"github.com/perfpilot/perfpilot/internal/sys/perfcap"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check host capabilities for perf measurement",
		RunE: func(cmd *cobra.Command, args []string) error {
			caps, err := perfcap.Check()
			if err != nil {
				return err
			}

			cmd.Printf("perf binary:          %s\n", caps.PerfPath)
			cmd.Printf("kernel version:       %s\n", caps.KernelVersion)
			cmd.Printf("perf_event_paranoid:  %d\n", caps.ParanoidLevel)

			if caps.SystemWideAllowed() {
				cmd.Println("system-wide sessions: allowed")
			} else {
				cmd.Println("system-wide sessions: blocked (run as root or lower perf_event_paranoid)")
			}

			if maxCpu, err := cpuscope.DetectMaxCpu(); err == nil {
				cmd.Printf("logical cpus:         %d (valid ranges: 0-%d)\n", maxCpu, maxCpu-1)
			}

			return nil
		},
	}
}
