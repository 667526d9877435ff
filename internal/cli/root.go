// Package cli wires the perfpilot command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/perfpilot/perfpilot/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "perfpilot",
	Short: "perfpilot - orchestrated perf measurement sessions",
	Long: `Run repeatable perf measurement sessions from a declarative YAML config.

perfpilot sequences sampling (perf record) and counting (perf stat) sessions
so their results stay comparable: sessions run one at a time, each session's
termination is either a fixed duration or a workload's natural exit, and
every session's artifacts land in a per-run output directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("perfpilot version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
