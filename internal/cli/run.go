package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/perfpilot/perfpilot/internal/config"
	"github.com/perfpilot/perfpilot/internal/logging"
	"github.com/perfpilot/perfpilot/internal/orchestrator"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		failFast   bool
		noRenice   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured measurement sessions",
		Long: `Run every enabled measurement session from the configuration file.

Sessions execute sequentially, record before stat. A failed session does not
abort the run unless --fail-fast (or fail_fast in the config) is set; the
final summary reports each session's terminal state. Ctrl-C cancels the
in-flight session, terminating any owned workload within the stop grace.

Examples:
  # Run with the default config file
  perfpilot run

  # Explicit config, abort on first failure
  perfpilot run -c bench.yaml --fail-fast`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.FailFast = failFast
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			log := logging.New(logging.Config{Level: cfg.LogLevel})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.New(log, cfg, orchestrator.Options{Renice: !noRenice})
			report, err := orch.Run(ctx)
			if err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("one or more sessions failed; see %s", report.RunDir)
			}

			cmd.Printf("Results available in %s\n", report.RunDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "example_config.yaml", "Path to YAML configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort the run on the first failed session")
	cmd.Flags().BoolVar(&noRenice, "no-renice", false, "Do not lower perfpilot's own scheduling priority")

	return cmd
}
