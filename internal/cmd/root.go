// Package cmd implements the CLI commands for taskrun.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "taskrun",
	Short: "Scripted task execution adapter",
	Long: `Taskrun executes scripted tasks: it renders an inline script against a
variable context, stages it next to any declared input files and delegates the
assembled command sequence to a runner.

The 'run' command executes a single YAML task definition locally or in a
Docker container. The 'worker' command consumes task messages from Kafka and
publishes run reports.`,

	SilenceUsage: true,
}

// Execute runs the root command with the provided context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
