package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"taskrun/internal/app/executor"
	"taskrun/internal/app/producer"
	"taskrun/internal/domain/task"
	"taskrun/internal/runner/docker"
	"taskrun/internal/template"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in sample task catalogue in Docker",
	Long: `Run a small catalogue of sample R tasks through the Docker runner and
print each result. Useful as a smoke test of the Docker setup without a broker
or task files.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	runner, err := docker.New(dockerConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			log.Printf("warning: failed to close runner: %v", cerr)
		}
	}()

	source := producer.NewService()
	defer source.Close()

	service := executor.NewService(executor.NewAdapter(runner, template.New()))
	return service.ExecuteFromSource(cmd.Context(), source, 0, 1, func(report task.RunReport) {
		if report.Err != nil {
			log.Printf("task %q failed: %v", report.Task.ID, report.Err)
			return
		}
		printResult(report.Task.ID, report.Result)
	})
}
