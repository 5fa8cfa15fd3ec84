package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskrun/internal/app/executor"
	"taskrun/internal/domain/task"
	"taskrun/internal/ports"
	"taskrun/internal/runner/docker"
	"taskrun/internal/runner/local"
	"taskrun/internal/taskdef"
	"taskrun/internal/template"
)

var (
	runRunnerKind string
	runStagingDir string
	runPermissive bool
)

var runCmd = &cobra.Command{
	Use:   "run <task.yaml>",
	Short: "Execute a single task definition",
	Long: `Execute a single YAML task definition and print its result.

The script is rendered against the definition's vars, staged next to any
declared input files and executed through the selected runner. Captured
output files are written to a temporary directory and their host paths are
printed after the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runRunnerKind, "runner", "docker", "runner backend: docker or local")
	runCmd.Flags().StringVar(&runStagingDir, "staging-dir", "", "staging directory for the local runner (defaults to a fresh temp dir)")
	runCmd.Flags().BoolVar(&runPermissive, "permissive", false, "render unresolved references as empty strings instead of failing")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := taskdef.Load(args[0])
	if err != nil {
		return err
	}

	runner, err := buildRunner()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			log.Printf("warning: failed to close runner: %v", cerr)
		}
	}()

	renderer := ports.Renderer(template.New())
	if runPermissive {
		renderer = template.NewPermissive()
	}

	adapter := executor.NewAdapter(runner, renderer)

	result, err := adapter.Execute(cmd.Context(), cfg)
	if err != nil {
		var execErr *task.ExecutionError
		if errors.As(err, &execErr) && execErr.Result != nil {
			printResult(cfg.ID, execErr.Result)
		}
		return err
	}

	printResult(cfg.ID, result)
	return nil
}

func buildRunner() (ports.CommandRunner, error) {
	switch runRunnerKind {
	case "docker":
		return docker.New(dockerConfigFromEnv())
	case "local":
		stagingDir := runStagingDir
		if stagingDir == "" {
			dir, err := os.MkdirTemp("", "taskrun-")
			if err != nil {
				return nil, fmt.Errorf("create staging directory: %w", err)
			}
			stagingDir = dir
		}
		return local.New(stagingDir, task.RunLimits{
			TimeLimit:        parseDuration(os.Getenv("RUNNER_TIME_LIMIT"), 0),
			MemoryLimitBytes: parseBytes(os.Getenv("RUNNER_MEMORY_LIMIT")),
		})
	default:
		return nil, fmt.Errorf("unknown runner %q (expected docker or local)", runRunnerKind)
	}
}

func printResult(id string, result *task.Result) {
	fmt.Printf("task %q finished with status %s (exit %d) after %s\n",
		id, result.Status, result.ExitCode, result.Duration.Round(time.Millisecond))
	if result.Stdout != "" {
		fmt.Print(result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(os.Stderr, result.Stderr)
	}
	for name, path := range result.OutputFiles {
		fmt.Printf("captured %s -> %s\n", name, path)
	}
}
