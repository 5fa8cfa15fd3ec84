package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"taskrun/internal/domain/task"
	"taskrun/internal/ports"
)

// Runner executes command sequences as host processes rooted in a staging
// directory. Staging-directory isolation between concurrent runs is the
// caller's responsibility: construct one Runner per run scope.
type Runner struct {
	stagingDir    string
	defaultLimits task.RunLimits
}

var _ ports.CommandRunner = (*Runner)(nil)

// New constructs a Runner rooted at stagingDir. The directory is created if
// it does not exist.
func New(stagingDir string, defaultLimits task.RunLimits) (*Runner, error) {
	if stagingDir == "" {
		return nil, fmt.Errorf("local runner: staging directory must be set")
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("local runner: create staging directory: %w", err)
	}
	return &Runner{stagingDir: stagingDir, defaultLimits: defaultLimits}, nil
}

// ResolveAbsolutePath maps a staging-relative path to the absolute host path
// the spawned process will see.
func (r *Runner) ResolveAbsolutePath(relative string, targetOS task.TargetOS) string {
	joined := filepath.Join(r.stagingDir, filepath.FromSlash(relative))
	if targetOS == task.OSWindows {
		return strings.ReplaceAll(joined, "/", `\`)
	}
	return filepath.ToSlash(joined)
}

// Run writes the spec's input files into the staging directory, executes the
// commands through a shell and captures output files matching the declared
// patterns in place.
func (r *Runner) Run(ctx context.Context, spec ports.RunSpec) (*task.Result, error) {
	if len(spec.Commands) == 0 {
		return nil, fmt.Errorf("local runner: no commands to execute")
	}

	if err := r.stageFiles(spec.InputFiles); err != nil {
		return nil, err
	}

	limits := r.effectiveLimits(spec.Limits)

	runCtx := ctx
	var cancel context.CancelFunc
	if limits.TimeLimit > 0 {
		runCtx, cancel = context.WithTimeout(ctx, limits.TimeLimit)
		defer cancel()
	}

	name, args := shellArgs(spec.Commands, spec.TargetOS)
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = r.stagingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &task.Result{
		Status:   task.StatusSuccess,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	switch {
	case err == nil:
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.Status = task.StatusTimeLimit
		result.ExitCode = -1
		return result, nil
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("local runner: run commands: %w", err)
		}
		result.Status = task.StatusFailed
		result.ExitCode = int64(exitErr.ExitCode())
		return result, nil
	}

	if len(spec.OutputPatterns) > 0 {
		outputs, err := r.captureOutputs(spec.OutputPatterns)
		if err != nil {
			return nil, fmt.Errorf("local runner: capture output files: %w", err)
		}
		result.OutputFiles = outputs
	}

	return result, nil
}

// Close is a no-op; the staging directory lifecycle belongs to the caller.
func (r *Runner) Close() error {
	return nil
}

func (r *Runner) stageFiles(files map[string]string) error {
	for relative, content := range files {
		target := filepath.Join(r.stagingDir, filepath.FromSlash(relative))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("local runner: create staging subdirectory: %w", err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return fmt.Errorf("local runner: stage %s: %w", relative, err)
		}
	}
	return nil
}

func (r *Runner) captureOutputs(patterns []string) (map[string]string, error) {
	captured := make(map[string]string)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(r.stagingDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			relative, err := filepath.Rel(r.stagingDir, match)
			if err != nil {
				return nil, err
			}
			captured[filepath.ToSlash(relative)] = match
		}
	}
	return captured, nil
}

func (r *Runner) effectiveLimits(request task.RunLimits) task.RunLimits {
	effective := r.defaultLimits
	if request.TimeLimit > 0 {
		effective.TimeLimit = request.TimeLimit
	}
	if request.MemoryLimitBytes > 0 {
		effective.MemoryLimitBytes = request.MemoryLimitBytes
	}
	return effective
}

func shellArgs(commands task.CommandSequence, targetOS task.TargetOS) (string, []string) {
	if targetOS == task.OSWindows {
		return "cmd", []string{"/c", strings.Join(commands, " && ")}
	}
	return "/bin/sh", []string{"-c", "set -e\n" + strings.Join(commands, "\n")}
}
