package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	typesimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"taskrun/internal/domain/task"
	"taskrun/internal/ports"
)

const defaultWorkdir = "/tmp"

// Runner executes command sequences inside Docker containers via the
// official SDK.
type Runner struct {
	cli dockerClient
	cfg Config

	mu     sync.Mutex
	pulled map[string]struct{}
}

var _ ports.CommandRunner = (*Runner)(nil)

// New constructs a Runner using the supplied configuration.
func New(cfg Config) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker runner: create client: %w", err)
	}
	return newRunnerWithClient(cli, cfg), nil
}

func newRunnerWithClient(cli dockerClient, cfg Config) *Runner {
	if cfg.Workdir == "" {
		cfg.Workdir = defaultWorkdir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}
	cfg.DefaultLimits = normalizeLimits(cfg.DefaultLimits)

	return &Runner{
		cli:    cli,
		cfg:    cfg,
		pulled: make(map[string]struct{}),
	}
}

// ResolveAbsolutePath maps a staging-relative path to the absolute path a
// process inside the container will see.
func (r *Runner) ResolveAbsolutePath(relative string, targetOS task.TargetOS) string {
	joined := path.Join(r.cfg.Workdir, relative)
	if targetOS == task.OSWindows {
		return strings.ReplaceAll(joined, "/", `\`)
	}
	return joined
}

// Run stages the spec's input files into a fresh container, executes the
// command sequence through a shell and captures the declared output files.
func (r *Runner) Run(ctx context.Context, spec ports.RunSpec) (*task.Result, error) {
	if len(spec.Commands) == 0 {
		return nil, fmt.Errorf("docker runner: no commands to execute")
	}
	if spec.ContainerImage == "" {
		return nil, fmt.Errorf("docker runner: container image must be set")
	}

	if err := r.ensureImage(ctx, spec.ContainerImage); err != nil {
		return nil, err
	}

	limits := r.effectiveLimits(spec.Limits)

	containerID, cleanup, err := r.createContainer(ctx, spec.ContainerImage, limits, shellInvocation(spec.Commands, spec.TargetOS))
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := r.copyFiles(ctx, containerID, spec.InputFiles); err != nil {
		return nil, fmt.Errorf("stage input files: %w", err)
	}

	start := time.Now()
	if err := r.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	waitCtx := ctx
	var cancel context.CancelFunc
	if limits.TimeLimit > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, limits.TimeLimit)
	}
	status, err := r.waitForExit(waitCtx, containerID)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && limits.TimeLimit > 0 && ctx.Err() == nil {
			return r.handleTimeLimit(containerID, start)
		}
		return nil, err
	}

	inspectCtx := ctx
	if inspectCtx.Err() != nil {
		inspectCtx = context.Background()
	}
	inspect, err := r.cli.ContainerInspect(inspectCtx, containerID)
	if err != nil {
		return nil, fmt.Errorf("inspect container: %w", err)
	}

	logCtx := ctx
	if logCtx.Err() != nil {
		logCtx = context.Background()
	}
	stdout, stderr, err := r.fetchLogs(logCtx, containerID)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	result := &task.Result{
		Status:   task.StatusSuccess,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: status.StatusCode,
		Duration: time.Since(start),
	}
	if result.ExitCode != 0 || (inspect.State != nil && inspect.State.OOMKilled) {
		result.Status = task.StatusFailed
	}

	if result.Status == task.StatusSuccess && len(spec.OutputPatterns) > 0 {
		outputs, err := r.captureOutputs(ctx, containerID, spec.OutputPatterns)
		if err != nil {
			return nil, fmt.Errorf("capture output files: %w", err)
		}
		result.OutputFiles = outputs
	}

	return result, nil
}

// Close releases the Docker client.
func (r *Runner) Close() error {
	return r.cli.Close()
}

func (r *Runner) ensureImage(ctx context.Context, ref string) error {
	r.mu.Lock()
	_, done := r.pulled[ref]
	r.mu.Unlock()
	if done {
		return nil
	}

	reader, err := r.cli.ImagePull(ctx, ref, typesimage.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("consume pull output for %s: %w", ref, err)
	}

	r.mu.Lock()
	r.pulled[ref] = struct{}{}
	r.mu.Unlock()
	return nil
}

func (r *Runner) effectiveLimits(request task.RunLimits) task.RunLimits {
	effective := r.cfg.DefaultLimits
	overrides := normalizeLimits(request)

	if overrides.TimeLimit > 0 {
		effective.TimeLimit = overrides.TimeLimit
	}
	if overrides.MemoryLimitBytes > 0 {
		effective.MemoryLimitBytes = overrides.MemoryLimitBytes
	}

	return effective
}

func (r *Runner) createContainer(ctx context.Context, image string, limits task.RunLimits, cmd []string) (string, func(), error) {
	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			NanoCPUs: 1_000_000_000,
		},
	}
	if limits.MemoryLimitBytes > 0 {
		hostConfig.Resources.Memory = limits.MemoryLimitBytes
		hostConfig.Resources.MemorySwap = limits.MemoryLimitBytes
	}

	resp, err := r.cli.ContainerCreate(
		ctx,
		&container.Config{
			Image:        image,
			Cmd:          cmd,
			AttachStdout: true,
			AttachStderr: true,
			WorkingDir:   r.cfg.Workdir,
		},
		hostConfig,
		nil,
		nil,
		"",
	)
	if err != nil {
		return "", nil, fmt.Errorf("create container: %w", err)
	}

	cleanup := func() {
		_ = r.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}

	return resp.ID, cleanup, nil
}

// shellInvocation renders the command sequence as a single shell call so the
// commands run in order within one container.
func shellInvocation(commands task.CommandSequence, targetOS task.TargetOS) []string {
	if targetOS == task.OSWindows {
		return []string{"cmd", "/c", strings.Join(commands, " && ")}
	}
	return []string{"/bin/sh", "-c", "set -e\n" + strings.Join(commands, "\n")}
}
