package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"taskrun/internal/domain/task"
)

func (r *Runner) copyFiles(ctx context.Context, containerID string, files map[string]string) error {
	if len(files) == 0 {
		return nil
	}

	reader, err := makeArchive(files)
	if err != nil {
		return err
	}

	return r.cli.CopyToContainer(ctx, containerID, r.cfg.Workdir, reader, types.CopyToContainerOptions{AllowOverwriteDirWithFile: true})
}

func makeArchive(files map[string]string) (io.Reader, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	now := time.Now()
	for _, name := range names {
		data := []byte(files[name])
		header := &tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: now,
		}

		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write(data); err != nil {
			return nil, fmt.Errorf("write tar contents: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar writer: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

// captureOutputs copies the container workdir archive back to the host and
// stores every regular file matching one of the declared glob patterns under
// a fresh directory beneath the configured output root.
func (r *Runner) captureOutputs(ctx context.Context, containerID string, patterns []string) (map[string]string, error) {
	copyCtx := ctx
	if copyCtx.Err() != nil {
		copyCtx = context.Background()
	}

	reader, _, err := r.cli.CopyFromContainer(copyCtx, containerID, r.cfg.Workdir)
	if err != nil {
		return nil, fmt.Errorf("copy from container: %w", err)
	}
	defer reader.Close()

	outRoot, err := os.MkdirTemp(r.cfg.OutputDir, "taskrun-outputs-")
	if err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	captured := make(map[string]string)
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		relative := stripArchiveRoot(header.Name)
		if relative == "" || !matchesAny(patterns, relative) {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read file contents: %w", err)
		}

		hostPath := filepath.Join(outRoot, filepath.FromSlash(relative))
		if err := os.MkdirAll(filepath.Dir(hostPath), 0o755); err != nil {
			return nil, fmt.Errorf("create output subdirectory: %w", err)
		}
		if err := os.WriteFile(hostPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("write output file: %w", err)
		}

		captured[relative] = hostPath
	}

	return captured, nil
}

// stripArchiveRoot removes the leading directory element Docker prepends to
// CopyFromContainer archives.
func stripArchiveRoot(name string) string {
	name = strings.TrimPrefix(path.Clean(name), "/")
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

func matchesAny(patterns []string, relative string) bool {
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, relative); err == nil && ok {
			return true
		}
	}
	return false
}

func (r *Runner) handleTimeLimit(containerID string, start time.Time) (*task.Result, error) {
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()

	if err := r.cli.ContainerStop(stopCtx, containerID, container.StopOptions{}); err != nil && !client.IsErrNotFound(err) {
		return nil, fmt.Errorf("stop container after time limit: %w", err)
	}

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWait()

	status, waitErr := r.waitForExit(waitCtx, containerID)
	if waitErr != nil && !errors.Is(waitErr, context.DeadlineExceeded) && !client.IsErrNotFound(waitErr) {
		return nil, fmt.Errorf("wait for container after time limit: %w", waitErr)
	}

	stdout, stderr, err := r.fetchLogs(context.Background(), containerID)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	exitCode := int64(-1)
	if status != nil {
		exitCode = status.StatusCode
	}

	return &task.Result{
		Status:   task.StatusTimeLimit,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

func (r *Runner) waitForExit(ctx context.Context, containerID string) (*container.WaitResponse, error) {
	statusCh, errCh := r.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return nil, fmt.Errorf("container error: %s", status.Error.Message)
		}
		return &status, nil
	case err := <-errCh:
		return nil, fmt.Errorf("wait for container: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for container: %w", ctx.Err())
	}
}

func (r *Runner) fetchLogs(ctx context.Context, containerID string) (stdout, stderr string, err error) {
	logs, err := r.cli.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", "", err
	}
	defer logs.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, logs); err != nil {
		return "", "", err
	}

	return stdoutBuf.String(), stderrBuf.String(), nil
}
