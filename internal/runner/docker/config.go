package docker

import "taskrun/internal/domain/task"

// Config describes how to create a Docker-backed command runner.
type Config struct {
	// Workdir is the in-container directory input files are staged into and
	// commands are executed from. Defaults to /tmp.
	Workdir string

	// OutputDir is the host directory captured output files are written
	// beneath. Defaults to the system temp directory.
	OutputDir string

	// DefaultLimits apply when a run spec carries no limits of its own.
	DefaultLimits task.RunLimits
}
