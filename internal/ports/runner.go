package ports

import (
	"context"

	"taskrun/internal/domain/task"
)

// RunSpec is the fully assembled input handed to a CommandRunner: the command
// sequence, the files to stage before execution and the patterns selecting
// which produced files to capture afterward.
type RunSpec struct {
	Commands       task.CommandSequence
	InputFiles     map[string]string
	OutputPatterns []string
	ContainerImage string
	TargetOS       task.TargetOS
	Limits         task.RunLimits
}

// CommandRunner executes a command sequence in some environment: a local
// process, a container or a remote worker. Callers are written against this
// interface only and never branch on the concrete variant.
type CommandRunner interface {
	// ResolveAbsolutePath maps a staging-relative path to the absolute path
	// the spawned process will see, honoring the target OS conventions.
	ResolveAbsolutePath(relative string, targetOS task.TargetOS) string

	// Run stages the input files, executes the commands in order and returns
	// the captured result. Cancellation and timeouts are honored through ctx
	// and spec.Limits.
	Run(ctx context.Context, spec RunSpec) (*task.Result, error)

	Close() error
}
