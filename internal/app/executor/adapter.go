package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskrun/internal/domain/task"
	"taskrun/internal/ports"
)

// Adapter turns a task config into a single delegated execution: it renders
// the inline script, stages it alongside the caller's input files, assembles
// the command sequence and hands everything to the injected runner.
type Adapter struct {
	runner   ports.CommandRunner
	renderer ports.Renderer
}

// NewAdapter constructs an Adapter from its two collaborators.
func NewAdapter(runner ports.CommandRunner, renderer ports.Renderer) *Adapter {
	return &Adapter{runner: runner, renderer: renderer}
}

// Execute runs one task to completion. It returns a complete result or an
// error, never a partial state; retrying is the caller's decision.
func (a *Adapter) Execute(ctx context.Context, cfg task.Config) (*task.Result, error) {
	if strings.TrimSpace(cfg.Script) == "" {
		return nil, &task.ConfigError{Field: "script", Reason: "must not be empty"}
	}

	cfg = task.ApplyDefaults(cfg)

	rendered, err := a.renderer.Render(cfg.Script, cfg.Vars)
	if err != nil {
		var renderErr *task.RenderError
		if errors.As(err, &renderErr) {
			return nil, err
		}
		return nil, &task.RenderError{Ref: "script", Err: err}
	}

	scriptRel := generatedScriptName(cfg)
	if _, exists := cfg.InputFiles[scriptRel]; exists {
		// Generated names are collision-free by construction; an occupied
		// slot means the adapter's invariant is broken, not a config error.
		panic(fmt.Sprintf("executor: generated script path %q collides with an input file", scriptRel))
	}

	files := make(map[string]string, len(cfg.InputFiles)+1)
	for name, content := range cfg.InputFiles {
		files[name] = content
	}
	files[scriptRel] = rendered

	invocation := cfg.Interpreter + " " + a.runner.ResolveAbsolutePath(scriptRel, cfg.TargetOS)
	commands := task.NewCommandSequence(cfg.BeforeCommands, invocation)

	result, err := a.runner.Run(ctx, ports.RunSpec{
		Commands:       commands,
		InputFiles:     files,
		OutputPatterns: cfg.OutputFiles,
		ContainerImage: cfg.ContainerImage,
		TargetOS:       cfg.TargetOS,
		Limits:         cfg.Limits,
	})
	if err != nil {
		return nil, &task.ExecutionError{Err: err}
	}

	if result.ExitCode != 0 || result.Status == task.StatusFailed || result.Status == task.StatusTimeLimit {
		return nil, &task.ExecutionError{Result: result}
	}

	if cfg.WarningOnStdErr && result.Stderr != "" {
		result.Status = task.StatusWarning
	} else {
		result.Status = task.StatusSuccess
	}

	return result, nil
}

func generatedScriptName(cfg task.Config) string {
	return "script-" + uuid.NewString() + task.PresetFor(cfg.Language).Extension
}
