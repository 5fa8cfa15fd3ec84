package task

import "fmt"

// ConfigError reports invalid or missing required configuration. It is
// detected before execution starts and is never retriable.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid task config: %s: %s", e.Field, e.Reason)
}

// RenderError reports a template resolution failure. Ref identifies the
// placeholder that could not be resolved.
type RenderError struct {
	Ref string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render script: unresolved reference %q: %v", e.Ref, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ExecutionError reports a non-zero exit or a runner-level failure. When the
// run produced output before failing, Result carries the captured streams and
// exit code.
type ExecutionError struct {
	Result *Result
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Result != nil {
		return fmt.Sprintf("task execution failed with exit code %d", e.Result.ExitCode)
	}
	return fmt.Sprintf("task execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
