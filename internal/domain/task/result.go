package task

import "time"

// Status classifies the outcome of a task run.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusWarning   Status = "warning"
	StatusFailed    Status = "failed"
	StatusTimeLimit Status = "time_limit"
)

// Result captures the outcome of executing a task. It is created by the
// runner, handed to the caller and never mutated after return.
type Result struct {
	Status   Status
	ExitCode int64
	Stdout   string
	Stderr   string
	// OutputFiles maps a captured file's staging-relative name to the host
	// path it was stored under.
	OutputFiles map[string]string
	Duration    time.Duration
}

// RunReport pairs a task with the outcome of executing it.
type RunReport struct {
	Task   Config
	Result *Result
	Err    error
}
