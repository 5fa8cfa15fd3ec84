package task

import "time"

// RunLimits describes optional resource boundaries for a single task run.
//
// A zero value RunLimits imposes no additional restrictions.
type RunLimits struct {
	// TimeLimit caps how long the task is allowed to run. Zero means no limit.
	TimeLimit time.Duration
	// MemoryLimitBytes caps the runner memory usage in bytes. Zero means no limit.
	MemoryLimitBytes int64
}
