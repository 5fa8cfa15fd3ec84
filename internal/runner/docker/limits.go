package docker

import "taskrun/internal/domain/task"

func normalizeLimits(l task.RunLimits) task.RunLimits {
	if l.TimeLimit < 0 {
		l.TimeLimit = 0
	}
	if l.MemoryLimitBytes < 0 {
		l.MemoryLimitBytes = 0
	}
	return l
}
