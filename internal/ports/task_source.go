package ports

import (
	"context"

	"taskrun/internal/domain/task"
)

// TaskSource provides task configurations to an executor service. It returns
// io.EOF once no further tasks will be produced.
type TaskSource interface {
	NextTask(ctx context.Context) (task.Config, error)
	Close() error
}
