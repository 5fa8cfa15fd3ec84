package ports

import (
	"context"

	"taskrun/internal/domain/task"
)

// ReportPublisher publishes task run reports to an external system.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report task.RunReport) error
	Close() error
}
