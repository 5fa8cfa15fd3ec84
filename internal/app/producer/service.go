package producer

import (
	"context"
	"io"
	"sync"

	"taskrun/internal/domain/task"
	"taskrun/internal/ports"
)

// Service implements ports.TaskSource by returning a predefined catalogue of
// R tasks. It is used for demos and smoke testing without a broker.
type Service struct {
	mu    sync.Mutex
	tasks []task.Config
	index int
}

var _ ports.TaskSource = (*Service)(nil)

// NewService builds a producer with the default task catalogue.
func NewService() *Service {
	return &Service{
		tasks: []task.Config{
			{
				ID:     "hello",
				Script: "print('Hello from R inside Docker!')\n",
			},
			{
				ID: "dates",
				Script: "library(lubridate)\n" +
					"ymd(\"20100604\")\n" +
					"mdy(\"06-04-2011\")\n" +
					"dmy(\"04/06/2012\")\n",
				BeforeCommands: []string{
					`Rscript -e 'install.packages("lubridate")'`,
				},
			},
		},
	}
}

// NextTask returns the next catalogue entry, or io.EOF once exhausted.
func (s *Service) NextTask(ctx context.Context) (task.Config, error) {
	select {
	case <-ctx.Done():
		return task.Config{}, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.tasks) {
		return task.Config{}, io.EOF
	}

	next := s.tasks[s.index]
	s.index++
	return next, nil
}

// Close implements ports.TaskSource; the catalogue holds no resources.
func (s *Service) Close() error {
	return nil
}
