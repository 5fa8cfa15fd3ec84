package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"taskrun/internal/domain/task"
	"taskrun/internal/ports"
)

// Service coordinates task execution pulled from a task source.
type Service struct {
	adapter *Adapter
}

// NewService constructs a Service around the provided adapter.
func NewService(adapter *Adapter) *Service {
	return &Service{adapter: adapter}
}

// ExecuteFromSource pulls tasks from the supplied source and runs them with
// bounded parallelism.
//
// If maxTasks is greater than zero the loop stops after the specified number
// of tasks has been processed. Otherwise it keeps consuming until the context
// is cancelled or the source signals completion via io.EOF.
//
// When onReport is provided it is invoked after every execution with the
// corresponding run report.
func (s *Service) ExecuteFromSource(
	ctx context.Context,
	source ports.TaskSource,
	maxTasks int,
	maxParallel int,
	onReport func(task.RunReport),
) error {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallel)
	processed := 0

	finish := func(err error) error {
		wg.Wait()
		return err
	}

	for {
		if maxTasks > 0 && processed >= maxTasks {
			return finish(nil)
		}

		cfg, err := source.NextTask(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				return finish(nil)
			}

			return finish(fmt.Errorf("get next task: %w", err))
		}

		sem <- struct{}{}
		wg.Add(1)
		processed++
		go func(cfg task.Config) {
			defer wg.Done()
			defer func() { <-sem }()

			report := s.executeTask(ctx, cfg)
			if onReport != nil {
				onReport(report)
			}
		}(cfg)
	}
}

func (s *Service) executeTask(ctx context.Context, cfg task.Config) task.RunReport {
	result, err := s.adapter.Execute(ctx, cfg)
	report := task.RunReport{
		Task:   cfg,
		Result: result,
		Err:    err,
	}

	// A failed run still carries its captured streams; surface them on the
	// report so publishers can forward them.
	if result == nil {
		var execErr *task.ExecutionError
		if errors.As(err, &execErr) && execErr.Result != nil {
			report.Result = execErr.Result
		}
	}

	return report
}
