package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"taskrun/internal/domain/task"
)

type queueSource struct {
	mu    sync.Mutex
	tasks []task.Config
	err   error
}

func (q *queueSource) NextTask(ctx context.Context) (task.Config, error) {
	select {
	case <-ctx.Done():
		return task.Config{}, ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		if q.err != nil {
			return task.Config{}, q.err
		}
		return task.Config{}, io.EOF
	}

	next := q.tasks[0]
	q.tasks = q.tasks[1:]
	return next, nil
}

func (q *queueSource) Close() error { return nil }

func collectReports() (func(task.RunReport), func() []task.RunReport) {
	var mu sync.Mutex
	var reports []task.RunReport
	record := func(r task.RunReport) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
	}
	snapshot := func() []task.RunReport {
		mu.Lock()
		defer mu.Unlock()
		return append([]task.RunReport{}, reports...)
	}
	return record, snapshot
}

func TestExecuteFromSourceRunsUntilEOF(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	service := NewService(NewAdapter(runner, identityRenderer{}))
	source := &queueSource{tasks: []task.Config{
		{ID: "one", Script: "print(1)"},
		{ID: "two", Script: "print(2)"},
	}}

	record, snapshot := collectReports()
	if err := service.ExecuteFromSource(context.Background(), source, 0, 2, record); err != nil {
		t.Fatalf("ExecuteFromSource returned error: %v", err)
	}

	reports := snapshot()
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for _, report := range reports {
		if report.Err != nil {
			t.Fatalf("task %q failed: %v", report.Task.ID, report.Err)
		}
		if report.Result == nil || report.Result.Status != task.StatusSuccess {
			t.Fatalf("task %q: unexpected result %+v", report.Task.ID, report.Result)
		}
	}
}

func TestExecuteFromSourceHonorsMaxTasks(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	service := NewService(NewAdapter(runner, identityRenderer{}))
	source := &queueSource{tasks: []task.Config{
		{ID: "one", Script: "print(1)"},
		{ID: "two", Script: "print(2)"},
		{ID: "three", Script: "print(3)"},
	}}

	record, snapshot := collectReports()
	if err := service.ExecuteFromSource(context.Background(), source, 2, 1, record); err != nil {
		t.Fatalf("ExecuteFromSource returned error: %v", err)
	}

	if got := len(snapshot()); got != 2 {
		t.Fatalf("expected 2 reports, got %d", got)
	}
}

func TestExecuteFromSourcePropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	service := NewService(NewAdapter(runner, identityRenderer{}))
	source := &queueSource{err: fmt.Errorf("broker unreachable")}

	err := service.ExecuteFromSource(context.Background(), source, 0, 1, nil)
	if err == nil {
		t.Fatal("expected error from source")
	}
}

func TestExecuteFromSourceReportCarriesFailedResult(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.result = &task.Result{Status: task.StatusFailed, ExitCode: 2, Stderr: "boom"}
	service := NewService(NewAdapter(runner, identityRenderer{}))
	source := &queueSource{tasks: []task.Config{{ID: "bad", Script: "stop('boom')"}}}

	record, snapshot := collectReports()
	if err := service.ExecuteFromSource(context.Background(), source, 0, 1, record); err != nil {
		t.Fatalf("ExecuteFromSource returned error: %v", err)
	}

	reports := snapshot()
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	report := reports[0]
	if report.Err == nil {
		t.Fatal("expected report error for failed run")
	}
	if report.Result == nil || report.Result.Stderr != "boom" {
		t.Fatalf("expected captured streams on report, got %+v", report.Result)
	}
}

func TestExecuteFromSourceStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	service := NewService(NewAdapter(runner, identityRenderer{}))
	source := &queueSource{tasks: []task.Config{{ID: "one", Script: "print(1)"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.ExecuteFromSource(ctx, source, 0, 1, nil); err != nil {
		t.Fatalf("expected graceful stop on cancellation, got %v", err)
	}
}
