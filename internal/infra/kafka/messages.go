package kafka

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"taskrun/internal/domain/task"
)

const (
	messageTypeTask = "task"
	messageTypeDone = "done"
)

type taskEnvelope struct {
	Type            string            `json:"type"`
	ID              string            `json:"id"`
	Language        string            `json:"language,omitempty"`
	Script          string            `json:"script"`
	Interpreter     string            `json:"interpreter,omitempty"`
	ContainerImage  string            `json:"container_image,omitempty"`
	BeforeCommands  []string          `json:"before_commands,omitempty"`
	InputFiles      map[string]string `json:"input_files,omitempty"`
	OutputFiles     []string          `json:"output_files,omitempty"`
	WarningOnStdErr bool              `json:"warning_on_stderr,omitempty"`
	TargetOS        string            `json:"target_os,omitempty"`
	Vars            map[string]any    `json:"vars,omitempty"`
	Limits          *taskLimits       `json:"limits,omitempty"`
}

type taskLimits struct {
	TimeLimitMs      int64 `json:"time_limit_ms"`
	MemoryLimitBytes int64 `json:"memory_limit_bytes"`
}

type reportEnvelope struct {
	ID          string            `json:"id"`
	Status      task.Status       `json:"status,omitempty"`
	ExitCode    *int64            `json:"exit_code,omitempty"`
	Stdout      string            `json:"stdout,omitempty"`
	Stderr      string            `json:"stderr,omitempty"`
	DurationMs  *int64            `json:"duration_ms,omitempty"`
	OutputFiles map[string]string `json:"output_files,omitempty"`
	Error       string            `json:"error,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func decodeTaskMessage(msg kafkago.Message) (task.Config, error) {
	var envelope taskEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return task.Config{}, fmt.Errorf("decode message: %w", err)
	}

	msgType := envelope.Type
	if msgType == "" {
		msgType = messageTypeTask
	}

	switch msgType {
	case messageTypeTask:
		return envelope.toConfig(msg)
	case messageTypeDone:
		return task.Config{}, io.EOF
	default:
		return task.Config{}, fmt.Errorf("unknown message type %q", msgType)
	}
}

func (e taskEnvelope) toConfig(msg kafkago.Message) (task.Config, error) {
	if e.Script == "" {
		return task.Config{}, fmt.Errorf("task message missing script")
	}

	taskID := e.ID
	if taskID == "" {
		taskID = string(msg.Key)
	}
	if taskID == "" {
		taskID = fmt.Sprintf("%s:%d", msg.Topic, msg.Offset)
	}

	return task.Config{
		ID:              taskID,
		Language:        task.Language(e.Language),
		Script:          e.Script,
		Interpreter:     e.Interpreter,
		ContainerImage:  e.ContainerImage,
		BeforeCommands:  e.BeforeCommands,
		InputFiles:      e.InputFiles,
		OutputFiles:     e.OutputFiles,
		WarningOnStdErr: e.WarningOnStdErr,
		TargetOS:        task.TargetOS(e.TargetOS),
		Vars:            e.Vars,
		Limits:          e.toLimits(),
	}, nil
}

func (e taskEnvelope) toLimits() task.RunLimits {
	if e.Limits == nil {
		return task.RunLimits{}
	}

	var limits task.RunLimits
	if e.Limits.TimeLimitMs > 0 {
		limits.TimeLimit = time.Duration(e.Limits.TimeLimitMs) * time.Millisecond
	}
	if e.Limits.MemoryLimitBytes > 0 {
		limits.MemoryLimitBytes = e.Limits.MemoryLimitBytes
	}
	return limits
}

func encodeRunReport(report task.RunReport) ([]byte, error) {
	payload, err := json.Marshal(makeReportEnvelope(report))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return payload, nil
}

func makeReportEnvelope(report task.RunReport) reportEnvelope {
	var exitCode *int64
	var durationMs *int64
	var stdout string
	var stderr string
	var status task.Status
	var outputFiles map[string]string

	if report.Result != nil {
		exit := report.Result.ExitCode
		exitCode = &exit

		dur := report.Result.Duration.Milliseconds()
		durationMs = &dur

		stdout = report.Result.Stdout
		stderr = report.Result.Stderr
		status = report.Result.Status
		outputFiles = report.Result.OutputFiles
	}

	errMsg := ""
	if report.Err != nil {
		errMsg = report.Err.Error()
	}

	return reportEnvelope{
		ID:          report.Task.ID,
		Status:      status,
		ExitCode:    exitCode,
		Stdout:      stdout,
		Stderr:      stderr,
		DurationMs:  durationMs,
		OutputFiles: outputFiles,
		Error:       errMsg,
		Timestamp:   time.Now().UTC(),
	}
}
