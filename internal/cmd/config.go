package cmd

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"taskrun/internal/domain/task"
	"taskrun/internal/runner/docker"
)

const (
	containerWorkdir = "/tmp"

	defaultKafkaBrokers      = "kafka:9092"
	defaultKafkaTasksTopic   = "tasks"
	defaultKafkaReportsTopic = "reports"
	defaultKafkaGroupID      = "taskrun-worker"
)

type workerConfig struct {
	KafkaBrokers []string
	TasksTopic   string
	ReportsTopic string
	GroupID      string
	MaxTasks     int
	MaxParallel  int
}

func loadWorkerConfig() workerConfig {
	return workerConfig{
		KafkaBrokers: parseBrokerList(envOrDefault("KAFKA_BROKERS", defaultKafkaBrokers)),
		TasksTopic:   envOrDefault("KAFKA_TOPIC", defaultKafkaTasksTopic),
		ReportsTopic: envOrDefault("KAFKA_REPORTS_TOPIC", defaultKafkaReportsTopic),
		GroupID:      envOrDefault("KAFKA_GROUP_ID", defaultKafkaGroupID),
		MaxTasks:     parseMaxTasks(os.Getenv("TASKS_EXPECTED")),
		MaxParallel:  parseMaxParallel(os.Getenv("RUNNER_MAX_PARALLEL")),
	}
}

func dockerConfigFromEnv() docker.Config {
	return docker.Config{
		Workdir:   envOrDefault("RUNNER_WORKDIR", containerWorkdir),
		OutputDir: os.Getenv("RUNNER_OUTPUT_DIR"),
		DefaultLimits: task.RunLimits{
			TimeLimit:        parseDuration(os.Getenv("RUNNER_TIME_LIMIT"), 0),
			MemoryLimitBytes: parseBytes(os.Getenv("RUNNER_MEMORY_LIMIT")),
		},
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseBrokerList(raw string) []string {
	fields := strings.Split(raw, ",")
	brokers := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func parseMaxTasks(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("warning: ignoring invalid TASKS_EXPECTED value %q: %v", raw, err)
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}

func parseMaxParallel(raw string) int {
	if raw == "" {
		return 1
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 1
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func parseBytes(raw string) int64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
