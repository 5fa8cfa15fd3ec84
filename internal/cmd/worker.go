package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"taskrun/internal/app/executor"
	"taskrun/internal/domain/task"
	kafkainfra "taskrun/internal/infra/kafka"
	"taskrun/internal/runner/docker"
	"taskrun/internal/template"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume task messages from Kafka and publish run reports",
	Long: `Run a long-lived worker that pulls task messages from a Kafka topic,
executes them in Docker containers and publishes a run report per task.

Connection details come from the environment: KAFKA_BROKERS, KAFKA_TOPIC,
KAFKA_REPORTS_TOPIC and KAFKA_GROUP_ID select the cluster and topics,
TASKS_EXPECTED bounds the number of tasks processed before exiting and
RUNNER_MAX_PARALLEL bounds concurrent executions.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := loadWorkerConfig()

	runner, err := docker.New(dockerConfigFromEnv())
	if err != nil {
		return fmt.Errorf("initialize docker runner: %w", err)
	}
	defer func() {
		if cerr := runner.Close(); cerr != nil {
			log.Printf("warning: failed to close runner: %v", cerr)
		}
	}()

	consumer, err := kafkainfra.NewConsumer(kafkainfra.Config{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.TasksTopic,
		GroupID: cfg.GroupID,
	})
	if err != nil {
		return fmt.Errorf("initialize kafka consumer: %w", err)
	}
	defer func() {
		if cerr := consumer.Close(); cerr != nil {
			log.Printf("warning: failed to close kafka consumer: %v", cerr)
		}
	}()

	publisher, err := kafkainfra.NewPublisher(kafkainfra.PublisherConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.ReportsTopic,
	})
	if err != nil {
		return fmt.Errorf("initialize kafka publisher: %w", err)
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			log.Printf("warning: failed to close kafka publisher: %v", cerr)
		}
	}()

	ctx := cmd.Context()
	service := executor.NewService(executor.NewAdapter(runner, template.New()))

	err = service.ExecuteFromSource(ctx, consumer, cfg.MaxTasks, cfg.MaxParallel, func(report task.RunReport) {
		logReport(report)
		if pubErr := publisher.PublishReport(ctx, report); pubErr != nil {
			log.Printf("failed to publish report for task %q: %v", report.Task.ID, pubErr)
		}
	})
	if err != nil {
		return fmt.Errorf("execute tasks: %w", err)
	}
	return nil
}

func logReport(report task.RunReport) {
	if report.Err != nil {
		log.Printf("task %q failed: %v", report.Task.ID, report.Err)
		return
	}

	result := report.Result
	log.Printf("task %q finished with status %s (exit %d) after %s",
		report.Task.ID, result.Status, result.ExitCode, result.Duration.Round(time.Millisecond))
}
