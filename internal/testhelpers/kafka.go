//go:build integration

// Package testhelpers provides shared utilities for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const brokerDialInterval = 500 * time.Millisecond
const brokerDialTimeout = 30 * time.Second

// WaitForKafkaBroker blocks until the broker address accepts connections or
// the context ends.
func WaitForKafkaBroker(ctx context.Context, broker string) error {
	waitCtx, cancel := context.WithTimeout(ctx, brokerDialTimeout)
	defer cancel()

	ticker := time.NewTicker(brokerDialInterval)
	defer ticker.Stop()

	for {
		conn, err := kafkago.Dial("tcp", broker)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return fmt.Errorf("kafka broker %q not ready: %w", broker, waitCtx.Err())
		}
	}
}

// EnsureKafkaTopics creates every listed topic on the cluster's controller,
// with a single partition each.
func EnsureKafkaTopics(ctx context.Context, broker string, topics ...string) error {
	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	ctrlConn, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrlConn.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	return ctrlConn.CreateTopics(configs...)
}
