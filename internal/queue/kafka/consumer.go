package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// Consumer implements queue.Consumer using Kafka
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{
		reader: reader,
		topic:  topic,
	}
}

// Consume reads jobs until ctx is cancelled. Jobs are committed after the
// handler returns whether or not they succeeded; engine operations are not
// retried by redelivery.
func (c *Consumer) Consume(ctx context.Context, handler queue.JobHandler) error {
	logger.Infof("Starting Kafka consumer for topic %s", c.topic)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Kafka consumer context cancelled")
				return ctx.Err()
			}
			return fmt.Errorf("failed to read message from Kafka: %w", err)
		}

		job, err := queue.Decode(msg.Value, headerMap(msg.Headers))
		if err != nil {
			logger.Errorf("Dropping undecodable Kafka message at offset %d: %v", msg.Offset, err)
		} else {
			logger.Infof("Processing %s job %s from Kafka", job.Operation, job.ID)
			result, err := handler(ctx, job)
			if err != nil {
				logger.Errorf("Failed to process job %s: %v", job.ID, err)
			} else {
				logger.Infof("Job %s: %s", job.ID, queue.Summary(result))
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Errorf("Failed to commit Kafka offset %d: %v", msg.Offset, err)
		}
	}
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
