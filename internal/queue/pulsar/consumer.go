package pulsar

import (
	"context"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// Consumer implements queue.Consumer using Pulsar
type Consumer struct {
	consumer pulsar.Consumer
	topic    string
}

// NewConsumer subscribes to topic on an existing client
func NewConsumer(client pulsar.Client, topic, subscriptionName string) (*Consumer, error) {
	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		SubscriptionName: subscriptionName,
		Type:             pulsar.KeyShared,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pulsar consumer: %w", err)
	}

	return &Consumer{
		consumer: consumer,
		topic:    topic,
	}, nil
}

// Consume receives jobs until ctx is cancelled. A handler error is
// acknowledged like a success: engine operations are not safe to redeliver.
func (c *Consumer) Consume(ctx context.Context, handler queue.JobHandler) error {
	logger.Infof("Starting Pulsar consumer for topic %s", c.topic)

	for {
		msg, err := c.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Pulsar consumer context cancelled")
				return ctx.Err()
			}
			return fmt.Errorf("failed to receive message from Pulsar: %w", err)
		}

		job, err := queue.Decode(msg.Payload(), msg.Properties())
		if err != nil {
			logger.Errorf("Dropping undecodable Pulsar message %v: %v", msg.ID(), err)
		} else {
			if job.ID == "" {
				job.ID = msg.Key()
			}
			logger.Infof("Processing %s job %s from Pulsar", job.Operation, job.ID)
			result, err := handler(ctx, job)
			if err != nil {
				logger.Errorf("Failed to process job %s: %v", job.ID, err)
			} else {
				logger.Infof("Job %s: %s", job.ID, queue.Summary(result))
			}
		}

		if err := c.consumer.Ack(msg); err != nil {
			logger.Errorf("Failed to acknowledge Pulsar message %v: %v", msg.ID(), err)
		}
	}
}

// Close closes the Pulsar consumer
func (c *Consumer) Close() error {
	c.consumer.Close()
	return nil
}
