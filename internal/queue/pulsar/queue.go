package pulsar

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/toolsascode/wildebeest/internal/queue"
)

// Queue implements queue.Queue using Pulsar; producer and consumer share
// one client connection.
type Queue struct {
	client   pulsar.Client
	producer *Producer
	consumer *Consumer
}

// NewQueue connects to url and creates both producer and consumer
func NewQueue(url, topic, subscriptionName string) (*Queue, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: url,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pulsar client: %w", err)
	}

	producer, err := NewProducer(client, topic)
	if err != nil {
		client.Close()
		return nil, err
	}

	consumer, err := NewConsumer(client, topic, subscriptionName)
	if err != nil {
		_ = producer.Close()
		client.Close()
		return nil, err
	}

	return &Queue{
		client:   client,
		producer: producer,
		consumer: consumer,
	}, nil
}

func (q *Queue) PublishJob(ctx context.Context, job *queue.Job) error {
	return q.producer.PublishJob(ctx, job)
}

func (q *Queue) Consume(ctx context.Context, handler queue.JobHandler) error {
	return q.consumer.Consume(ctx, handler)
}

// Close closes producer, consumer and the shared client
func (q *Queue) Close() error {
	err := errors.Join(q.producer.Close(), q.consumer.Close())
	q.client.Close()
	return err
}
