package pulsar

import (
	"context"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// Producer implements queue.Producer using Pulsar
type Producer struct {
	producer pulsar.Producer
	topic    string
}

// NewProducer creates a producer on an existing client
func NewProducer(client pulsar.Client, topic string) (*Producer, error) {
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: topic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pulsar producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

// PublishJob publishes a job to Pulsar
func (p *Producer) PublishJob(ctx context.Context, job *queue.Job) error {
	msg, err := newMessage(job)
	if err != nil {
		return err
	}

	if _, err := p.producer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send message to Pulsar: %w", err)
	}

	logger.Infof("Published %s job %s to Pulsar topic %s", job.Operation, job.ID, p.topic)
	return nil
}

// Close closes the Pulsar producer
func (p *Producer) Close() error {
	p.producer.Close()
	return nil
}

func newMessage(job *queue.Job) (*pulsar.ProducerMessage, error) {
	data, err := queue.Encode(job)
	if err != nil {
		return nil, err
	}

	key := job.ResourcePath
	if key == "" {
		key = job.ID
	}

	return &pulsar.ProducerMessage{
		Payload: data,
		Key:     key,
		Properties: map[string]string{
			queue.HeaderJobID:     job.ID,
			queue.HeaderOperation: string(job.Operation),
		},
	}, nil
}
