package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// Producer implements queue.Producer using Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishJob publishes a job to Kafka
func (p *Producer) PublishJob(ctx context.Context, job *queue.Job) error {
	message, err := newMessage(job)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logger.Infof("Published %s job %s to Kafka topic %s", job.Operation, job.ID, p.topic)
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// newMessage keys messages by resource so jobs for one resource stay ordered
// within a partition.
func newMessage(job *queue.Job) (kafka.Message, error) {
	data, err := queue.Encode(job)
	if err != nil {
		return kafka.Message{}, err
	}

	key := job.ResourcePath
	if key == "" {
		key = job.ID
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: queue.HeaderJobID, Value: []byte(job.ID)},
			{Key: queue.HeaderOperation, Value: []byte(job.Operation)},
		},
	}, nil
}

func headerMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
