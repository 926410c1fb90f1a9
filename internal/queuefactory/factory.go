package queuefactory

import (
	"fmt"
	"strings"

	"github.com/toolsascode/wildebeest/internal/config"
	"github.com/toolsascode/wildebeest/internal/queue"
	"github.com/toolsascode/wildebeest/internal/queue/kafka"
	"github.com/toolsascode/wildebeest/internal/queue/pulsar"
)

const defaultConsumerGroup = "wildebeest-workers"

// NewQueue creates the queue selected by cfg.Type. It does not check
// cfg.Enabled; callers decide whether a queue is wanted at all.
func NewQueue(cfg config.QueueConfig) (queue.Queue, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka brokers are required")
		}
		if cfg.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka topic is required")
		}
		groupID := cfg.KafkaGroupID
		if groupID == "" {
			groupID = defaultConsumerGroup
		}
		return kafka.NewQueue(cfg.KafkaBrokers, cfg.KafkaTopic, groupID), nil

	case "pulsar":
		if cfg.PulsarURL == "" {
			return nil, fmt.Errorf("pulsar URL is required")
		}
		if cfg.PulsarTopic == "" {
			return nil, fmt.Errorf("pulsar topic is required")
		}
		subscription := cfg.PulsarSubscription
		if subscription == "" {
			subscription = defaultConsumerGroup
		}
		return pulsar.NewQueue(cfg.PulsarURL, cfg.PulsarTopic, subscription)

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: kafka, pulsar)", cfg.Type)
	}
}
