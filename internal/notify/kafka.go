package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"solana-alerts/internal/domain"
)

// Kafka publishes alert envelopes to a topic, keyed by transaction signature.
type Kafka struct {
	topic    string
	producer sarama.SyncProducer
	now      func() time.Time
}

// NewKafka connects a synchronous producer to brokers.
func NewKafka(brokers []string, topic string, cfg *sarama.Config) (*Kafka, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
		cfg.Producer.RequiredAcks = sarama.WaitForLocal
		cfg.Producer.Retry.Max = 3
	}
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaWithProducer(p, topic), nil
}

// NewKafkaWithProducer wraps an existing producer.
func NewKafkaWithProducer(p sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{topic: topic, producer: p, now: time.Now}
}

var _ Notifier = (*Kafka)(nil)

// Name implements Notifier.
func (k *Kafka) Name() string { return "kafka" }

// Notify publishes msg. SyncProducer has no context support; ctx is only
// checked before sending.
func (k *Kafka) Notify(ctx context.Context, msg domain.AlertMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(NewEnvelope(msg, k.now()))
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	pm := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(b),
	}
	if msg.Signature != "" {
		pm.Key = sarama.StringEncoder(msg.Signature)
	}
	if _, _, err := k.producer.SendMessage(pm); err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	return nil
}

// Close closes the producer.
func (k *Kafka) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
