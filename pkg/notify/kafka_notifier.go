package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// KafkaNotifier publishes notifications to a Kafka topic keyed by recipient
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer creates a synchronous producer with idempotent writes
func NewKafkaProducer(brokers []string, timeout time.Duration) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = timeout
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaNotifier wraps an existing producer
func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

// Send publishes one notification message
func (n *KafkaNotifier) Send(ctx context.Context, to, subject string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := newMessage(to, subject, fields)
	body, err := msg.encode()
	if err != nil {
		return err
	}

	message := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(to),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("notification_type"), Value: []byte(RoutingKey)},
		},
		Timestamp: msg.SentAt,
	}

	if _, _, err := n.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}
	return nil
}

// Close closes the producer
func (n *KafkaNotifier) Close() error {
	if err := n.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
