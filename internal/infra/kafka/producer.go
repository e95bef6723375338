package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"

	"zippty/order-service/internal/infra/events"
)

var _ events.Publisher = (*Producer)(nil)

// Producer publishes order events to a single topic keyed by routing key, so all events
// of one kind land on the same partition.
type Producer struct {
	topic string
	conn  sarama.SyncProducer
}

// sendTimeout bounds every network step of a send. SendMessage takes no context, so this
// is the only limit on how long Publish blocks.
const sendTimeout = 2 * time.Second

func newConfig() *sarama.Config {
	saramaConf := sarama.NewConfig()
	saramaConf.Producer.Return.Successes = true
	saramaConf.Producer.Return.Errors = true
	saramaConf.Producer.RequiredAcks = sarama.WaitForAll
	saramaConf.Producer.Timeout = sendTimeout
	saramaConf.Producer.Retry.Max = 1
	saramaConf.Net.DialTimeout = sendTimeout
	saramaConf.Net.ReadTimeout = sendTimeout
	saramaConf.Net.WriteTimeout = sendTimeout
	saramaConf.Metadata.Retry.Max = 1
	return saramaConf
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	conn, err := sarama.NewSyncProducer(brokers, newConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newProducer(conn, topic), nil
}

func newProducer(conn sarama.SyncProducer, topic string) *Producer {
	return &Producer{topic: topic, conn: conn}
}

func (p *Producer) Publish(_ context.Context, routingKey string, data any) error {
	body, err := json.Marshal(events.Envelope{
		ID:      uuid.NewString(),
		Pattern: routingKey,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, _, err = p.conn.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(routingKey),
		Value: sarama.ByteEncoder(body),
	})
	return err
}

func (p *Producer) Close() error {
	return p.conn.Close()
}
