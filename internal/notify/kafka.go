package notify

import (
	"context"
	"fmt"

	dataconfig "netbaseline/internal/data/config"
	"netbaseline/internal/types"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes alert notifications to a kafka topic keyed by org
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates new kafka publisher
func NewKafkaPublisher(brokers *dataconfig.Kafka, cfg *KafkaConfig) (*KafkaPublisher, error) {
	if brokers == nil || len(brokers.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: %w", types.ErrPublisherNotConfigured)
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Type returns the publisher type
func (p *KafkaPublisher) Type() PublisherType {
	return PublisherKafka
}

// Publish writes one message; the org id keeps an org's alerts on one partition
func (p *KafkaPublisher) Publish(ctx context.Context, event *types.AlertTriggered) error {
	data, err := encode(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrgID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(types.TopicAlertTriggered)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
