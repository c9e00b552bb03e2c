package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"netbaseline/internal/data/config"

	"github.com/segmentio/kafka-go"
)

// KafkaSource reads scan results from a consumer group
type KafkaSource struct {
	reader *kafka.Reader
}

// NewKafkaSource creates new Kafka reader for topic within groupID
func NewKafkaSource(cfg *config.Kafka, topic, groupID string) (*KafkaSource, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer: &kafka.Dialer{
			Timeout:  cfg.DialTimeout,
			ClientID: cfg.ClientID,
		},
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})

	return &KafkaSource{reader: reader}, nil
}

// Next fetches the next message; its offset is committed once settled
func (s *KafkaSource) Next(ctx context.Context) (*Delivery, error) {
	msg, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &Delivery{
		Body: msg.Value,
		Done: func(err error) error {
			// leave cancelled work uncommitted so it is redelivered
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return s.reader.CommitMessages(context.Background(), msg)
		},
	}, nil
}

// Close closes the reader
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
