package worker

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQSource consumes scan results from a durable queue
type RabbitMQSource struct {
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
}

// NewRabbitMQSource declares queue and starts consuming with prefetch
// unacknowledged deliveries
func NewRabbitMQSource(conn *amqp.Connection, queue string, prefetch int) (*RabbitMQSource, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is required")
	}
	if queue == "" {
		return nil, fmt.Errorf("rabbitmq queue is required")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to set rabbitmq prefetch: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare rabbitmq queue: %w", err)
	}
	deliveries, err := ch.Consume(queue, "netbaseline", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to consume rabbitmq queue: %w", err)
	}

	return &RabbitMQSource{channel: ch, deliveries: deliveries}, nil
}

// Next waits for the next delivery
func (s *RabbitMQSource) Next(ctx context.Context) (*Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return nil, fmt.Errorf("rabbitmq delivery channel closed")
		}
		return &Delivery{
			Body: d.Body,
			Done: func(err error) error {
				switch {
				case err == nil:
					return d.Ack(false)
				case errors.Is(err, context.Canceled):
					return d.Nack(false, true)
				default:
					// retries are exhausted; dead-letter instead of looping
					return d.Nack(false, false)
				}
			},
		}, nil
	}
}

// Close closes the channel
func (s *RabbitMQSource) Close() error {
	return s.channel.Close()
}
