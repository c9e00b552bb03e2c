package notify

import (
	"context"
	"fmt"
	"sync"

	"netbaseline/internal/types"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes alert notifications to a topic exchange
type RabbitMQPublisher struct {
	mu         sync.Mutex
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitMQPublisher opens a channel and declares the exchange
func NewRabbitMQPublisher(conn *amqp.Connection, cfg *RabbitMQConfig) (*RabbitMQPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq: %w", types.ErrPublisherNotConfigured)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	routingKey := cfg.RoutingKey
	if routingKey == "" {
		routingKey = types.TopicAlertTriggered
	}

	return &RabbitMQPublisher{
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: routingKey,
	}, nil
}

// Type returns the publisher type
func (p *RabbitMQPublisher) Type() PublisherType {
	return PublisherRabbitMQ
}

// Publish sends one persistent message; amqp channels are not safe for
// concurrent publishing
func (p *RabbitMQPublisher) Publish(ctx context.Context, event *types.AlertTriggered) error {
	data, err := encode(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.AlertID,
		Timestamp:    event.TriggeredAt,
		Type:         types.TopicAlertTriggered,
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish rabbitmq message: %w", err)
	}
	return nil
}

// Close closes the channel
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel.IsClosed() {
		return nil
	}
	return p.channel.Close()
}
