package notify

import (
	"context"
	"fmt"

	"netbaseline/internal/types"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes alert notifications on a pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates new redis publisher
func NewRedisPublisher(client *redis.Client, cfg *RedisConfig) (*RedisPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis: %w", types.ErrPublisherNotConfigured)
	}
	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

// Type returns the publisher type
func (p *RedisPublisher) Type() PublisherType {
	return PublisherRedis
}

// Publish sends the payload to current subscribers
func (p *RedisPublisher) Publish(ctx context.Context, event *types.AlertTriggered) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis channel %s: %w", p.channel, err)
	}
	return nil
}

// Close is a no-op, the client is owned by the connection set
func (p *RedisPublisher) Close() error {
	return nil
}
