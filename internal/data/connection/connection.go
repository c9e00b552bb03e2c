package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"netbaseline/internal/data/config"
	"netbaseline/internal/data/elastic"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Connections struct to hold the broker and cache clients
type Connections struct {
	RC     *redis.Client
	ES     *elastic.Client
	RMQ    *amqp.Connection
	KFK    *kafka.Conn
	Kafka  *config.Kafka
	closed bool
	mu     sync.Mutex
}

// New creates new Connections for every configured backend
func New(cfg *config.Config, logger *zap.Logger) (*Connections, error) {
	c := &Connections{}
	var err error

	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		c.RC, err = newRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Elasticsearch != nil && len(cfg.Elasticsearch.Addresses) > 0 {
		c.ES, err = newElasticsearch(cfg.Elasticsearch)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	if cfg.RabbitMQ != nil && cfg.RabbitMQ.URL != "" {
		c.RMQ, err = newRabbitMQ(cfg.RabbitMQ, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		c.KFK, err = newKafka(cfg.Kafka)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Kafka = cfg.Kafka
	}

	return c, nil
}

// Close closes all data connections
func (d *Connections) Close() (errs []error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Check if already closed
	if d.closed {
		return nil
	}

	// Close Redis client if connected
	if d.RC != nil {
		if err := d.RC.Close(); err != nil {
			errs = append(errs, errors.New("redis close error: "+err.Error()))
		}
		d.RC = nil
	}

	// Close RabbitMQ client if connected
	if d.RMQ != nil {
		if !d.RMQ.IsClosed() {
			if err := d.RMQ.Close(); err != nil {
				errs = append(errs, errors.New("rabbitmq close error: "+err.Error()))
			}
		}
		d.RMQ = nil
	}

	// Close Kafka client if connected
	if d.KFK != nil {
		if err := d.KFK.Close(); err != nil {
			errs = append(errs, errors.New("kafka close error: "+err.Error()))
		}
		d.KFK = nil
	}

	d.ES = nil
	d.closed = true

	return errs
}

// Ping checks all configured connections
func (d *Connections) Ping(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.RC != nil {
		if err := d.RC.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	if d.RMQ != nil && d.RMQ.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	if d.KFK != nil {
		// Reading cluster metadata doubles as a connection check
		if _, err := d.KFK.Controller(); err != nil {
			return fmt.Errorf("kafka ping failed: %w", err)
		}
	}
	return nil
}
