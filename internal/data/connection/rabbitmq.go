package connection

import (
	"fmt"
	"strings"

	"netbaseline/internal/data/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// newRabbitMQ creates new RabbitMQ connection
func newRabbitMQ(cfg *config.RabbitMQ, logger *zap.Logger) (*amqp.Connection, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq configuration is nil or empty")
	}

	url := cfg.URL
	if !strings.HasPrefix(url, "amqp://") && !strings.HasPrefix(url, "amqps://") {
		url = fmt.Sprintf("amqp://%s:%s@%s/", cfg.Username, cfg.Password, cfg.URL)
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: cfg.HeartbeatInterval,
		Vhost:     cfg.Vhost,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("vhost", cfg.Vhost))
	return conn, nil
}
