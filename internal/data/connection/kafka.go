package connection

import (
	"context"
	"fmt"

	"netbaseline/internal/data/config"

	"github.com/segmentio/kafka-go"
)

// newKafka creates new Kafka connection to the first reachable broker
func newKafka(cfg *config.Kafka) (*kafka.Conn, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka configuration is nil or empty")
	}

	dialer := &kafka.Dialer{
		Timeout:  cfg.DialTimeout,
		ClientID: cfg.ClientID,
	}

	var lastErr error
	for _, broker := range cfg.Brokers {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		cancel()
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("kafka connection error: %w", lastErr)
}
