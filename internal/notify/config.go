package notify

import (
	"fmt"
	"time"
)

// Config represents alert notification configuration
type Config struct {
	Enabled        bool                `mapstructure:"enabled"`
	PublishTimeout time.Duration       `mapstructure:"publish_timeout"`
	QueueSize      int                 `mapstructure:"queue_size"`
	TemplatesFile  string              `mapstructure:"templates_file"`
	RateLimit      RateLimitConfig     `mapstructure:"rate_limit"`
	Kafka          KafkaConfig         `mapstructure:"kafka"`
	RabbitMQ       RabbitMQConfig      `mapstructure:"rabbitmq"`
	Redis          RedisConfig         `mapstructure:"redis"`
	Webhook        WebhookConfig       `mapstructure:"webhook"`
	Elasticsearch  ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// RateLimitConfig represents per publisher rate limiting
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	MaxEvents int           `mapstructure:"max_events"`
}

// KafkaConfig represents the kafka publisher configuration
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

// RabbitMQConfig represents the rabbitmq publisher configuration
type RabbitMQConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

// RedisConfig represents the redis pub/sub publisher configuration
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// WebhookConfig represents the webhook publisher configuration
type WebhookConfig struct {
	Enabled    bool              `mapstructure:"enabled"`
	URL        string            `mapstructure:"url"`
	Secret     string            `mapstructure:"secret"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	MaxRetries int               `mapstructure:"max_retries"`
	Headers    map[string]string `mapstructure:"headers"`
}

// ElasticsearchConfig represents the audit index publisher configuration
type ElasticsearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// Validate validates notification configuration
func (cfg *Config) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.PublishTimeout <= 0 {
		return fmt.Errorf("publish timeout must be positive")
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.Interval <= 0 || cfg.RateLimit.MaxEvents <= 0) {
		return fmt.Errorf("rate limit interval and max events must be positive")
	}
	if cfg.Kafka.Enabled && cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQ.Exchange == "" {
		return fmt.Errorf("rabbitmq exchange is required")
	}
	if cfg.Redis.Enabled && cfg.Redis.Channel == "" {
		return fmt.Errorf("redis channel is required")
	}
	if cfg.Webhook.Enabled && cfg.Webhook.URL == "" {
		return fmt.Errorf("webhook url is required")
	}
	if cfg.Elasticsearch.Enabled && cfg.Elasticsearch.Index == "" {
		return fmt.Errorf("elasticsearch index is required")
	}
	return nil
}
