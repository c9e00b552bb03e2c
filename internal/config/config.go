// Package config loads the netbaseline configuration from a YAML file and
// NETBASELINE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	dataconfig "netbaseline/internal/data/config"
	"netbaseline/internal/database"
	"netbaseline/internal/logger"
	"netbaseline/internal/notify"
	"netbaseline/internal/retry"
	"netbaseline/internal/validator"

	"github.com/spf13/viper"
)

var (
	AppName   = "netbaseline"
	EnvPrefix = "NETBASELINE"
)

// Config represents the complete configuration
type Config struct {
	Server   ServerConfig       `mapstructure:"server"`
	Database database.Config    `mapstructure:"database"`
	Data     *dataconfig.Config `mapstructure:"-"`
	Notify   notify.Config      `mapstructure:"notify"`
	Baseline BaselineConfig     `mapstructure:"baseline"`
	Worker   WorkerConfig       `mapstructure:"worker"`
	Log      logger.Config      `mapstructure:"log"`
}

// ServerConfig represents the metrics and health HTTP server configuration
type ServerConfig struct {
	Address      string        `mapstructure:"address" validate:"required"`
	MetricsPath  string        `mapstructure:"metrics_path" validate:"required"`
	Mode         string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BaselineConfig represents the comparison engine configuration
type BaselineConfig struct {
	DedupWindow          time.Duration `mapstructure:"dedup_window" validate:"gt=0"`
	DisappearThreshold   time.Duration `mapstructure:"disappear_threshold" validate:"gt=0"`
	DefaultIntervalHours int           `mapstructure:"default_interval_hours" validate:"min=1,max=168"`
	LockPrefix           string        `mapstructure:"lock_prefix"`
	LockTTL              time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	LockWait             time.Duration `mapstructure:"lock_wait" validate:"gt=0"`
}

// WorkerConfig represents the scan result consumer configuration
type WorkerConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Source      string       `mapstructure:"source" validate:"omitempty,oneof=kafka rabbitmq"`
	Topic       string       `mapstructure:"topic"`
	GroupID     string       `mapstructure:"group_id"`
	Queue       string       `mapstructure:"queue"`
	Concurrency int          `mapstructure:"concurrency" validate:"min=1"`
	Retry       retry.Config `mapstructure:"retry"`
}

// Load reads the configuration file at path (optional) and the environment
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Data = dataconfig.GetConfig(v)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":9090")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.dsn", "data/netbaseline.db")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.query_timeout", "30s")
	v.SetDefault("database.slow_query_time", "1s")
	v.SetDefault("database.auto_migrate", true)

	dataconfig.SetDefaults(v)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.publish_timeout", "5s")
	v.SetDefault("notify.queue_size", 1000)
	v.SetDefault("notify.rate_limit.enabled", false)
	v.SetDefault("notify.rate_limit.interval", "1m")
	v.SetDefault("notify.rate_limit.max_events", 600)
	v.SetDefault("notify.kafka.enabled", false)
	v.SetDefault("notify.kafka.topic", "alert.triggered")
	v.SetDefault("notify.rabbitmq.enabled", false)
	v.SetDefault("notify.rabbitmq.exchange", "netbaseline.alerts")
	v.SetDefault("notify.rabbitmq.routing_key", "alert.triggered")
	v.SetDefault("notify.redis.enabled", false)
	v.SetDefault("notify.redis.channel", "alert.triggered")
	v.SetDefault("notify.webhook.enabled", false)
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.secret", "")
	v.SetDefault("notify.webhook.timeout", "10s")
	v.SetDefault("notify.webhook.max_retries", 3)
	v.SetDefault("notify.elasticsearch.enabled", false)
	v.SetDefault("notify.elasticsearch.index", "netbaseline-alerts")

	v.SetDefault("baseline.dedup_window", "24h")
	v.SetDefault("baseline.disappear_threshold", "24h")
	v.SetDefault("baseline.default_interval_hours", 4)
	v.SetDefault("baseline.lock_prefix", "netbaseline:lock:")
	v.SetDefault("baseline.lock_ttl", "5m")
	v.SetDefault("baseline.lock_wait", "5m")

	v.SetDefault("worker.enabled", false)
	v.SetDefault("worker.source", "kafka")
	v.SetDefault("worker.topic", "scan.completed")
	v.SetDefault("worker.group_id", "netbaseline")
	v.SetDefault("worker.queue", "netbaseline.scan.completed")
	v.SetDefault("worker.concurrency", 4)
	retryDefaults := retry.DefaultRetryConfig()
	v.SetDefault("worker.retry.enable", retryDefaults.Enable)
	v.SetDefault("worker.retry.initial_attempts", retryDefaults.InitialAttempts)
	v.SetDefault("worker.retry.initial_interval", retryDefaults.InitialInterval)
	v.SetDefault("worker.retry.minute_attempts", retryDefaults.MinuteAttempts)
	v.SetDefault("worker.retry.minute_interval", retryDefaults.MinuteInterval)

	def := logger.DefaultConfig()
	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.format", def.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", def.MaxSize)
	v.SetDefault("log.max_backups", def.MaxBackups)
	v.SetDefault("log.max_age", def.MaxAge)
	v.SetDefault("log.compress", false)
}

// Validate validates the configuration
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	if err := cfg.Notify.Validate(); err != nil {
		return fmt.Errorf("invalid notify config: %w", err)
	}
	if err := cfg.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	if err := cfg.Worker.Retry.Validate(); err != nil {
		return fmt.Errorf("invalid worker retry config: %w", err)
	}
	if cfg.Worker.Enabled {
		if err := cfg.validateWorker(); err != nil {
			return fmt.Errorf("invalid worker config: %w", err)
		}
	}
	return nil
}

func (cfg *Config) validateWorker() error {
	switch cfg.Worker.Source {
	case "kafka":
		if cfg.Data == nil || cfg.Data.Kafka == nil || len(cfg.Data.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required for the kafka source")
		}
		if cfg.Worker.Topic == "" {
			return fmt.Errorf("worker topic is required")
		}
	case "rabbitmq":
		if cfg.Data == nil || cfg.Data.RabbitMQ == nil || cfg.Data.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq url is required for the rabbitmq source")
		}
		if cfg.Worker.Queue == "" {
			return fmt.Errorf("worker queue is required")
		}
	}
	return nil
}
