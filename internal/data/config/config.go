package config

import "github.com/spf13/viper"

// Config data config struct
type Config struct {
	Environment string `mapstructure:"environment"`
	*Redis
	*Elasticsearch
	*RabbitMQ
	*Kafka
}

// GetConfig reads data configurations
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Environment:   v.GetString("data.environment"),
		Redis:         getRedisConfigs(v),
		Elasticsearch: getElasticsearchConfigs(v),
		RabbitMQ:      getRabbitMQConfigs(v),
		Kafka:         getKafkaConfigs(v),
	}
}

// SetDefaults registers data defaults on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.redis.db", 0)
	v.SetDefault("data.redis.dial_timeout", "5s")
	v.SetDefault("data.redis.read_timeout", "3s")
	v.SetDefault("data.redis.write_timeout", "3s")
	v.SetDefault("data.redis.pool_size", 10)
	v.SetDefault("data.rabbitmq.vhost", "/")
	v.SetDefault("data.rabbitmq.heartbeat_interval", "10s")
	v.SetDefault("data.kafka.dial_timeout", "10s")
}
