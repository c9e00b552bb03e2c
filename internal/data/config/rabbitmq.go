package config

import (
	"time"

	"github.com/spf13/viper"
)

// RabbitMQ rabbitmq config struct
type RabbitMQ struct {
	URL               string        `mapstructure:"url"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Vhost             string        `mapstructure:"vhost"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// getRabbitMQConfigs reads RabbitMQ configurations
func getRabbitMQConfigs(v *viper.Viper) *RabbitMQ {
	return &RabbitMQ{
		URL:               v.GetString("data.rabbitmq.url"),
		Username:          v.GetString("data.rabbitmq.username"),
		Password:          v.GetString("data.rabbitmq.password"),
		Vhost:             v.GetString("data.rabbitmq.vhost"),
		HeartbeatInterval: v.GetDuration("data.rabbitmq.heartbeat_interval"),
	}
}
