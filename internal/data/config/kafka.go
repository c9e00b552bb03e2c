package config

import (
	"time"

	"github.com/spf13/viper"
)

// Kafka kafka config struct
type Kafka struct {
	Brokers     []string      `mapstructure:"brokers"`
	ClientID    string        `mapstructure:"client_id"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// getKafkaConfigs reads Kafka configurations
func getKafkaConfigs(v *viper.Viper) *Kafka {
	return &Kafka{
		Brokers:     v.GetStringSlice("data.kafka.brokers"),
		ClientID:    v.GetString("data.kafka.client_id"),
		DialTimeout: v.GetDuration("data.kafka.dial_timeout"),
	}
}
