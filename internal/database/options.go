package database

import (
	"fmt"
	"time"
)

// Config represents database configuration
type Config struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres sqlite mysql"`
	DSN             string        `mapstructure:"dsn" validate:"required"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	SlowQueryTime   time.Duration `mapstructure:"slow_query_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Validate validates database configuration
func (cfg *Config) Validate() error {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	return nil
}

// Options defines database options
type Options struct {
	// Connection settings
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`

	// Query settings
	QueryTimeout time.Duration `json:"query_timeout"`

	// Metrics settings
	SlowQueryThreshold time.Duration `json:"slow_query_threshold"`
}

// Stats represents database statistics
type Stats struct {
	// Connection stats
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"wait_count"`
	WaitDuration    time.Duration `json:"wait_duration"`

	// Query stats
	QueryCount   int64         `json:"query_count"`
	QueryErrors  int64         `json:"query_errors"`
	SlowQueries  int64         `json:"slow_queries"`
	AvgQueryTime time.Duration `json:"avg_query_time"`
}
