package database

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLDatabase represents MySQL specific implementation
type MySQLDatabase struct {
	*Database
}

// NewMySQLDatabase creates new MySQL database instance
func NewMySQLDatabase(dsn string, opts Options, logger *zap.Logger) (Interface, error) {
	// Add parameters
	params := []string{
		"charset=utf8mb4",
		"loc=UTC",
		"time_zone=%27%2B00%3A00%27",
	}

	if !strings.Contains(dsn, "parseTime=true") {
		params = append(params, "parseTime=true")
	}
	if !strings.Contains(dsn, "multiStatements=") {
		params = append(params, "multiStatements=true")
	}
	if !strings.Contains(dsn, "clientFoundRows=") {
		params = append(params, "clientFoundRows=true")
	}

	// Append params to DSN
	queryStart := "?"
	if strings.Contains(dsn, "?") {
		queryStart = "&"
	}
	dsn += queryStart + strings.Join(params, "&")

	base, err := newDatabase(DriverMySQL, "mysql", dsn, opts, logger)
	if err != nil {
		return nil, err
	}

	d := &MySQLDatabase{
		Database: base,
	}

	if err := d.init(); err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	return d, nil
}

// init verifies connectivity; session variables are carried by the DSN
// so every pooled connection gets them
func (d *MySQLDatabase) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.QueryTimeout)
	defer cancel()

	if err := d.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	return nil
}
