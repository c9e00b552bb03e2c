package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PostgresDatabase represents PostgreSQL database implementation
type PostgresDatabase struct {
	*Database
}

// NewPostgresDatabase creates new PostgreSQL database instance
func NewPostgresDatabase(dsn string, opts Options, logger *zap.Logger) (Interface, error) {
	// Add parameters
	if !strings.Contains(dsn, "sslmode=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "sslmode=disable"
	}

	base, err := newDatabase(DriverPostgres, "pgx", dsn, opts, logger)
	if err != nil {
		return nil, err
	}

	d := &PostgresDatabase{
		Database: base,
	}

	if err := d.init(); err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	return d, nil
}

// init verifies connectivity; session settings belong to the pool DSN
func (d *PostgresDatabase) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.QueryTimeout)
	defer cancel()

	if err := d.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	return nil
}

// WithTransaction overrides default implementation for PostgreSQL
func (d *PostgresDatabase) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return d.withTransaction(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	}, fn)
}
