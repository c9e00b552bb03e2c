package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Database represents the base database implementation
type Database struct {
	db      *sql.DB
	driver  string
	logger  *zap.Logger
	opts    Options
	metrics *metrics
	mu      sync.Mutex
	closed  bool
}

// metrics represents database metrics
type metrics struct {
	queryCount  int64
	queryErrors int64
	slowQueries int64
	queryTime   int64
}

// newDatabase creates new base database instance
func newDatabase(driver, sqlDriver, dsn string, opts Options, logger *zap.Logger) (*Database, error) {
	// Set default options
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 25
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 3600 * time.Second
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 60 * time.Second
	}
	if opts.SlowQueryThreshold <= 0 {
		opts.SlowQueryThreshold = time.Second
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	return &Database{
		db:      db,
		driver:  driver,
		logger:  logger,
		opts:    opts,
		metrics: &metrics{},
	}, nil
}

// ExecContext executes query and returns result
func (d *Database) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	// Add timeout if not set
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := d.db.ExecContext(ctx, query, args...)
	d.recordMetrics(start, err)

	return result, err
}

// QueryContext executes query and returns rows.
// No timeout is attached here since the rows outlive this call.
func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.recordMetrics(start, err)

	return rows, err
}

// QueryRowContext executes query and returns row
func (d *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.recordMetrics(start, row.Err())
	return row
}

// BeginTx starts a transaction
func (d *Database) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return d.db.BeginTx(ctx, opts)
}

// WithTransaction executes a transaction
func (d *Database) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return d.withTransaction(ctx, nil, fn)
}

func (d *Database) withTransaction(ctx context.Context, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return NewError("tx_begin", "begin transaction", "WithTransaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				d.logger.Error("Transaction rollback failed during panic",
					zap.Error(rbErr))
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewError("tx_commit", "commit transaction", "WithTransaction", err)
	}
	return nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Stats returns database statistics
func (d *Database) Stats() Stats {
	dbStats := d.db.Stats()

	var avg time.Duration
	if count := atomic.LoadInt64(&d.metrics.queryCount); count > 0 {
		avg = time.Duration(atomic.LoadInt64(&d.metrics.queryTime) / count)
	}

	return Stats{
		OpenConnections: dbStats.OpenConnections,
		InUse:           dbStats.InUse,
		Idle:            dbStats.Idle,
		WaitCount:       dbStats.WaitCount,
		WaitDuration:    dbStats.WaitDuration,
		QueryCount:      atomic.LoadInt64(&d.metrics.queryCount),
		QueryErrors:     atomic.LoadInt64(&d.metrics.queryErrors),
		SlowQueries:     atomic.LoadInt64(&d.metrics.slowQueries),
		AvgQueryTime:    avg,
	}
}

// Driver returns the logical database driver name
func (d *Database) Driver() string {
	return d.driver
}

// Unwrap returns the underlying database connection
func (d *Database) Unwrap() *sql.DB {
	return d.db
}

// recordMetrics safely records operation metrics
func (d *Database) recordMetrics(start time.Time, err error) {
	duration := time.Since(start)

	atomic.AddInt64(&d.metrics.queryCount, 1)
	atomic.AddInt64(&d.metrics.queryTime, int64(duration))

	if err != nil {
		atomic.AddInt64(&d.metrics.queryErrors, 1)
	}

	if duration > d.opts.SlowQueryThreshold {
		atomic.AddInt64(&d.metrics.slowQueries, 1)
		d.logger.Warn("Slow query detected",
			zap.Duration("duration", duration))
	}
}
