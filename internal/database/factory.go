package database

import (
	"context"
	"fmt"
	"time"

	"netbaseline/internal/database/migration"

	"go.uber.org/zap"
)

// New creates new database instance based on configuration
func New(cfg *Config, logger *zap.Logger) (Interface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	// Run migrations on a dedicated connection; the migrate driver closes it
	if cfg.AutoMigrate {
		if err := Migrate(context.Background(), cfg, logger); err != nil {
			logger.Error("Failed to run migrations", zap.Error(err))
			return nil, err
		}
	}

	db, err := newInstance(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// Migrate applies all pending migrations for the configured driver
func Migrate(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	return withMigrator(ctx, cfg, logger, func(ctx context.Context, m *migration.Migrator) error {
		logger.Info("Running migrations to latest version", zap.String("driver", cfg.Driver))
		if err := m.Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// Rollback reverts the last steps migrations
func Rollback(ctx context.Context, cfg *Config, steps int, logger *zap.Logger) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	return withMigrator(ctx, cfg, logger, func(ctx context.Context, m *migration.Migrator) error {
		logger.Info("Rolling back migrations", zap.String("driver", cfg.Driver), zap.Int("steps", steps))
		return m.Rollback(ctx, steps)
	})
}

// MigrationVersion reports the applied schema version
func MigrationVersion(ctx context.Context, cfg *Config, logger *zap.Logger) (version uint, dirty bool, err error) {
	err = withMigrator(ctx, cfg, logger, func(_ context.Context, m *migration.Migrator) error {
		var verr error
		version, dirty, verr = m.Version()
		return verr
	})
	return version, dirty, err
}

// withMigrator runs fn on a dedicated connection; the migrate driver closes it
func withMigrator(ctx context.Context, cfg *Config, logger *zap.Logger, fn func(context.Context, *migration.Migrator) error) error {
	db, err := newInstance(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection for migrations: %w", err)
	}

	migrator, err := migration.NewMigrator(db.Unwrap(), cfg.Driver, logger)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error("Failed to close migrator", zap.Error(err))
		}
		_ = db.Close()
	}()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
	}

	return fn(ctx, migrator)
}

// newInstance creates new database instance based on configuration
func newInstance(cfg *Config, logger *zap.Logger) (Interface, error) {
	opts := Options{
		MaxOpenConns:       cfg.MaxConnections,
		MaxIdleConns:       cfg.MaxIdleConns,
		ConnMaxLifetime:    cfg.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.ConnMaxLifetime,
		QueryTimeout:       cfg.QueryTimeout,
		SlowQueryThreshold: cfg.SlowQueryTime,
	}

	switch cfg.Driver {
	case DriverSQLite:
		return NewSQLiteDatabase(cfg.DSN, opts, logger)
	case DriverMySQL:
		return NewMySQLDatabase(cfg.DSN, opts, logger)
	case DriverPostgres:
		return NewPostgresDatabase(cfg.DSN, opts, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
