// Package migration applies the embedded schema migrations with golang-migrate.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql
var migrations embed.FS

// Migrator handles database migrations
type Migrator struct {
	driver  string
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// NewMigrator creates a new migrator for the logical driver name
// (postgres, sqlite or mysql)
func NewMigrator(db *sql.DB, driver string, logger *zap.Logger) (*Migrator, error) {
	var (
		instance database.Driver
		name     string
		err      error
	)

	switch driver {
	case "sqlite":
		name = "sqlite3"
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "mysql":
		name = "mysql"
		instance, err = mysql.WithInstance(db, &mysql.Config{})
	case "postgres":
		name = "postgres"
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s driver: %w", driver, err)
	}

	source, err := iofs.New(migrations, "sql/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator instance: %w", err)
	}

	return &Migrator{
		driver:  driver,
		migrate: m,
		logger:  logger,
	}, nil
}

// Up executes pending migrations
func (m *Migrator) Up(ctx context.Context) error {
	m.logger.Info("Starting migrations...", zap.String("driver", m.driver))
	err := m.run(ctx, func() error {
		if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	})
	if err != nil {
		m.logger.Error("Migration failed", zap.Error(err))
		return err
	}
	m.logger.Info("Migrations completed successfully")
	return nil
}

// Rollback rolls back the last `steps` migrations
func (m *Migrator) Rollback(ctx context.Context, steps int) error {
	return m.run(ctx, func() error {
		if err := m.migrate.Steps(-steps); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		return nil
	})
}

// Version returns the current migration version
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases resources
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration database: %w", dbErr)
	}
	return nil
}

// run executes fn and gives up waiting once ctx is done; golang-migrate
// has no context support so a cancelled run finishes in the background
func (m *Migrator) run(ctx context.Context, fn func() error) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- fn()
	}()

	select {
	case <-ctx.Done():
		m.logger.Warn("Migration cancelled by context")
		return fmt.Errorf("migration cancelled: %w", ctx.Err())
	case err := <-errChan:
		return err
	}
}
