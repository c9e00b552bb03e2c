package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteDatabase represents SQLite specific implementation
type SQLiteDatabase struct {
	*Database
	path string
}

// NewSQLiteDatabase creates new SQLite database instance
func NewSQLiteDatabase(dsn string, opts Options, logger *zap.Logger) (Interface, error) {
	// Ensure the database directory exists
	if err := ensureDBDir(dsn); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY inside transactions
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1

	base, err := newDatabase(DriverSQLite, "sqlite3", addSQLiteParams(dsn), opts, logger)
	if err != nil {
		return nil, err
	}

	d := &SQLiteDatabase{
		Database: base,
		path:     dsn,
	}

	if err := d.init(); err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}

	return d, nil
}

// init verifies the connection; per-connection pragmas travel in the DSN
// so a recycled connection keeps them
func (d *SQLiteDatabase) init() error {
	var fk int
	if err := d.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}
	if fk != 1 {
		return fmt.Errorf("foreign keys are disabled")
	}
	return nil
}

// ensureDBDir creates the parent directory of a file backed database
func ensureDBDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0755)
}

// sqliteParams are the go-sqlite3 connection parameters applied unless the
// DSN sets them itself
var sqliteParams = []struct {
	name  string
	value string
}{
	{"_loc", "UTC"},
	{"_foreign_keys", "1"},
	{"_busy_timeout", "5000"},
	{"_journal_mode", "WAL"},
	{"_synchronous", "NORMAL"},
}

// addSQLiteParams appends connection parameters understood by go-sqlite3
func addSQLiteParams(dsn string) string {
	for _, p := range sqliteParams {
		if strings.Contains(dsn, p.name+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.name + "=" + p.value
	}
	return dsn
}
