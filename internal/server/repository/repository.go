// Package repository implements SQL storage for the baseline engine. Every
// query is bound to an explicit organization scope and written with `?`
// placeholders, rebound for PostgreSQL.
package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"netbaseline/internal/database"
	"netbaseline/internal/utils"

	"go.uber.org/zap"
)

// Repositories groups the repositories sharing one executor, either the
// connection pool or a transaction
type Repositories struct {
	Baselines     BaselineRepository
	Events        ChangeEventRepository
	Assets        DiscoveredAssetRepository
	Devices       DeviceRepository
	Organizations OrganizationRepository
	Alerts        AlertRepository
}

// New creates repositories bound to q
func New(q database.Executor, driver string, logger *zap.Logger) *Repositories {
	b := base{q: q, driver: driver, logger: logger}
	return &Repositories{
		Baselines:     &baselineRepository{b},
		Events:        &changeEventRepository{b},
		Assets:        &discoveredAssetRepository{b},
		Devices:       &deviceRepository{b},
		Organizations: &organizationRepository{b},
		Alerts:        &alertRepository{b},
	}
}

// FromDB creates repositories on the connection pool
func FromDB(db database.Interface, logger *zap.Logger) *Repositories {
	return New(db, db.Driver(), logger)
}

// FromTx creates repositories on a transaction
func FromTx(tx *sql.Tx, driver string, logger *zap.Logger) *Repositories {
	return New(tx, driver, logger)
}

type base struct {
	q      database.Executor
	driver string
	logger *zap.Logger
}

// rebind converts `?` placeholders for drivers that need numbered ones
func (b base) rebind(query string) string {
	if b.driver == database.DriverPostgres {
		return utils.ConvertPlaceholders(query)
	}
	return query
}

// jsonArg encodes v for a JSON column; nil stays NULL
func jsonArg(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
