package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"netbaseline/internal/types"
)

// baselineRepository represents network baseline repository implementation
type baselineRepository struct {
	base
}

// Get returns the baseline by id within the org and site
func (r *baselineRepository) Get(ctx context.Context, scope types.OrgScope, id string) (*types.BaselineRecord, error) {
	query := r.rebind(`
        SELECT id, org_id, site_id, subnet, known_devices, scan_schedule,
               alert_settings, last_scan_at, created_at, updated_at
        FROM network_baselines
        WHERE id = ? AND org_id = ? AND site_id = ?`)

	var rec types.BaselineRecord
	var known, schedule, alertSettings []byte
	var lastScanAt sql.NullTime
	err := r.q.QueryRowContext(ctx, query, id, scope.OrgID, scope.SiteID).Scan(
		&rec.ID,
		&rec.OrgID,
		&rec.SiteID,
		&rec.Subnet,
		&known,
		&schedule,
		&alertSettings,
		&lastScanAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrBaselineNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query network baseline: %w", err)
	}

	rec.KnownDevices = known
	rec.ScanSchedule = schedule
	rec.AlertSettings = alertSettings
	if lastScanAt.Valid {
		t := lastScanAt.Time.UTC()
		rec.LastScanAt = &t
	}

	return &rec, nil
}

// Update writes back the merged known devices, schedule and scan times
func (r *baselineRepository) Update(ctx context.Context, scope types.OrgScope, id string, update *types.BaselineUpdate) error {
	known := update.KnownDevices
	if known == nil {
		known = []types.KnownDevice{}
	}
	knownArg, err := jsonArg(known)
	if err != nil {
		return err
	}
	scheduleArg, err := jsonArg(update.ScanSchedule)
	if err != nil {
		return err
	}

	query := r.rebind(`
        UPDATE network_baselines
        SET known_devices = ?, scan_schedule = ?, last_scan_at = ?, updated_at = ?
        WHERE id = ? AND org_id = ? AND site_id = ?`)

	result, err := r.q.ExecContext(ctx, query,
		knownArg, scheduleArg,
		update.LastScanAt.UTC(), update.UpdatedAt.UTC(),
		id, scope.OrgID, scope.SiteID)
	if err != nil {
		return fmt.Errorf("failed to update network baseline: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", types.ErrBaselineNotFound, id)
	}

	return nil
}
