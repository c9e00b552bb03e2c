package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"netbaseline/internal/types"

	"go.uber.org/zap"
)

// insertChunkSize bounds the rows per multi-row INSERT
const insertChunkSize = 100

const changeEventColumns = `id, org_id, site_id, baseline_id, event_type, ip_address,
        mac_address, hostname, asset_type, previous_state, current_state,
        linked_device_id, alert_id, detected_at`

// changeEventRepository represents network change event repository implementation
type changeEventRepository struct {
	base
}

// InsertBatch inserts events with multi-row statements
func (r *changeEventRepository) InsertBatch(ctx context.Context, events []*types.ChangeEvent) error {
	for start := 0; start < len(events); start += insertChunkSize {
		end := min(start+insertChunkSize, len(events))
		if err := r.insertChunk(ctx, events[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *changeEventRepository) insertChunk(ctx context.Context, events []*types.ChangeEvent) error {
	const row = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	rows := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*14)
	for _, e := range events {
		prev, err := stateArg(e.PreviousState)
		if err != nil {
			return err
		}
		curr, err := stateArg(e.CurrentState)
		if err != nil {
			return err
		}

		rows = append(rows, row)
		args = append(args,
			e.ID, e.OrgID, e.SiteID, e.BaselineID, string(e.EventType), e.IPAddress,
			nullString(e.MacAddress), nullString(e.Hostname), string(e.AssetType),
			prev, curr,
			nullString(e.LinkedDeviceID), nullString(e.AlertID), e.DetectedAt.UTC(),
		)
	}

	query := r.rebind("INSERT INTO network_change_events (" + changeEventColumns + ") VALUES " +
		strings.Join(rows, ", "))

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert network change events: %w", err)
	}
	return nil
}

// ListSince returns the baseline's events detected at or after since
func (r *changeEventRepository) ListSince(ctx context.Context, scope types.OrgScope, baselineID string, since time.Time) ([]*types.ChangeEvent, error) {
	query := r.rebind(`
        SELECT ` + changeEventColumns + `
        FROM network_change_events
        WHERE baseline_id = ? AND org_id = ? AND detected_at >= ?
        ORDER BY detected_at`)

	rows, err := r.q.QueryContext(ctx, query, baselineID, scope.OrgID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query network change events: %w", err)
	}
	defer rows.Close()

	var events []*types.ChangeEvent
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate network change events: %w", err)
	}

	return events, nil
}

// LinkAlert sets the late-bound alert id, and the linked device when given
func (r *changeEventRepository) LinkAlert(ctx context.Context, scope types.OrgScope, eventID, alertID, linkedDeviceID string) error {
	query := `UPDATE network_change_events SET alert_id = ?`
	args := []any{alertID}
	if linkedDeviceID != "" {
		query += `, linked_device_id = ?`
		args = append(args, linkedDeviceID)
	}
	query += ` WHERE id = ? AND org_id = ?`
	args = append(args, eventID, scope.OrgID)

	result, err := r.q.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to link alert to network change event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("network change event %s: %w", eventID, types.ErrNotFound)
	}

	return nil
}

func (r *changeEventRepository) scan(rows *sql.Rows) (*types.ChangeEvent, error) {
	var (
		e                     types.ChangeEvent
		eventType, assetType  string
		mac, hostname, linked sql.NullString
		alertID               sql.NullString
		previous, current     []byte
	)
	if err := rows.Scan(
		&e.ID, &e.OrgID, &e.SiteID, &e.BaselineID, &eventType, &e.IPAddress,
		&mac, &hostname, &assetType, &previous, &current,
		&linked, &alertID, &e.DetectedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan network change event: %w", err)
	}

	e.EventType = types.EventType(eventType)
	e.AssetType = types.AssetType(assetType)
	e.MacAddress = mac.String
	e.Hostname = hostname.String
	e.LinkedDeviceID = linked.String
	e.AlertID = alertID.String
	e.DetectedAt = e.DetectedAt.UTC()
	e.PreviousState = r.decodeState(e.ID, previous)
	e.CurrentState = r.decodeState(e.ID, current)

	return &e, nil
}

// decodeState tolerates malformed stored state; it only feeds fingerprints
func (r *changeEventRepository) decodeState(eventID string, data []byte) *types.DeviceState {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var state types.DeviceState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Debug("Ignoring malformed event state",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil
	}
	return &state
}

func stateArg(state *types.DeviceState) (any, error) {
	if state == nil {
		return nil, nil
	}
	return jsonArg(state)
}
