package repository

import (
	"context"
	"fmt"

	"netbaseline/internal/types"
)

// alertRepository represents alert repository implementation
type alertRepository struct {
	base
}

// Create inserts an alert
func (r *alertRepository) Create(ctx context.Context, alert *types.Alert) error {
	alertCtx := alert.Context
	if alertCtx == nil {
		alertCtx = map[string]any{}
	}
	contextArg, err := jsonArg(alertCtx)
	if err != nil {
		return err
	}

	query := r.rebind(`
        INSERT INTO alerts (
            id, org_id, device_id, severity, title, message,
            context, status, triggered_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	if _, err := r.q.ExecContext(ctx, query,
		alert.ID, alert.OrgID, alert.DeviceID, string(alert.Severity),
		alert.Title, alert.Message, contextArg, string(alert.Status),
		alert.TriggeredAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}
