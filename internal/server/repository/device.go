package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"netbaseline/internal/types"
)

// Most recently seen first; devices never seen sort last
const latestSeenOrder = `ORDER BY d.last_seen_at IS NULL, d.last_seen_at DESC, d.id LIMIT 1`

// deviceRepository represents managed device repository implementation
type deviceRepository struct {
	base
}

// FindByNetwork returns a site device whose network data matches ip or mac
func (r *deviceRepository) FindByNetwork(ctx context.Context, scope types.OrgScope, ip, mac string) (string, error) {
	var (
		conds []string
		args  = []any{scope.OrgID, scope.SiteID}
	)
	if ip != "" {
		conds = append(conds, "dn.ip_address = ?")
		args = append(args, ip)
	}
	if mac = strings.ToLower(strings.TrimSpace(mac)); mac != "" {
		conds = append(conds, "LOWER(dn.mac_address) = ?")
		args = append(args, mac)
	}
	if len(conds) == 0 {
		return "", nil
	}

	query := `
        SELECT d.id
        FROM devices d
        JOIN device_network dn ON dn.device_id = d.id
        WHERE d.org_id = ? AND d.site_id = ? AND (` + strings.Join(conds, " OR ") + `)
        ` + latestSeenOrder

	return r.queryID(ctx, query, args...)
}

// LatestInSite returns the most recently seen device in the org's site
func (r *deviceRepository) LatestInSite(ctx context.Context, scope types.OrgScope) (string, error) {
	query := `
        SELECT d.id
        FROM devices d
        WHERE d.org_id = ? AND d.site_id = ?
        ` + latestSeenOrder

	return r.queryID(ctx, query, scope.OrgID, scope.SiteID)
}

// LatestInOrg returns the most recently seen device anywhere in the org
func (r *deviceRepository) LatestInOrg(ctx context.Context, scope types.OrgScope) (string, error) {
	query := `
        SELECT d.id
        FROM devices d
        WHERE d.org_id = ?
        ` + latestSeenOrder

	return r.queryID(ctx, query, scope.OrgID)
}

func (r *deviceRepository) queryID(ctx context.Context, query string, args ...any) (string, error) {
	var id string
	err := r.q.QueryRowContext(ctx, r.rebind(query), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query device: %w", err)
	}
	return id, nil
}
