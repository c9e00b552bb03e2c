package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"netbaseline/internal/types"
	"netbaseline/internal/utils"

	"go.uber.org/zap"
)

// lookupChunkSize bounds the ips per IN clause
const lookupChunkSize = 500

// discoveredAssetRepository represents discovered asset repository implementation
type discoveredAssetRepository struct {
	base
}

// FindByIPs returns the org's discovered assets keyed by ip address
func (r *discoveredAssetRepository) FindByIPs(ctx context.Context, scope types.OrgScope, ips []string) (map[string]*types.DiscoveredAsset, error) {
	assets := make(map[string]*types.DiscoveredAsset, len(ips))

	for start := 0; start < len(ips); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(ips))
		if err := r.findChunk(ctx, scope, ips[start:end], assets); err != nil {
			return nil, err
		}
	}

	return assets, nil
}

func (r *discoveredAssetRepository) findChunk(ctx context.Context, scope types.OrgScope, ips []string, out map[string]*types.DiscoveredAsset) error {
	query := r.rebind(`
        SELECT org_id, ip_address, mac_address, hostname, asset_type,
               manufacturer, open_ports, linked_device_id
        FROM discovered_assets
        WHERE org_id = ? AND ip_address IN (` + utils.Placeholders(len(ips)) + `)`)

	args := make([]any, 0, len(ips)+1)
	args = append(args, scope.OrgID)
	for _, ip := range ips {
		args = append(args, ip)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query discovered assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a                        types.DiscoveredAsset
			mac, hostname, assetType sql.NullString
			manufacturer, linked     sql.NullString
			openPorts                []byte
		)
		if err := rows.Scan(&a.OrgID, &a.IPAddress, &mac, &hostname, &assetType,
			&manufacturer, &openPorts, &linked); err != nil {
			return fmt.Errorf("failed to scan discovered asset: %w", err)
		}

		a.MacAddress = mac.String
		a.Hostname = hostname.String
		a.AssetType = assetType.String
		a.Manufacturer = manufacturer.String
		a.LinkedDeviceID = linked.String
		if len(openPorts) > 0 {
			if err := json.Unmarshal(openPorts, &a.OpenPorts); err != nil {
				r.logger.Debug("Ignoring malformed open ports",
					zap.String("ip", a.IPAddress),
					zap.Error(err))
			}
		}

		out[a.IPAddress] = &a
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate discovered assets: %w", err)
	}

	return nil
}

// LinkedDeviceID returns the device linked to the org's asset at ip, or ""
func (r *discoveredAssetRepository) LinkedDeviceID(ctx context.Context, scope types.OrgScope, ip string) (string, error) {
	query := r.rebind(`
        SELECT linked_device_id
        FROM discovered_assets
        WHERE org_id = ? AND ip_address = ? AND linked_device_id IS NOT NULL
        LIMIT 1`)

	var linked sql.NullString
	err := r.q.QueryRowContext(ctx, query, scope.OrgID, ip).Scan(&linked)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query discovered asset link: %w", err)
	}

	return linked.String, nil
}
