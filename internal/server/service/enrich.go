package service

import (
	"context"
	"fmt"
	"strings"

	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"
)

// EnrichHosts fills gaps in the scanned hosts from the discovered-assets
// index. Hosts without an ip are dropped; a field is only taken from the
// asset when the host lacks it.
func EnrichHosts(ctx context.Context, assets repository.DiscoveredAssetRepository, scope types.OrgScope, hosts []types.HostResult) ([]types.EnrichedHost, error) {
	filtered := make([]types.HostResult, 0, len(hosts))
	ips := make([]string, 0, len(hosts))
	seen := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h.IP = strings.TrimSpace(h.IP)
		if h.IP == "" {
			continue
		}
		filtered = append(filtered, h)
		if _, ok := seen[h.IP]; !ok {
			seen[h.IP] = struct{}{}
			ips = append(ips, h.IP)
		}
	}
	if len(filtered) == 0 {
		return []types.EnrichedHost{}, nil
	}

	byIP, err := assets.FindByIPs(ctx, scope, ips)
	if err != nil {
		return nil, fmt.Errorf("failed to load discovered assets: %w", err)
	}

	enriched := make([]types.EnrichedHost, 0, len(filtered))
	for _, h := range filtered {
		e := types.EnrichedHost{HostResult: h}
		if a, ok := byIP[h.IP]; ok {
			if e.MAC == "" {
				e.MAC = a.MacAddress
			}
			if e.Hostname == "" {
				e.Hostname = a.Hostname
			}
			if e.AssetType == "" {
				e.AssetType = a.AssetType
			}
			if e.Manufacturer == "" {
				e.Manufacturer = a.Manufacturer
			}
			if len(e.OpenPorts) == 0 {
				e.OpenPorts = a.OpenPorts
			}
			e.LinkedDeviceID = a.LinkedDeviceID
		}
		enriched = append(enriched, e)
	}

	return enriched, nil
}
