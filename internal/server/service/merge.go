package service

import (
	"sort"
	"time"

	"netbaseline/internal/normalize"
	"netbaseline/internal/types"
)

// MergeKnownDevices folds the scanned hosts into the known-device list.
// Scanned devices get lastSeen = now and keep their firstSeen; fields the
// scan reports overwrite the stored ones. Devices missing from the scan are
// carried over unchanged. The result is sorted by ip.
func MergeKnownDevices(existing []types.KnownDevice, hosts []types.EnrichedHost, now time.Time) []types.KnownDevice {
	now = now.UTC()
	byIP := make(map[string]types.KnownDevice, len(existing)+len(hosts))
	for _, k := range existing {
		byIP[k.IP] = k
	}

	for _, h := range uniqueHosts(hosts) {
		k, ok := byIP[h.IP]
		if !ok {
			k = types.KnownDevice{IP: h.IP, FirstSeen: now}
		}
		if k.FirstSeen.IsZero() {
			k.FirstSeen = now
		}
		k.LastSeen = now

		if h.MAC != "" {
			k.MAC = h.MAC
		}
		if h.Hostname != "" {
			k.Hostname = h.Hostname
		}
		if h.AssetType != "" {
			k.AssetType = normalize.AssetType(h.AssetType)
		} else if k.AssetType == "" {
			k.AssetType = types.AssetUnknown
		}
		if h.Manufacturer != "" {
			k.Manufacturer = h.Manufacturer
		}
		if h.LinkedDeviceID != "" {
			k.LinkedDeviceID = h.LinkedDeviceID
		}

		byIP[h.IP] = k
	}

	merged := make([]types.KnownDevice, 0, len(byIP))
	for _, k := range byIP {
		merged = append(merged, k)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].IP < merged[j].IP })

	return merged
}
