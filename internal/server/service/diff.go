package service

import (
	"time"

	"netbaseline/internal/normalize"
	"netbaseline/internal/types"
)

// uniqueHosts keeps the first occurrence of every scanned ip
func uniqueHosts(hosts []types.EnrichedHost) []types.EnrichedHost {
	out := make([]types.EnrichedHost, 0, len(hosts))
	seen := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if _, ok := seen[h.IP]; ok {
			continue
		}
		seen[h.IP] = struct{}{}
		out = append(out, h)
	}
	return out
}

// DiffScan compares the scanned hosts with the known devices and returns the
// candidate events in detection order. hosts must already be unique by ip.
func DiffScan(known []types.KnownDevice, hosts []types.EnrichedHost, policy *types.OrgNetworkPolicy, now time.Time, disappearAfter time.Duration) []*types.ChangeEvent {
	var events []*types.ChangeEvent

	byIP := make(map[string]*types.KnownDevice, len(known))
	for i := range known {
		byIP[known[i].IP] = &known[i]
	}

	scanned := make(map[string]struct{}, len(hosts))
	for i := range hosts {
		host := &hosts[i]
		scanned[host.IP] = struct{}{}

		k, ok := byIP[host.IP]
		if !ok {
			assetType := normalize.AssetType(host.AssetType)
			current := hostState(host, assetType)
			events = append(events, types.NewDeviceEvent(host, assetType, current))

			if reason := policy.Violation(host.Manufacturer, assetType); reason != "" {
				rogue := types.RogueDeviceEvent(host, assetType, current)
				rogue.PolicyViolation = reason
				events = append(events, rogue)
			}
			continue
		}

		if !deviceChanged(k, host) {
			continue
		}
		view := overlay(k, host)
		assetType := k.AssetType
		if host.AssetType != "" {
			assetType = normalize.AssetType(host.AssetType)
		}
		events = append(events, types.DeviceChangedEvent(&view, assetType, knownState(k, false), hostState(&view, assetType)))
	}

	for i := range known {
		k := &known[i]
		if _, ok := scanned[k.IP]; ok {
			continue
		}
		if now.Sub(k.LastSeen) > disappearAfter {
			events = append(events, types.DeviceDisappearedEvent(k, knownState(k, true)))
		}
	}

	return events
}

// deviceChanged compares the fields the host reports against the known
// values, ignoring fields the baseline never learned
func deviceChanged(k *types.KnownDevice, h *types.EnrichedHost) bool {
	if h.MAC != "" && k.MAC != "" && normalize.MAC(h.MAC) != normalize.MAC(k.MAC) {
		return true
	}
	if h.Hostname != "" && k.Hostname != "" && normalize.Hostname(h.Hostname) != normalize.Hostname(k.Hostname) {
		return true
	}
	if h.AssetType != "" && k.AssetType != "" && k.AssetType != types.AssetUnknown &&
		normalize.AssetType(h.AssetType) != k.AssetType {
		return true
	}
	return false
}

// overlay is the host as reported, with unreported fields taken from the
// known entry
func overlay(k *types.KnownDevice, h *types.EnrichedHost) types.EnrichedHost {
	view := *h
	if view.MAC == "" {
		view.MAC = k.MAC
	}
	if view.Hostname == "" {
		view.Hostname = k.Hostname
	}
	if view.Manufacturer == "" {
		view.Manufacturer = k.Manufacturer
	}
	if view.LinkedDeviceID == "" {
		view.LinkedDeviceID = k.LinkedDeviceID
	}
	return view
}

func hostState(h *types.EnrichedHost, assetType types.AssetType) *types.DeviceState {
	return &types.DeviceState{
		Hostname:     h.Hostname,
		MacAddress:   h.MAC,
		AssetType:    assetType,
		Manufacturer: h.Manufacturer,
		OpenPorts:    h.OpenPorts,
	}
}

func knownState(k *types.KnownDevice, withLastSeen bool) *types.DeviceState {
	state := &types.DeviceState{
		Hostname:       k.Hostname,
		MacAddress:     k.MAC,
		AssetType:      k.AssetType,
		Manufacturer:   k.Manufacturer,
		LinkedDeviceID: k.LinkedDeviceID,
	}
	if withLastSeen {
		lastSeen := k.LastSeen.UTC()
		state.LastSeen = &lastSeen
	}
	return state
}
