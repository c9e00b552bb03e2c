// Package normalize turns loosely-typed persisted or inbound baseline data into
// canonical shapes. Every function here is total: malformed input degrades to
// defaults instead of returning an error.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"netbaseline/internal/types"

	"github.com/spf13/cast"
)

const (
	// DefaultIntervalHours is used when a schedule carries no usable interval
	DefaultIntervalHours = 4
	MinIntervalHours     = 1
	MaxIntervalHours     = 168
)

var separators = regexp.MustCompile(`[\s-]+`)

// assetAliases maps legacy discovery labels onto canonical asset types
var assetAliases = map[string]types.AssetType{
	"port_scan": types.AssetUnknown,
	"windows":   types.AssetWorkstation,
	"linux":     types.AssetWorkstation,
	"macos":     types.AssetWorkstation,
}

// AssetType canonicalises an asset type label
func AssetType(raw any) types.AssetType {
	s, ok := raw.(string)
	if !ok {
		if t, isType := raw.(types.AssetType); isType {
			s = string(t)
		} else {
			return types.AssetUnknown
		}
	}

	s = separators.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
	if alias, ok := assetAliases[s]; ok {
		return alias
	}

	t := types.AssetType(s)
	if t.Valid() {
		return t
	}
	return types.AssetUnknown
}

// ScanSchedule decodes a persisted schedule, clamping the interval to
// [MinIntervalHours, MaxIntervalHours] and deriving nextScanAt when missing
func ScanSchedule(raw any, fallbackIntervalHours int, now time.Time) types.ScanSchedule {
	m := toMap(raw)

	interval := clampInterval(fallbackIntervalHours)
	if v, ok := m["intervalHours"]; ok {
		if hours, ok := toFloat(v); ok {
			// clamp before converting so huge values cannot overflow int
			hours = math.Max(MinIntervalHours, math.Min(MaxIntervalHours, math.Floor(hours)))
			interval = int(hours)
		}
	}

	enabled := true
	if v, ok := m["enabled"]; ok {
		if b, ok := toBool(v); ok {
			enabled = b
		}
	}

	next := now.Add(time.Duration(interval) * time.Hour)
	if v, ok := m["nextScanAt"]; ok {
		if t, ok := toTime(v); ok {
			next = t
		}
	}

	return types.ScanSchedule{
		Enabled:       enabled,
		IntervalHours: interval,
		NextScanAt:    next.UTC(),
	}
}

// AlertSettings decodes per-event alert toggles; absent or non-boolean values
// fall back to alerting on everything except rogue devices
func AlertSettings(raw any) types.AlertSettings {
	m := toMap(raw)
	flag := func(key string, def bool) bool {
		if b, ok := m[key].(bool); ok {
			return b
		}
		return def
	}

	return types.AlertSettings{
		NewDevice:   flag("newDevice", true),
		Disappeared: flag("disappeared", true),
		Changed:     flag("changed", true),
		RogueDevice: flag("rogueDevice", false),
	}
}

// KnownDevices decodes the known-device list of a baseline. Entries without an
// ip are dropped, the first entry wins for a repeated ip, and missing or
// invalid timestamps default to now.
func KnownDevices(raw any, now time.Time) []types.KnownDevice {
	items := toSlice(raw)
	devices := make([]types.KnownDevice, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		ip := strings.TrimSpace(str(m["ip"]))
		if ip == "" {
			continue
		}
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}

		device := types.KnownDevice{
			IP:             ip,
			MAC:            str(m["mac"]),
			Hostname:       str(m["hostname"]),
			AssetType:      AssetType(m["assetType"]),
			Manufacturer:   str(m["manufacturer"]),
			LinkedDeviceID: str(m["linkedDeviceId"]),
			FirstSeen:      now,
			LastSeen:       now,
		}
		if t, ok := toTime(m["firstSeen"]); ok {
			device.FirstSeen = t
		}
		if t, ok := toTime(m["lastSeen"]); ok {
			device.LastSeen = t
		}

		devices = append(devices, device)
	}

	return devices
}

// MAC lowercases and trims a hardware address for comparison
func MAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}

// Hostname lowercases and trims a hostname for comparison
func Hostname(hostname string) string {
	return strings.ToLower(strings.TrimSpace(hostname))
}

// clampInterval bounds an interval to the allowed schedule range
func clampInterval(hours int) int {
	if hours < MinIntervalHours {
		return MinIntervalHours
	}
	if hours > MaxIntervalHours {
		return MaxIntervalHours
	}
	return hours
}

// toMap accepts a decoded object or raw JSON bytes
func toMap(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case json.RawMessage:
		return decodeMap(v)
	case []byte:
		return decodeMap(v)
	case string:
		return decodeMap([]byte(v))
	default:
		return map[string]any{}
	}
}

func decodeMap(data []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// toSlice accepts a decoded array or raw JSON bytes
func toSlice(raw any) []any {
	var data []byte
	switch v := raw.(type) {
	case []any:
		return v
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil
	}

	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number, string:
	default:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(v any) (bool, bool) {
	switch v.(type) {
	case bool, string:
	default:
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func toTime(v any) (time.Time, bool) {
	switch v.(type) {
	case string, time.Time:
	default:
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(v)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t.UTC(), true
}
