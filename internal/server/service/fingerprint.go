package service

import (
	"strings"

	"netbaseline/internal/normalize"
	"netbaseline/internal/types"
	"netbaseline/internal/utils"
)

// Fingerprint identifies an event by its content so repeated detections of
// the same discrepancy collapse into one
func Fingerprint(e *types.ChangeEvent) string {
	return strings.Join([]string{
		string(e.EventType),
		e.IPAddress,
		normalize.MAC(e.MacAddress),
		normalize.Hostname(e.Hostname),
		strings.ToLower(string(e.AssetType)),
		stable(e.PreviousState),
		stable(e.CurrentState),
	}, ":")
}

func stable(state *types.DeviceState) string {
	if state == nil {
		return ""
	}
	return utils.StableStringify(state)
}

// dedupSet queues events whose fingerprint has not been seen yet
type dedupSet struct {
	seen   map[string]struct{}
	queued []*types.ChangeEvent
}

func newDedupSet(recent []*types.ChangeEvent) *dedupSet {
	d := &dedupSet{seen: make(map[string]struct{}, len(recent))}
	for _, e := range recent {
		d.seen[Fingerprint(e)] = struct{}{}
	}
	return d
}

// TryQueue adds e unless an identical event was already recorded
func (d *dedupSet) TryQueue(e *types.ChangeEvent) bool {
	fp := Fingerprint(e)
	if _, ok := d.seen[fp]; ok {
		return false
	}
	d.seen[fp] = struct{}{}
	d.queued = append(d.queued, e)
	return true
}
