package service

import (
	"testing"
	"time"

	"netbaseline/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	lastSeen := time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC)
	base := func() *types.ChangeEvent {
		return &types.ChangeEvent{
			EventType:  types.EventDeviceDisappeared,
			IPAddress:  "10.0.0.7",
			MacAddress: "AA:BB:CC:DD:EE:FF",
			Hostname:   "NAS-1",
			AssetType:  types.AssetNAS,
			PreviousState: &types.DeviceState{
				Hostname:   "nas-1",
				MacAddress: "aa:bb:cc:dd:ee:ff",
				AssetType:  types.AssetNAS,
				LastSeen:   &lastSeen,
			},
		}
	}

	t.Run("normalizes mac and hostname", func(t *testing.T) {
		other := base()
		other.MacAddress = " aa:bb:cc:dd:ee:ff "
		other.Hostname = "nas-1"
		assert.Equal(t, Fingerprint(base()), Fingerprint(other))
	})

	t.Run("ignores ids and detection time", func(t *testing.T) {
		other := base()
		other.ID = "event-2"
		other.DetectedAt = time.Now()
		other.AlertID = "alert-1"
		assert.Equal(t, Fingerprint(base()), Fingerprint(other))
	})

	t.Run("timezone of state timestamps", func(t *testing.T) {
		other := base()
		local := lastSeen.In(time.FixedZone("CEST", 2*60*60))
		other.PreviousState.LastSeen = &local
		assert.Equal(t, Fingerprint(base()), Fingerprint(other))
	})

	t.Run("state differences", func(t *testing.T) {
		other := base()
		later := lastSeen.Add(time.Hour)
		other.PreviousState.LastSeen = &later
		assert.NotEqual(t, Fingerprint(base()), Fingerprint(other))
	})

	t.Run("event type", func(t *testing.T) {
		other := base()
		other.EventType = types.EventDeviceChanged
		assert.NotEqual(t, Fingerprint(base()), Fingerprint(other))
	})

	t.Run("nil states", func(t *testing.T) {
		e := &types.ChangeEvent{EventType: types.EventNewDevice, IPAddress: "10.0.0.1"}
		assert.Equal(t, "new_device:10.0.0.1:::::", Fingerprint(e))
	})
}

func TestDedupSet(t *testing.T) {
	seeded := &types.ChangeEvent{EventType: types.EventNewDevice, IPAddress: "10.0.0.1"}
	d := newDedupSet([]*types.ChangeEvent{seeded})

	assert.False(t, d.TryQueue(&types.ChangeEvent{EventType: types.EventNewDevice, IPAddress: "10.0.0.1"}))
	assert.True(t, d.TryQueue(&types.ChangeEvent{EventType: types.EventNewDevice, IPAddress: "10.0.0.2"}))
	assert.False(t, d.TryQueue(&types.ChangeEvent{EventType: types.EventNewDevice, IPAddress: "10.0.0.2"}))
	assert.True(t, d.TryQueue(&types.ChangeEvent{EventType: types.EventRogueDevice, IPAddress: "10.0.0.2"}))
	assert.Len(t, d.queued, 2)
}
