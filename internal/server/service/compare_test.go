package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"netbaseline/internal/normalize"
	"netbaseline/internal/types"
	"netbaseline/internal/validator"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompareBaselineScan_NewDevice(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{}`)

	result := env.compare(types.HostResult{IP: "10.0.0.5", MAC: "AA:BB:CC:DD:EE:01", Hostname: "laptop-1", AssetType: "Windows"})

	assert.Equal(t, &types.CompareResult{
		BaselineID:     testBaseline,
		ProcessedHosts: 1,
		NewDevices:     1,
		EventsCreated:  1,
		AlertsSkipped:  1,
	}, result)

	events := env.events()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, types.EventNewDevice, e.EventType)
	assert.Equal(t, "10.0.0.5", e.IPAddress)
	assert.Equal(t, types.AssetWorkstation, e.AssetType)
	assert.Nil(t, e.PreviousState)
	require.NotNil(t, e.CurrentState)
	assert.Equal(t, "laptop-1", e.CurrentState.Hostname)
	assert.True(t, e.DetectedAt.Equal(testNow))

	known := env.known()
	require.Len(t, known, 1)
	assert.Equal(t, "10.0.0.5", known[0].IP)
	assert.True(t, known[0].FirstSeen.Equal(testNow))
	assert.True(t, known[0].FirstSeen.Equal(known[0].LastSeen))
	assert.Equal(t, types.AssetWorkstation, known[0].AssetType)

	// no device exists in the org, so the alert is skipped
	assert.Empty(t, env.alerts())
}

func TestCompareBaselineScan_IdempotentRerun(t *testing.T) {
	env := newTestEnv(t)
	env.baseline([]types.KnownDevice{
		{IP: "10.0.0.20", MAC: "aa:aa:aa:aa:aa:20", FirstSeen: testNow.Add(-72 * time.Hour), LastSeen: testNow.Add(-48 * time.Hour)},
	}, `{}`)
	hosts := []types.HostResult{
		{IP: "10.0.0.5", MAC: "aa:bb:cc:dd:ee:01"},
		{IP: "10.0.0.6", MAC: "aa:bb:cc:dd:ee:02"},
	}

	first := env.compare(hosts...)
	assert.Equal(t, 2, first.NewDevices)
	assert.Equal(t, 1, first.DisappearedDevices)
	assert.Equal(t, 3, first.EventsCreated)

	env.now = testNow.Add(time.Hour)
	second := env.compare(hosts...)
	assert.Equal(t, 0, second.EventsCreated)
	assert.Equal(t, 0, second.NewDevices)
	assert.Equal(t, 0, second.DisappearedDevices)

	assert.Len(t, env.events(), 3)
	assert.Len(t, env.known(), 3)
}

func TestCompareBaselineScan_Disappearance(t *testing.T) {
	tests := []struct {
		name     string
		lastSeen time.Duration
		want     int
	}{
		{"stale for 25h", 25 * time.Hour, 1},
		{"seen 1h ago", time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			lastSeen := testNow.Add(-tt.lastSeen)
			env.baseline([]types.KnownDevice{
				{IP: "10.0.0.7", Hostname: "nas-1", AssetType: types.AssetNAS, FirstSeen: lastSeen, LastSeen: lastSeen},
			}, `{}`)

			result := env.compare()
			assert.Equal(t, tt.want, result.DisappearedDevices)
			assert.Equal(t, tt.want, result.EventsCreated)

			events := env.events()
			require.Len(t, events, tt.want)
			if tt.want > 0 {
				e := events[0]
				assert.Equal(t, types.EventDeviceDisappeared, e.EventType)
				assert.Nil(t, e.CurrentState)
				require.NotNil(t, e.PreviousState)
				require.NotNil(t, e.PreviousState.LastSeen)
				assert.True(t, e.PreviousState.LastSeen.Equal(lastSeen))
			}

			// absent devices are carried over unchanged
			known := env.known()
			require.Len(t, known, 1)
			assert.True(t, known[0].LastSeen.Equal(lastSeen))
		})
	}
}

func TestCompareBaselineScan_DeviceChanged(t *testing.T) {
	env := newTestEnv(t)
	firstSeen := testNow.Add(-10 * 24 * time.Hour)
	env.baseline([]types.KnownDevice{
		{IP: "10.0.0.8", MAC: "aa:aa:aa:aa:aa:aa", Hostname: "srv-1", AssetType: types.AssetServer, FirstSeen: firstSeen, LastSeen: testNow.Add(-time.Hour)},
	}, `{"changed": false}`)

	result := env.compare(types.HostResult{IP: "10.0.0.8", MAC: "BB:BB:BB:BB:BB:BB"})
	assert.Equal(t, 1, result.ChangedDevices)
	assert.Equal(t, 0, result.AlertsCreated)
	assert.Equal(t, 0, result.AlertsSkipped)

	events := env.events()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, types.EventDeviceChanged, e.EventType)
	require.NotNil(t, e.PreviousState)
	require.NotNil(t, e.CurrentState)
	assert.Equal(t, "aa:aa:aa:aa:aa:aa", e.PreviousState.MacAddress)
	assert.Equal(t, "BB:BB:BB:BB:BB:BB", e.CurrentState.MacAddress)
	assert.Equal(t, "srv-1", e.CurrentState.Hostname)

	known := env.known()
	require.Len(t, known, 1)
	assert.Equal(t, "BB:BB:BB:BB:BB:BB", known[0].MAC)
	assert.Equal(t, "srv-1", known[0].Hostname)
	assert.True(t, known[0].FirstSeen.Equal(firstSeen))
	assert.True(t, known[0].LastSeen.Equal(testNow))

	// same mac in different case is not a change
	env.now = testNow.Add(time.Hour)
	result = env.compare(types.HostResult{IP: "10.0.0.8", MAC: "bb:bb:bb:bb:bb:bb"})
	assert.Equal(t, 0, result.EventsCreated)
}

func TestCompareBaselineScan_RoguePolicy(t *testing.T) {
	env := newTestEnv(t)
	env.orgSettings(`{"network": {"allowedAssetTypes": ["server"]}}`)
	env.baseline(nil, `{"rogueDevice": true}`)
	env.device("dev-1", testSite, testNow.Add(-time.Hour))
	env.deviceNetwork("dev-1", "10.0.0.9", "cc:cc:cc:cc:cc:cc")

	result := env.compare(types.HostResult{IP: "10.0.0.9", AssetType: "workstation", Manufacturer: "Dell"})
	assert.Equal(t, 1, result.NewDevices)
	assert.Equal(t, 1, result.RogueDevices)
	assert.Equal(t, 2, result.EventsCreated)
	assert.Equal(t, 2, result.AlertsCreated)

	events := env.events()
	require.Len(t, events, 2)
	for _, e := range events {
		assert.NotEmpty(t, e.AlertID)
		assert.Equal(t, "dev-1", e.LinkedDeviceID)
	}

	alerts := env.alerts()
	require.Len(t, alerts, 2)
	severities := map[string]string{}
	for _, a := range alerts {
		assert.Equal(t, "dev-1", a.DeviceID)
		assert.Equal(t, types.AlertSourceContext, a.Context["source"])
		assert.NotContains(t, a.Context, "alertDeviceFallback")
		severities[a.Title] = a.Severity
	}
	assert.Equal(t, "high", severities["Rogue device detected on 10.0.0.9"])
	assert.Equal(t, "medium", severities["New device detected on 10.0.0.9"])

	assert.Eventually(t, func() bool { return len(env.pub.published()) == 2 }, 2*time.Second, 10*time.Millisecond)
	for _, n := range env.pub.published() {
		assert.Equal(t, types.AlertSourceEvent, n.Source)
		assert.Nil(t, n.RuleID)
		assert.Equal(t, "dev-1", n.DeviceID)
		assert.NotEmpty(t, n.NetworkChangeEventID)
	}
}

func TestCompareBaselineScan_ResolverAnchors(t *testing.T) {
	tests := []struct {
		name     string
		siteID   string
		strategy types.ResolveStrategy
	}{
		{"site anchor", testSite, types.ResolveSiteAnchor},
		{"org anchor", "site-2", types.ResolveOrgAnchor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.baseline(nil, `{}`)
			env.device("dev-old", tt.siteID, testNow.Add(-48*time.Hour))
			env.device("dev-anchor", tt.siteID, testNow.Add(-time.Hour))

			result := env.compare(types.HostResult{IP: "10.0.0.30"})
			assert.Equal(t, 1, result.AlertsCreated)

			alerts := env.alerts()
			require.Len(t, alerts, 1)
			assert.Equal(t, "dev-anchor", alerts[0].DeviceID)
			assert.Equal(t, true, alerts[0].Context["alertDeviceFallback"])
			assert.Equal(t, string(tt.strategy), alerts[0].Context["alertDeviceStrategy"])

			events := env.events()
			require.Len(t, events, 1)
			assert.Equal(t, alerts[0].ID, events[0].AlertID)
			assert.Empty(t, events[0].LinkedDeviceID)
		})
	}
}

func TestCompareBaselineScan_EnrichedFromDiscoveredAssets(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{}`)
	env.device("dev-2", testSite, testNow.Add(-time.Hour))
	env.asset("10.0.0.40", "dd:dd:dd:dd:dd:dd", "printer-1", "printer", "HP", "dev-2")

	result := env.compare(types.HostResult{IP: "10.0.0.40", Hostname: "PRN-1"})
	assert.Equal(t, 1, result.AlertsCreated)

	events := env.events()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "PRN-1", e.Hostname)
	assert.Equal(t, "dd:dd:dd:dd:dd:dd", e.MacAddress)
	assert.Equal(t, types.AssetPrinter, e.AssetType)
	assert.Equal(t, "dev-2", e.LinkedDeviceID)
	assert.Equal(t, "HP", e.CurrentState.Manufacturer)

	alerts := env.alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "dev-2", alerts[0].DeviceID)
	assert.Equal(t, "New device detected on 10.0.0.40", alerts[0].Title)

	known := env.known()
	require.Len(t, known, 1)
	assert.Equal(t, "dev-2", known[0].LinkedDeviceID)
}

func TestCompareBaselineScan_DuplicateAndEmptyHosts(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{"newDevice": false}`)

	result := env.compare(
		types.HostResult{IP: "10.0.0.50", Hostname: "first"},
		types.HostResult{IP: ""},
		types.HostResult{IP: "10.0.0.50", Hostname: "second"},
	)
	assert.Equal(t, 1, result.ProcessedHosts)
	assert.Equal(t, 1, result.NewDevices)

	known := env.known()
	require.Len(t, known, 1)
	assert.Equal(t, "first", known[0].Hostname)
}

func TestCompareBaselineScan_ScheduleRecomputed(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{}`)

	env.compare()

	rec, err := env.repos.Baselines.Get(context.Background(), types.OrgScope{OrgID: testOrg, SiteID: testSite}, testBaseline)
	require.NoError(t, err)
	require.NotNil(t, rec.LastScanAt)
	assert.True(t, rec.LastScanAt.Equal(testNow))

	schedule := normalize.ScanSchedule(rec.ScanSchedule, 4, testNow)
	assert.True(t, schedule.Enabled)
	assert.Equal(t, 6, schedule.IntervalHours)
	assert.True(t, schedule.NextScanAt.Equal(testNow.Add(6*time.Hour)))
}

func TestCompareBaselineScan_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{}`)

	_, err := env.svc.CompareBaselineScan(context.Background(), &types.CompareInput{
		BaselineID: testBaseline,
		OrgID:      testOrg,
		SiteID:     "other-site",
		Hosts:      []types.HostResult{{IP: "10.0.0.5"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, env.events())
}

func TestCompareBaselineScan_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CompareBaselineScan(context.Background(), &types.CompareInput{BaselineID: testBaseline})
	require.Error(t, err)
	assert.ErrorIs(t, err, validator.ErrValidation)
}

func TestCompareBaselineScan_RollsBackOnDispatchFailure(t *testing.T) {
	env := newTestEnv(t)
	previous := []types.KnownDevice{
		{IP: "10.0.0.20", MAC: "aa:aa:aa:aa:aa:20", FirstSeen: testNow.Add(-72 * time.Hour), LastSeen: testNow.Add(-48 * time.Hour)},
	}
	env.baseline(previous, `{}`)
	env.device("dev-1", testSite, testNow.Add(-time.Hour))
	env.exec(`DROP TABLE alerts`)

	result, err := env.tryCompare(types.HostResult{IP: "10.0.0.5", MAC: "aa:bb:cc:dd:ee:01"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to dispatch alert")

	assert.Empty(t, env.events())

	known := env.known()
	require.Len(t, known, 1)
	assert.Equal(t, "10.0.0.20", known[0].IP)
	assert.True(t, known[0].LastSeen.Equal(previous[0].LastSeen))

	rec, err := env.repos.Baselines.Get(context.Background(), types.OrgScope{OrgID: testOrg, SiteID: testSite}, testBaseline)
	require.NoError(t, err)
	assert.Nil(t, rec.LastScanAt)
	assert.Empty(t, env.pub.published())
}

func TestCompareBaselineScan_DisappearedResolvedByDiscoveredAsset(t *testing.T) {
	env := newTestEnv(t)
	env.baseline([]types.KnownDevice{
		{IP: "10.0.0.60", MAC: "aa:aa:aa:aa:aa:60", FirstSeen: testNow.Add(-72 * time.Hour), LastSeen: testNow.Add(-48 * time.Hour)},
	}, `{}`)
	env.device("dev-3", testSite, testNow.Add(-2*time.Hour))
	env.device("dev-anchor", testSite, testNow.Add(-time.Hour))
	env.asset("10.0.0.60", "aa:aa:aa:aa:aa:60", "nas-1", "nas", "Synology", "dev-3")

	result := env.compare()
	assert.Equal(t, 1, result.DisappearedDevices)
	assert.Equal(t, 1, result.AlertsCreated)

	alerts := env.alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "dev-3", alerts[0].DeviceID)
	assert.NotContains(t, alerts[0].Context, "alertDeviceFallback")

	events := env.events()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventDeviceDisappeared, events[0].EventType)
	assert.Equal(t, "dev-3", events[0].LinkedDeviceID)
	assert.Equal(t, alerts[0].ID, events[0].AlertID)
}

func TestCompareBaselineScan_ResolvedByMACOnly(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{}`)
	env.device("dev-mac", testSite, testNow.Add(-2*time.Hour))
	env.device("dev-anchor", testSite, testNow.Add(-time.Hour))
	env.deviceNetwork("dev-mac", "10.0.0.99", "ee:ee:ee:ee:ee:ee")

	result := env.compare(types.HostResult{IP: "10.0.0.70", MAC: "EE:EE:EE:EE:EE:EE"})
	assert.Equal(t, 1, result.AlertsCreated)

	alerts := env.alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "dev-mac", alerts[0].DeviceID)
	assert.NotContains(t, alerts[0].Context, "alertDeviceFallback")

	events := env.events()
	require.Len(t, events, 1)
	assert.Equal(t, "dev-mac", events[0].LinkedDeviceID)
}

func TestCompareBaselineScan_PublishFailureDoesNotFailCycle(t *testing.T) {
	env := newTestEnv(t)
	env.baseline(nil, `{}`)
	env.device("dev-1", testSite, testNow.Add(-time.Hour))
	env.pub.failWith(errors.New("broker unavailable"))

	result := env.compare(types.HostResult{IP: "10.0.0.5"})
	assert.Equal(t, 1, result.AlertsCreated)
	assert.Len(t, env.alerts(), 1)
	assert.Len(t, env.events(), 1)

	failures := env.svc.metrics.PublishFailures.WithLabelValues(string(env.pub.Type()))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(failures) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, env.pub.published())
}

func TestCompareBaselineScan_SkippedAlertLogsCycle(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	env := newTestEnvWithLogger(t, zap.New(core))
	env.baseline(nil, `{}`)

	result := env.compare(types.HostResult{IP: "10.0.0.5"})
	assert.Equal(t, 1, result.AlertsSkipped)

	skipped := logs.FilterMessage("No device to attach network alert to, skipping alert").All()
	require.Len(t, skipped, 1)
	fields := skipped[0].ContextMap()
	assert.Equal(t, testBaseline, fields["baseline_id"])
	assert.Equal(t, "job-1", fields["job_id"])
	assert.Equal(t, string(types.EventNewDevice), fields["event_type"])
}

// lostLocker hands out leases that are already lost
type lostLocker struct{}

func (lostLocker) Acquire(ctx context.Context, key string) (context.Context, func(), error) {
	lease, cancel := context.WithCancelCause(ctx)
	cancel(fmt.Errorf("lock %s: %w", key, types.ErrLockLost))
	return lease, func() {}, nil
}

func TestCompareBaselineScan_LockLost(t *testing.T) {
	env := newTestEnv(t, WithLocker(lostLocker{}))
	env.baseline(nil, `{}`)

	_, err := env.tryCompare(types.HostResult{IP: "10.0.0.5"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrLockLost)

	assert.Empty(t, env.events())
	assert.Empty(t, env.known())
}
