package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"netbaseline/internal/database"
	"netbaseline/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var scope = types.OrgScope{OrgID: "org-1", SiteID: "site-1"}

func setupRepositories(t *testing.T) (*Repositories, database.Interface) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db, err := database.New(&database.Config{
		Driver:      database.DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "repo.db"),
		AutoMigrate: true,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `INSERT INTO organizations (id, name, settings) VALUES ('org-1', 'Acme', '{"network":{}}')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO network_baselines (id, org_id, site_id, subnet) VALUES ('baseline-1', 'org-1', 'site-1', '10.0.0.0/24')`)
	require.NoError(t, err)

	return FromDB(db, logger), db
}

func TestRebind(t *testing.T) {
	pg := base{driver: database.DriverPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite := base{driver: database.DriverSQLite}
	assert.Equal(t, "SELECT 1 WHERE a = ?", lite.rebind("SELECT 1 WHERE a = ?"))
}

func TestBaselineRepository(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()

	rec, err := repos.Baselines.Get(ctx, scope, "baseline-1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/24", rec.Subnet)
	assert.JSONEq(t, `[]`, string(rec.KnownDevices))
	assert.Nil(t, rec.LastScanAt)

	_, err = repos.Baselines.Get(ctx, types.OrgScope{OrgID: "org-2", SiteID: "site-1"}, "baseline-1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err = repos.Baselines.Update(ctx, scope, "baseline-1", &types.BaselineUpdate{
		KnownDevices: []types.KnownDevice{{IP: "10.0.0.1", FirstSeen: now, LastSeen: now}},
		ScanSchedule: types.ScanSchedule{Enabled: true, IntervalHours: 4, NextScanAt: now.Add(4 * time.Hour)},
		LastScanAt:   now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)

	rec, err = repos.Baselines.Get(ctx, scope, "baseline-1")
	require.NoError(t, err)
	require.NotNil(t, rec.LastScanAt)
	assert.True(t, rec.LastScanAt.Equal(now))
	assert.Contains(t, string(rec.KnownDevices), `"ip":"10.0.0.1"`)

	err = repos.Baselines.Update(ctx, scope, "missing", &types.BaselineUpdate{})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestChangeEventRepository(t *testing.T) {
	repos, _ := setupRepositories(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	events := make([]*types.ChangeEvent, 0, 150)
	for i := 0; i < 150; i++ {
		detected := now
		if i == 0 {
			detected = now.Add(-48 * time.Hour)
		}
		events = append(events, &types.ChangeEvent{
			ID:           fmt.Sprintf("event-%03d", i),
			OrgID:        "org-1",
			SiteID:       "site-1",
			BaselineID:   "baseline-1",
			EventType:    types.EventNewDevice,
			IPAddress:    "10.0.0.1",
			AssetType:    types.AssetUnknown,
			CurrentState: &types.DeviceState{Hostname: "host", AssetType: types.AssetUnknown},
			DetectedAt:   detected,
		})
	}
	require.NoError(t, repos.Events.InsertBatch(ctx, events))

	recent, err := repos.Events.ListSince(ctx, scope, "baseline-1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 149)
	assert.Nil(t, recent[0].PreviousState)
	require.NotNil(t, recent[0].CurrentState)
	assert.Equal(t, "host", recent[0].CurrentState.Hostname)

	require.NoError(t, repos.Events.LinkAlert(ctx, scope, events[1].ID, "alert-1", "dev-1"))
	require.NoError(t, repos.Events.LinkAlert(ctx, scope, events[2].ID, "alert-2", ""))

	all, err := repos.Events.ListSince(ctx, scope, "baseline-1", time.Time{})
	require.NoError(t, err)
	byID := make(map[string]*types.ChangeEvent, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}
	assert.Equal(t, "alert-1", byID[events[1].ID].AlertID)
	assert.Equal(t, "dev-1", byID[events[1].ID].LinkedDeviceID)
	assert.Equal(t, "alert-2", byID[events[2].ID].AlertID)
	assert.Empty(t, byID[events[2].ID].LinkedDeviceID)

	err = repos.Events.LinkAlert(ctx, scope, "missing", "alert-3", "")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeviceAndAssetRepositories(t *testing.T) {
	repos, db := setupRepositories(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO devices (id, org_id, site_id, last_seen_at) VALUES (?, ?, ?, ?)`, []any{"dev-1", "org-1", "site-1", now.Add(-time.Hour)}},
		{`INSERT INTO devices (id, org_id, site_id, last_seen_at) VALUES (?, ?, ?, ?)`, []any{"dev-2", "org-1", "site-1", now}},
		{`INSERT INTO devices (id, org_id, site_id) VALUES (?, ?, ?)`, []any{"dev-3", "org-1", "site-2"}},
		{`INSERT INTO device_network (id, device_id, ip_address, mac_address) VALUES (?, ?, ?, ?)`, []any{"dn-1", "dev-1", "10.0.0.1", "AA:AA:AA:AA:AA:01"}},
		{`INSERT INTO discovered_assets (id, org_id, ip_address, hostname, asset_type, open_ports, linked_device_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			[]any{"a-1", "org-1", "10.0.0.1", "srv-1", "server", `[{"port":22,"service":"ssh"}]`, "dev-1"}},
		{`INSERT INTO discovered_assets (id, org_id, ip_address, asset_type) VALUES (?, ?, ?, ?)`, []any{"a-2", "org-1", "10.0.0.2", "printer"}},
	}
	for _, s := range stmts {
		_, err := db.ExecContext(ctx, s.query, s.args...)
		require.NoError(t, err)
	}

	assets, err := repos.Assets.FindByIPs(ctx, scope, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "srv-1", assets["10.0.0.1"].Hostname)
	assert.Equal(t, []types.OpenPort{{Port: 22, Service: "ssh"}}, assets["10.0.0.1"].OpenPorts)
	assert.Empty(t, assets["10.0.0.2"].LinkedDeviceID)

	linked, err := repos.Assets.LinkedDeviceID(ctx, scope, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", linked)
	linked, err = repos.Assets.LinkedDeviceID(ctx, scope, "10.0.0.2")
	require.NoError(t, err)
	assert.Empty(t, linked)

	id, err := repos.Devices.FindByNetwork(ctx, scope, "10.0.0.99", "aa:aa:aa:aa:aa:01")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", id)
	id, err = repos.Devices.FindByNetwork(ctx, scope, "", "")
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = repos.Devices.LatestInSite(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "dev-2", id)

	id, err = repos.Devices.LatestInOrg(ctx, types.OrgScope{OrgID: "org-1"})
	require.NoError(t, err)
	assert.Equal(t, "dev-2", id)

	id, err = repos.Devices.LatestInSite(ctx, types.OrgScope{OrgID: "org-1", SiteID: "site-9"})
	require.NoError(t, err)
	assert.Empty(t, id)

	settings, err := repos.Organizations.Settings(ctx, scope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"network":{}}`, string(settings))

	_, err = repos.Organizations.Settings(ctx, types.OrgScope{OrgID: "org-2"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAlertRepository(t *testing.T) {
	repos, db := setupRepositories(t)
	ctx := context.Background()

	err := repos.Alerts.Create(ctx, &types.Alert{
		ID:          "alert-1",
		OrgID:       "org-1",
		DeviceID:    "dev-1",
		Severity:    types.SeverityHigh,
		Title:       "Rogue device detected on 10.0.0.9",
		Message:     "msg",
		Status:      types.AlertStatusActive,
		TriggeredAt: time.Now(),
	})
	require.NoError(t, err)

	var alertCtx, status string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT context, status FROM alerts WHERE id = 'alert-1'`).Scan(&alertCtx, &status))
	assert.JSONEq(t, `{}`, alertCtx)
	assert.Equal(t, "active", status)
}
