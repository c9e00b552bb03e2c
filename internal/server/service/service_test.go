package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"netbaseline/internal/config"
	"netbaseline/internal/database"
	"netbaseline/internal/normalize"
	"netbaseline/internal/notify"
	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const (
	testOrg      = "org-1"
	testSite     = "site-1"
	testBaseline = "baseline-1"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fakePublisher records alert.triggered notifications
type fakePublisher struct {
	mu     sync.Mutex
	events []*types.AlertTriggered
	err    error
}

func (p *fakePublisher) Type() notify.PublisherType { return notify.PublisherKafka }

func (p *fakePublisher) Publish(_ context.Context, event *types.AlertTriggered) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) failWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []*types.AlertTriggered {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*types.AlertTriggered(nil), p.events...)
}

type testEnv struct {
	t     *testing.T
	db    database.Interface
	svc   *Service
	repos *repository.Repositories
	pub   *fakePublisher
	now   time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Baseline: config.BaselineConfig{
			DedupWindow:          24 * time.Hour,
			DisappearThreshold:   24 * time.Hour,
			DefaultIntervalHours: 4,
		},
	}
}

// newTestEnv creates a migrated sqlite database with one organization
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, zaptest.NewLogger(t), opts...)
}

func newTestEnvWithLogger(t *testing.T, logger *zap.Logger, opts ...Option) *testEnv {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:      database.DriverSQLite,
		DSN:         filepath.Join(t.TempDir(), "netbaseline.db"),
		AutoMigrate: true,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	notifier, err := notify.NewManager(&notify.Config{Enabled: true, PublishTimeout: time.Second}, nil, logger)
	require.NoError(t, err)
	pub := &fakePublisher{}
	notifier.Register(pub)

	env := &testEnv{
		t:     t,
		db:    db,
		repos: repository.FromDB(db, logger),
		pub:   pub,
		now:   testNow,
	}

	opts = append([]Option{
		WithNotifier(notifier),
		WithClock(func() time.Time { return env.now }),
	}, opts...)
	svc, err := NewService(testConfig(), db, logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop() })
	env.svc = svc

	env.exec(`INSERT INTO organizations (id, name, settings) VALUES (?, ?, ?)`, testOrg, "Acme", `{}`)
	return env
}

func (env *testEnv) exec(query string, args ...any) {
	env.t.Helper()
	_, err := env.db.ExecContext(context.Background(), query, args...)
	require.NoError(env.t, err)
}

func (env *testEnv) orgSettings(settings string) {
	env.exec(`UPDATE organizations SET settings = ? WHERE id = ?`, settings, testOrg)
}

func (env *testEnv) baseline(known []types.KnownDevice, alertSettings string) {
	env.t.Helper()
	if known == nil {
		known = []types.KnownDevice{}
	}
	data, err := json.Marshal(known)
	require.NoError(env.t, err)
	env.exec(`INSERT INTO network_baselines (id, org_id, site_id, subnet, known_devices, scan_schedule, alert_settings)
              VALUES (?, ?, ?, ?, ?, ?, ?)`,
		testBaseline, testOrg, testSite, "10.0.0.0/24", string(data), `{"intervalHours": 6}`, alertSettings)
}

func (env *testEnv) device(id, siteID string, lastSeen time.Time) {
	env.exec(`INSERT INTO devices (id, org_id, site_id, hostname, last_seen_at) VALUES (?, ?, ?, ?, ?)`,
		id, testOrg, siteID, id, lastSeen)
}

func (env *testEnv) deviceNetwork(deviceID, ip, mac string) {
	env.exec(`INSERT INTO device_network (id, device_id, ip_address, mac_address) VALUES (?, ?, ?, ?)`,
		deviceID+"-"+ip, deviceID, ip, mac)
}

func (env *testEnv) asset(ip, mac, hostname, assetType, manufacturer, linked string) {
	var linkedArg any
	if linked != "" {
		linkedArg = linked
	}
	env.exec(`INSERT INTO discovered_assets (id, org_id, ip_address, mac_address, hostname, asset_type, manufacturer, linked_device_id)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"asset-"+ip, testOrg, ip, mac, hostname, assetType, manufacturer, linkedArg)
}

func (env *testEnv) compare(hosts ...types.HostResult) *types.CompareResult {
	env.t.Helper()
	result, err := env.tryCompare(hosts...)
	require.NoError(env.t, err)
	return result
}

func (env *testEnv) tryCompare(hosts ...types.HostResult) (*types.CompareResult, error) {
	return env.svc.CompareBaselineScan(context.Background(), &types.CompareInput{
		BaselineID: testBaseline,
		OrgID:      testOrg,
		SiteID:     testSite,
		JobID:      "job-1",
		Hosts:      hosts,
	})
}

func (env *testEnv) events() []*types.ChangeEvent {
	env.t.Helper()
	events, err := env.repos.Events.ListSince(context.Background(), types.OrgScope{OrgID: testOrg, SiteID: testSite}, testBaseline, time.Time{})
	require.NoError(env.t, err)
	return events
}

func (env *testEnv) known() []types.KnownDevice {
	env.t.Helper()
	rec, err := env.repos.Baselines.Get(context.Background(), types.OrgScope{OrgID: testOrg, SiteID: testSite}, testBaseline)
	require.NoError(env.t, err)
	return normalize.KnownDevices(rec.KnownDevices, env.now)
}

type alertRow struct {
	ID       string
	DeviceID string
	Severity string
	Title    string
	Context  map[string]any
}

func (env *testEnv) alerts() []alertRow {
	env.t.Helper()
	rows, err := env.db.QueryContext(context.Background(),
		`SELECT id, device_id, severity, title, context FROM alerts ORDER BY triggered_at, id`)
	require.NoError(env.t, err)
	defer rows.Close()

	var out []alertRow
	for rows.Next() {
		var (
			a   alertRow
			raw []byte
		)
		require.NoError(env.t, rows.Scan(&a.ID, &a.DeviceID, &a.Severity, &a.Title, &raw))
		require.NoError(env.t, json.Unmarshal(raw, &a.Context))
		out = append(out, a)
	}
	require.NoError(env.t, rows.Err())
	return out
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	status := env.svc.HealthCheck(context.Background())
	assert.True(t, status.Healthy)
	require.Len(t, status.Details, 1)
	assert.Equal(t, "database", status.Details[0].Component)
}
