package repository

import (
	"context"
	"encoding/json"
	"time"

	"netbaseline/internal/types"
)

// BaselineRepository defines network baseline storage operations
type BaselineRepository interface {
	Get(ctx context.Context, scope types.OrgScope, id string) (*types.BaselineRecord, error)
	Update(ctx context.Context, scope types.OrgScope, id string, update *types.BaselineUpdate) error
}

// ChangeEventRepository defines network change event storage operations
type ChangeEventRepository interface {
	InsertBatch(ctx context.Context, events []*types.ChangeEvent) error
	ListSince(ctx context.Context, scope types.OrgScope, baselineID string, since time.Time) ([]*types.ChangeEvent, error)
	LinkAlert(ctx context.Context, scope types.OrgScope, eventID, alertID, linkedDeviceID string) error
}

// DiscoveredAssetRepository defines read operations on the discovery index
type DiscoveredAssetRepository interface {
	FindByIPs(ctx context.Context, scope types.OrgScope, ips []string) (map[string]*types.DiscoveredAsset, error)
	LinkedDeviceID(ctx context.Context, scope types.OrgScope, ip string) (string, error)
}

// DeviceRepository defines read operations on managed devices.
// Lookups return an empty id when nothing matches.
type DeviceRepository interface {
	FindByNetwork(ctx context.Context, scope types.OrgScope, ip, mac string) (string, error)
	LatestInSite(ctx context.Context, scope types.OrgScope) (string, error)
	LatestInOrg(ctx context.Context, scope types.OrgScope) (string, error)
}

// OrganizationRepository defines read operations on organizations
type OrganizationRepository interface {
	Settings(ctx context.Context, scope types.OrgScope) (json.RawMessage, error)
}

// AlertRepository defines alert storage operations
type AlertRepository interface {
	Create(ctx context.Context, alert *types.Alert) error
}
