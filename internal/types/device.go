package types

import "time"

// ManagedDevice is a devices row, read only here
type ManagedDevice struct {
	ID         string     `json:"id"`
	OrgID      string     `json:"orgId"`
	SiteID     string     `json:"siteId"`
	Hostname   string     `json:"hostname"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

// ResolveStrategy names how an alert was attached to a device
type ResolveStrategy string

const (
	ResolveEventLink       ResolveStrategy = "event_link"
	ResolveDiscoveredAsset ResolveStrategy = "discovered_asset"
	ResolveNetworkMatch    ResolveStrategy = "network_match"
	ResolveSiteAnchor      ResolveStrategy = "site_anchor"
	ResolveOrgAnchor       ResolveStrategy = "org_anchor"
)

// ResolvedDevice is the device an alert attaches to. Confident resolutions
// are written back to the change event, anchors are not.
type ResolvedDevice struct {
	DeviceID  string
	Strategy  ResolveStrategy
	Confident bool
}
