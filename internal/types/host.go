package types

// OpenPort represents an open TCP port and the identified service
type OpenPort struct {
	Port    int    `json:"port"`
	Service string `json:"service,omitempty"`
}

// HostResult is a single host as reported by the discovery worker
type HostResult struct {
	IP           string     `json:"ip"`
	MAC          string     `json:"mac,omitempty"`
	Hostname     string     `json:"hostname,omitempty"`
	AssetType    string     `json:"assetType,omitempty"`
	Manufacturer string     `json:"manufacturer,omitempty"`
	OpenPorts    []OpenPort `json:"openPorts,omitempty"`
}

// EnrichedHost is a scanned host with gaps filled from the discovered-assets index
type EnrichedHost struct {
	HostResult
	LinkedDeviceID string `json:"linkedDeviceId,omitempty"`
}

// DiscoveredAsset is a read-only row owned by the discovery subsystem
type DiscoveredAsset struct {
	OrgID          string     `json:"orgId"`
	IPAddress      string     `json:"ipAddress"`
	MacAddress     string     `json:"macAddress,omitempty"`
	Hostname       string     `json:"hostname,omitempty"`
	AssetType      string     `json:"assetType,omitempty"`
	Manufacturer   string     `json:"manufacturer,omitempty"`
	OpenPorts      []OpenPort `json:"openPorts,omitempty"`
	LinkedDeviceID string     `json:"linkedDeviceId,omitempty"`
}
