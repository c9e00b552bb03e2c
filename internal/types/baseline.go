package types

import (
	"encoding/json"
	"time"
)

// OrgScope carries the organization (and optionally site) every query is bound to
type OrgScope struct {
	OrgID  string `json:"orgId"`
	SiteID string `json:"siteId,omitempty"`
}

// BaselineRecord is a network_baselines row with its JSON columns left undecoded
type BaselineRecord struct {
	ID            string          `json:"id"`
	OrgID         string          `json:"orgId"`
	SiteID        string          `json:"siteId"`
	Subnet        string          `json:"subnet"`
	KnownDevices  json.RawMessage `json:"knownDevices"`
	ScanSchedule  json.RawMessage `json:"scanSchedule"`
	AlertSettings json.RawMessage `json:"alertSettings"`
	LastScanAt    *time.Time      `json:"lastScanAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// KnownDevice is a previously observed endpoint tracked by ip within a baseline
type KnownDevice struct {
	IP             string    `json:"ip"`
	MAC            string    `json:"mac,omitempty"`
	Hostname       string    `json:"hostname,omitempty"`
	AssetType      AssetType `json:"assetType,omitempty"`
	Manufacturer   string    `json:"manufacturer,omitempty"`
	LinkedDeviceID string    `json:"linkedDeviceId,omitempty"`
	FirstSeen      time.Time `json:"firstSeen"`
	LastSeen       time.Time `json:"lastSeen"`
}

// ScanSchedule controls when the next baseline scan is due
type ScanSchedule struct {
	Enabled       bool      `json:"enabled"`
	IntervalHours int       `json:"intervalHours"`
	NextScanAt    time.Time `json:"nextScanAt"`
}

// AlertSettings toggles alert generation per event type
type AlertSettings struct {
	NewDevice   bool `json:"newDevice"`
	Disappeared bool `json:"disappeared"`
	Changed     bool `json:"changed"`
	RogueDevice bool `json:"rogueDevice"`
}

// Enabled reports whether alerts are wanted for the given event type
func (s AlertSettings) Enabled(eventType EventType) bool {
	switch eventType {
	case EventNewDevice:
		return s.NewDevice
	case EventDeviceDisappeared:
		return s.Disappeared
	case EventDeviceChanged:
		return s.Changed
	case EventRogueDevice:
		return s.RogueDevice
	default:
		return false
	}
}

// BaselineUpdate carries the fields the mutator writes back at the end of a cycle
type BaselineUpdate struct {
	KnownDevices []KnownDevice
	ScanSchedule ScanSchedule
	LastScanAt   time.Time
	UpdatedAt    time.Time
}
