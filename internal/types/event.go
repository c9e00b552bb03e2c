package types

import "time"

// EventType represents the kind of baseline discrepancy
type EventType string

const (
	EventNewDevice         EventType = "new_device"
	EventDeviceDisappeared EventType = "device_disappeared"
	EventDeviceChanged     EventType = "device_changed"
	EventRogueDevice       EventType = "rogue_device"
)

// TemplateKey returns the alert template condition key for the event type
func (t EventType) TemplateKey() string {
	return "network." + string(t)
}

// DeviceState is the snapshot stored in previous_state / current_state
type DeviceState struct {
	Hostname       string     `json:"hostname"`
	MacAddress     string     `json:"macAddress"`
	AssetType      AssetType  `json:"assetType"`
	Manufacturer   string     `json:"manufacturer"`
	OpenPorts      []OpenPort `json:"openPorts,omitempty"`
	LinkedDeviceID string     `json:"linkedDeviceId,omitempty"`
	LastSeen       *time.Time `json:"lastSeen,omitempty"`
}

// ChangeEvent is a persisted network_change_events row.
// Only AlertID and LinkedDeviceID are written after insert.
type ChangeEvent struct {
	ID             string       `json:"id"`
	OrgID          string       `json:"orgId"`
	SiteID         string       `json:"siteId"`
	BaselineID     string       `json:"baselineId"`
	EventType      EventType    `json:"eventType"`
	IPAddress      string       `json:"ipAddress"`
	MacAddress     string       `json:"macAddress,omitempty"`
	Hostname       string       `json:"hostname,omitempty"`
	AssetType      AssetType    `json:"assetType"`
	PreviousState  *DeviceState `json:"previousState,omitempty"`
	CurrentState   *DeviceState `json:"currentState,omitempty"`
	LinkedDeviceID string       `json:"linkedDeviceId,omitempty"`
	AlertID        string       `json:"alertId,omitempty"`
	DetectedAt     time.Time    `json:"detectedAt"`

	// PolicyViolation is set on rogue events at detection and not stored
	PolicyViolation string `json:"-"`
}

// NewDeviceEvent builds a new_device event carrying only a current state
func NewDeviceEvent(host *EnrichedHost, assetType AssetType, current *DeviceState) *ChangeEvent {
	return hostEvent(EventNewDevice, host, assetType, nil, current)
}

// RogueDeviceEvent builds a rogue_device event carrying only a current state
func RogueDeviceEvent(host *EnrichedHost, assetType AssetType, current *DeviceState) *ChangeEvent {
	return hostEvent(EventRogueDevice, host, assetType, nil, current)
}

// DeviceChangedEvent builds a device_changed event carrying both states
func DeviceChangedEvent(host *EnrichedHost, assetType AssetType, previous, current *DeviceState) *ChangeEvent {
	return hostEvent(EventDeviceChanged, host, assetType, previous, current)
}

// DeviceDisappearedEvent builds a device_disappeared event carrying only a previous state
func DeviceDisappearedEvent(known *KnownDevice, previous *DeviceState) *ChangeEvent {
	return &ChangeEvent{
		EventType:      EventDeviceDisappeared,
		IPAddress:      known.IP,
		MacAddress:     known.MAC,
		Hostname:       known.Hostname,
		AssetType:      known.AssetType,
		PreviousState:  previous,
		LinkedDeviceID: known.LinkedDeviceID,
	}
}

func hostEvent(eventType EventType, host *EnrichedHost, assetType AssetType, previous, current *DeviceState) *ChangeEvent {
	return &ChangeEvent{
		EventType:      eventType,
		IPAddress:      host.IP,
		MacAddress:     host.MAC,
		Hostname:       host.Hostname,
		AssetType:      assetType,
		PreviousState:  previous,
		CurrentState:   current,
		LinkedDeviceID: host.LinkedDeviceID,
	}
}
