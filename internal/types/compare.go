package types

// CompareInput is one scan job to reconcile against a baseline
type CompareInput struct {
	BaselineID string       `json:"baselineId" validate:"required"`
	OrgID      string       `json:"orgId" validate:"required"`
	SiteID     string       `json:"siteId" validate:"required"`
	JobID      string       `json:"jobId"`
	Hosts      []HostResult `json:"hosts"`
}

// CompareResult summarises one comparison cycle
type CompareResult struct {
	BaselineID         string `json:"baselineId"`
	ProcessedHosts     int    `json:"processedHosts"`
	NewDevices         int    `json:"newDevices"`
	DisappearedDevices int    `json:"disappearedDevices"`
	ChangedDevices     int    `json:"changedDevices"`
	RogueDevices       int    `json:"rogueDevices"`
	EventsCreated      int    `json:"eventsCreated"`
	AlertsCreated      int    `json:"alertsCreated"`
	AlertsSkipped      int    `json:"alertsSkipped"`
}
