package types

import "time"

// Severity represents alert severity
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// AlertStatus represents alert lifecycle status
type AlertStatus string

const AlertStatusActive AlertStatus = "active"

// Provenance markers for alerts raised by the baseline engine
const (
	AlertSourceContext  = "network_baseline"
	AlertSourceEvent    = "network-baseline"
	TopicAlertTriggered = "alert.triggered"
)

// Alert is an alerts row
type Alert struct {
	ID          string         `json:"id"`
	OrgID       string         `json:"orgId"`
	DeviceID    string         `json:"deviceId"`
	Severity    Severity       `json:"severity"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Context     map[string]any `json:"context"`
	Status      AlertStatus    `json:"status"`
	TriggeredAt time.Time      `json:"triggeredAt"`
}

// AlertTriggered is published to the event bus after an alert is committed
type AlertTriggered struct {
	AlertID              string    `json:"alertId"`
	RuleID               *string   `json:"ruleId"`
	OrgID                string    `json:"orgId"`
	DeviceID             string    `json:"deviceId"`
	Severity             Severity  `json:"severity"`
	Title                string    `json:"title"`
	Message              string    `json:"message"`
	Source               string    `json:"source"`
	NetworkChangeEventID string    `json:"networkChangeEventId"`
	TriggeredAt          time.Time `json:"triggeredAt"`
}

// AlertTemplate is a built-in alert template
type AlertTemplate struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Severity        Severity `yaml:"severity" json:"severity"`
	TitleTemplate   string   `yaml:"title_template" json:"titleTemplate"`
	MessageTemplate string   `yaml:"message_template" json:"messageTemplate"`
	Conditions      struct {
		EventType string `yaml:"event_type" json:"eventType"`
	} `yaml:"conditions" json:"conditions"`
}
