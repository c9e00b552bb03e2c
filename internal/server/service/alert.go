package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"netbaseline/internal/notify/template"
	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fallbackSeverity applies when no template matches the event type
var fallbackSeverity = map[types.EventType]types.Severity{
	types.EventNewDevice:         types.SeverityMedium,
	types.EventDeviceDisappeared: types.SeverityLow,
	types.EventDeviceChanged:     types.SeverityMedium,
	types.EventRogueDevice:       types.SeverityHigh,
}

// renderedAlert is the title, message and severity of an alert
type renderedAlert struct {
	Title    string
	Message  string
	Severity types.Severity
}

// dispatchAlert resolves the device, persists the alert and links it to the
// event. It returns nil when the alert was skipped.
func (s *Service) dispatchAlert(ctx context.Context, log *zap.Logger, repos *repository.Repositories, scope types.OrgScope, e *types.ChangeEvent, now time.Time) (*types.AlertTriggered, error) {
	device, err := ResolveAlertDevice(ctx, repos, scope, e)
	if err != nil {
		return nil, err
	}
	if device == nil {
		log.Warn("No device to attach network alert to, skipping alert",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.EventType)),
			zap.String("org_id", scope.OrgID))
		return nil, nil
	}

	eventContext := eventContext(e)
	rendered := s.renderAlert(e, eventContext)

	alertContext := eventContext
	alertContext["source"] = types.AlertSourceContext
	alertContext["networkChangeEventId"] = e.ID
	if !device.Confident {
		alertContext["alertDeviceFallback"] = true
		alertContext["alertDeviceStrategy"] = string(device.Strategy)
	}

	alert := &types.Alert{
		ID:          uuid.NewString(),
		OrgID:       scope.OrgID,
		DeviceID:    device.DeviceID,
		Severity:    rendered.Severity,
		Title:       rendered.Title,
		Message:     rendered.Message,
		Context:     alertContext,
		Status:      types.AlertStatusActive,
		TriggeredAt: now,
	}
	if err := repos.Alerts.Create(ctx, alert); err != nil {
		return nil, err
	}

	linked := ""
	if device.Confident {
		linked = device.DeviceID
	}
	if err := repos.Events.LinkAlert(ctx, scope, e.ID, alert.ID, linked); err != nil {
		return nil, err
	}
	e.AlertID = alert.ID
	if linked != "" {
		e.LinkedDeviceID = linked
	}

	log.Debug("Network alert created",
		zap.String("alert_id", alert.ID),
		zap.String("event_id", e.ID),
		zap.String("device_id", device.DeviceID),
		zap.String("strategy", string(device.Strategy)))

	return &types.AlertTriggered{
		AlertID:              alert.ID,
		OrgID:                alert.OrgID,
		DeviceID:             alert.DeviceID,
		Severity:             alert.Severity,
		Title:                alert.Title,
		Message:              alert.Message,
		Source:               types.AlertSourceEvent,
		NetworkChangeEventID: e.ID,
		TriggeredAt:          now,
	}, nil
}

// renderAlert renders the built-in template for the event type, falling back
// to static text
func (s *Service) renderAlert(e *types.ChangeEvent, eventContext map[string]any) renderedAlert {
	if tpl, ok := s.templates.Find(e.EventType.TemplateKey()); ok {
		data := map[string]any{"network": eventContext}
		severity := tpl.Severity
		if severity == "" {
			severity = fallbackSeverity[e.EventType]
		}
		return renderedAlert{
			Title:    template.Render(tpl.TitleTemplate, data),
			Message:  template.Render(tpl.MessageTemplate, data),
			Severity: severity,
		}
	}
	return fallbackAlert(e)
}

func fallbackAlert(e *types.ChangeEvent) renderedAlert {
	severity, ok := fallbackSeverity[e.EventType]
	if !ok {
		severity = types.SeverityMedium
	}

	var title string
	switch e.EventType {
	case types.EventNewDevice:
		title = "New device detected on " + e.IPAddress
	case types.EventDeviceDisappeared:
		title = "Device " + e.IPAddress + " disappeared"
	case types.EventDeviceChanged:
		title = "Device " + e.IPAddress + " changed"
	case types.EventRogueDevice:
		title = "Rogue device detected on " + e.IPAddress
	default:
		title = "Network change on " + e.IPAddress
	}

	return renderedAlert{
		Title:    title,
		Message:  fmt.Sprintf("Network baseline detected %s for %s.", e.EventType, e.IPAddress),
		Severity: severity,
	}
}

// eventContext is the event as a generic JSON object, the shape templates
// and the alert context both see
func eventContext(e *types.ChangeEvent) map[string]any {
	ctx := map[string]any{}
	data, err := json.Marshal(e)
	if err == nil {
		_ = json.Unmarshal(data, &ctx)
	}
	if e.PolicyViolation != "" {
		ctx["policyViolation"] = e.PolicyViolation
	}
	return ctx
}
