package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"netbaseline/internal/types"
	"netbaseline/internal/version"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookPublisher posts signed alert notifications to an HTTP endpoint
type WebhookPublisher struct {
	config *WebhookConfig
	logger *zap.Logger
	client *http.Client
}

// WebhookPayload represents the standard webhook payload structure
type WebhookPayload struct {
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewWebhookPublisher creates new webhook publisher
func NewWebhookPublisher(cfg *WebhookConfig, logger *zap.Logger) (*WebhookPublisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook: %w", types.ErrPublisherNotConfigured)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  true,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &WebhookPublisher{
		config: cfg,
		logger: logger,
		client: client,
	}, nil
}

// Type returns the publisher type
func (p *WebhookPublisher) Type() PublisherType {
	return PublisherWebhook
}

// Publish posts the notification, retrying server errors until ctx expires
func (p *WebhookPublisher) Publish(ctx context.Context, event *types.AlertTriggered) error {
	payload := WebhookPayload{
		EventType: types.TopicAlertTriggered,
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Data:      event,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// Calculate signature if secret is configured
	signature := ""
	if p.config.Secret != "" {
		signature = calculateSignature(data, []byte(p.config.Secret))
	}

	attempts := max(p.config.MaxRetries, 1)
	for attempt := 1; ; attempt++ {
		status, err := p.send(ctx, payload, data, signature)
		if err == nil && status < 500 {
			if status >= 400 {
				return fmt.Errorf("webhook request failed with status %d", status)
			}
			return nil
		}
		if err == nil {
			err = fmt.Errorf("webhook request failed with status %d", status)
		}
		if attempt >= attempts {
			return fmt.Errorf("failed to send webhook after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to send webhook: %w", ctx.Err())
		case <-time.After(calculateBackoff(attempt)):
		}
	}
}

func (p *WebhookPublisher) send(ctx context.Context, payload WebhookPayload, data []byte, signature string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "netbaseline-webhook/"+version.GetInfo().Version)
	req.Header.Set("X-Netbaseline-Event", payload.EventType)
	req.Header.Set("X-Netbaseline-Delivery", payload.EventID)
	if signature != "" {
		req.Header.Set("X-Netbaseline-Signature", signature)
	}

	// Add custom headers from config
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func(Body io.ReadCloser) {
		_, _ = io.Copy(io.Discard, Body)
		if err := Body.Close(); err != nil {
			p.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	return resp.StatusCode, nil
}

// Close releases idle connections
func (p *WebhookPublisher) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// calculateSignature calculates the signature
func calculateSignature(payload []byte, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// calculateBackoff calculates the backoff
func calculateBackoff(attempt int) time.Duration {
	backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
	if backoff > 5*time.Second {
		backoff = 5 * time.Second
	}
	return backoff
}
