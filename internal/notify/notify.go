// Package notify fans alert.triggered notifications out to the configured
// transports. Delivery is best effort and never blocks the caller.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"netbaseline/internal/data/connection"
	"netbaseline/internal/types"

	"go.uber.org/zap"
)

// PublisherType represents the type of publisher
type PublisherType string

const (
	PublisherKafka         PublisherType = "kafka"
	PublisherRabbitMQ      PublisherType = "rabbitmq"
	PublisherRedis         PublisherType = "redis"
	PublisherWebhook       PublisherType = "webhook"
	PublisherElasticsearch PublisherType = "elasticsearch"
)

// Publisher delivers alert notifications to one transport
type Publisher interface {
	// Type returns the publisher type
	Type() PublisherType

	// Publish delivers a single alert.triggered notification
	Publish(ctx context.Context, event *types.AlertTriggered) error

	// Close releases transport resources
	Close() error
}

// notification represents a notification to be sent
type notification struct {
	publisherType PublisherType
	event         *types.AlertTriggered
}

// Manager represents publisher manager
type Manager struct {
	config      *Config
	logger      *zap.Logger
	publishers  map[PublisherType]Publisher
	mu          sync.RWMutex
	rateLimiter *RateLimiter
	notifyChan  chan notification
	failures    func(PublisherType)
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewManager creates new publisher manager with the publishers enabled in
// cfg. conns may be nil when no broker is configured.
func NewManager(cfg *Config, conns *connection.Connections, logger *zap.Logger) (*Manager, error) {
	m := newManager(cfg, logger)
	if !cfg.Enabled {
		m.start()
		return m, nil
	}
	if conns == nil {
		conns = &connection.Connections{}
	}

	// Initialize enabled publishers
	if cfg.Kafka.Enabled {
		if p, err := NewKafkaPublisher(conns.Kafka, &cfg.Kafka); err == nil {
			m.Register(p)
		} else {
			logger.Error("Failed to initialize kafka publisher", zap.Error(err))
		}
	}

	if cfg.RabbitMQ.Enabled {
		if p, err := NewRabbitMQPublisher(conns.RMQ, &cfg.RabbitMQ); err == nil {
			m.Register(p)
		} else {
			logger.Error("Failed to initialize rabbitmq publisher", zap.Error(err))
		}
	}

	if cfg.Redis.Enabled {
		if p, err := NewRedisPublisher(conns.RC, &cfg.Redis); err == nil {
			m.Register(p)
		} else {
			logger.Error("Failed to initialize redis publisher", zap.Error(err))
		}
	}

	if cfg.Webhook.Enabled {
		if p, err := NewWebhookPublisher(&cfg.Webhook, logger); err == nil {
			m.Register(p)
		} else {
			logger.Error("Failed to initialize webhook publisher", zap.Error(err))
		}
	}

	if cfg.Elasticsearch.Enabled {
		if p, err := NewElasticsearchPublisher(conns.ES, &cfg.Elasticsearch); err == nil {
			m.Register(p)
		} else {
			logger.Error("Failed to initialize elasticsearch publisher", zap.Error(err))
		}
	}

	// Start notification processor
	m.start()

	return m, nil
}

func newManager(cfg *Config, logger *zap.Logger) *Manager {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	var limiter *RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = NewRateLimiter(cfg.RateLimit.Interval, cfg.RateLimit.MaxEvents)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config:      cfg,
		logger:      logger,
		publishers:  make(map[PublisherType]Publisher),
		rateLimiter: limiter,
		notifyChan:  make(chan notification, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (m *Manager) start() {
	m.wg.Add(1)
	go m.processNotifications()
}

// Register adds or replaces a publisher
func (m *Manager) Register(p Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishers[p.Type()] = p
}

// OnFailure installs a hook called for every failed delivery
func (m *Manager) OnFailure(fn func(PublisherType)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = fn
}

// processNotifications handles notification sending in background
func (m *Manager) processNotifications() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.drain()
			return
		case n := <-m.notifyChan:
			m.deliver(n)
		}
	}
}

// drain delivers what was queued before Stop
func (m *Manager) drain() {
	for {
		select {
		case n := <-m.notifyChan:
			m.deliver(n)
		default:
			return
		}
	}
}

func (m *Manager) deliver(n notification) {
	m.mu.RLock()
	publisher, ok := m.publishers[n.publisherType]
	onFailure := m.failures
	m.mu.RUnlock()

	if !ok {
		return
	}

	if !m.rateLimiter.AllowNotification(n.publisherType) {
		m.logger.Warn("Rate limit exceeded for publisher",
			zap.String("type", string(n.publisherType)),
			zap.String("alert_id", n.event.AlertID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.publishTimeout())
	defer cancel()

	if err := publisher.Publish(ctx, n.event); err != nil {
		m.logger.Error("Failed to publish alert notification",
			zap.String("type", string(n.publisherType)),
			zap.String("alert_id", n.event.AlertID),
			zap.Error(err))
		if onFailure != nil {
			onFailure(n.publisherType)
		}
	}
}

func (m *Manager) publishTimeout() time.Duration {
	if m.config.PublishTimeout > 0 {
		return m.config.PublishTimeout
	}
	return 5 * time.Second
}

// NotifyAlertTriggered queues the notification for every publisher.
// A full queue drops the notification rather than block the caller.
func (m *Manager) NotifyAlertTriggered(event *types.AlertTriggered) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for t := range m.publishers {
		select {
		case m.notifyChan <- notification{publisherType: t, event: event}:
		default:
			m.logger.Warn("Notification queue full, dropping alert notification",
				zap.String("type", string(t)),
				zap.String("alert_id", event.AlertID))
		}
	}
}

// Stop gracefully stops the publisher manager
func (m *Manager) Stop() error {
	// Signal processNotifications to drain and stop
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		err = fmt.Errorf("timeout waiting for notifications to complete")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for t, p := range m.publishers {
		if cerr := p.Close(); cerr != nil {
			m.logger.Error("Failed to close publisher",
				zap.String("type", string(t)),
				zap.Error(cerr))
		}
	}

	return err
}

// IsPublisherEnabled checks if a publisher is registered
func (m *Manager) IsPublisherEnabled(publisherType PublisherType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.publishers[publisherType]
	return ok
}

// encode marshals the event payload shared by every transport
func encode(event *types.AlertTriggered) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert notification: %w", err)
	}
	return data, nil
}
