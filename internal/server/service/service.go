// Package service implements the network baseline comparison engine.
package service

import (
	"context"
	"fmt"
	"time"

	"netbaseline/internal/config"
	"netbaseline/internal/database"
	"netbaseline/internal/lock"
	"netbaseline/internal/notify"
	"netbaseline/internal/notify/template"
	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"
	"netbaseline/internal/validator"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// BaselineService compares scan results against stored network baselines
type BaselineService interface {
	CompareBaselineScan(ctx context.Context, input *types.CompareInput) (*types.CompareResult, error)
}

var _ BaselineService = (*Service)(nil)

// Service represents the baseline service
type Service struct {
	config    config.BaselineConfig
	database  database.Interface
	repos     *repository.Repositories
	locker    lock.Locker
	notifier  *notify.Manager
	templates *template.Loader
	metrics   *Metrics
	validate  *validator.Validator
	logger    *zap.Logger
	now       func() time.Time

	registerer prometheus.Registerer
}

// Option configures optional service dependencies
type Option func(*Service)

// WithLocker sets the per-baseline locker, an in-process one by default
func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithNotifier sets the alert.triggered publisher manager
func WithNotifier(m *notify.Manager) Option {
	return func(s *Service) { s.notifier = m }
}

// WithTemplates sets the alert template loader
func WithTemplates(t *template.Loader) Option {
	return func(s *Service) { s.templates = t }
}

// WithRegisterer sets where the service metrics are registered
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) { s.registerer = reg }
}

// WithClock overrides the cycle clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates new service instance
func NewService(cfg *config.Config, db database.Interface, logger *zap.Logger, opts ...Option) (*Service, error) {
	logger = logger.Named("baseline")

	svc := &Service{
		config:   cfg.Baseline,
		database: db,
		repos:    repository.FromDB(db, logger),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.locker == nil {
		svc.locker = lock.NewLocalLocker()
	}
	if svc.templates == nil {
		templates, err := template.NewLoader(logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load alert templates: %w", err)
		}
		if cfg.Notify.TemplatesFile != "" {
			if err := templates.LoadFile(cfg.Notify.TemplatesFile); err != nil {
				return nil, fmt.Errorf("failed to load alert templates file: %w", err)
			}
		}
		svc.templates = templates
	}
	if svc.registerer == nil {
		svc.registerer = prometheus.NewRegistry()
	}
	svc.metrics = NewMetrics(svc.registerer)
	registerDatabaseStats(svc.registerer, db)

	if svc.notifier != nil {
		svc.notifier.OnFailure(func(t notify.PublisherType) {
			svc.metrics.PublishFailures.WithLabelValues(string(t)).Inc()
		})
	}

	return svc, nil
}

// Stop flushes pending notifications and releases publishers
func (s *Service) Stop() error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Stop()
}

// HealthStatus health check
type HealthStatus struct {
	Healthy   bool           `json:"healthy"`
	Timestamp time.Time      `json:"timestamp"`
	Details   []HealthDetail `json:"details,omitempty"`
}

// HealthDetail represents a health detail
type HealthDetail struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// HealthCheck performs a health check
func (s *Service) HealthCheck(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Healthy:   true,
		Timestamp: s.now().UTC(),
	}

	detail := HealthDetail{Component: "database", Status: "healthy"}
	if err := s.database.Ping(ctx); err != nil {
		status.Healthy = false
		detail.Status = "unhealthy"
		detail.Error = err.Error()
	}
	status.Details = append(status.Details, detail)

	return status
}
