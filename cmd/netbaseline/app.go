package main

import (
	"fmt"

	"netbaseline/internal/config"
	"netbaseline/internal/data/connection"
	"netbaseline/internal/database"
	"netbaseline/internal/lock"
	"netbaseline/internal/notify"
	"netbaseline/internal/server/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// app holds the long lived dependencies shared by serve and compare
type app struct {
	db       database.Interface
	conns    *connection.Connections
	registry *prometheus.Registry
	svc      *service.Service
	logger   *zap.Logger
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	conns, err := connection.New(cfg.Data, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize data connections: %w", err)
	}

	notifier, err := notify.NewManager(&cfg.Notify, conns, logger)
	if err != nil {
		conns.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []service.Option{
		service.WithNotifier(notifier),
		service.WithRegisterer(registry),
	}
	if conns.RC != nil {
		opts = append(opts, service.WithLocker(lock.NewRedisLocker(conns.RC, lock.RedisConfig{
			Prefix:      cfg.Baseline.LockPrefix,
			TTL:         cfg.Baseline.LockTTL,
			WaitTimeout: cfg.Baseline.LockWait,
		}, logger)))
		logger.Info("Using redis baseline lock")
	}

	svc, err := service.NewService(cfg, db, logger, opts...)
	if err != nil {
		_ = notifier.Stop()
		conns.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}

	return &app{
		db:       db,
		conns:    conns,
		registry: registry,
		svc:      svc,
		logger:   logger,
	}, nil
}

// Close flushes pending alerts before dropping the connections they use
func (a *app) Close() {
	if err := a.svc.Stop(); err != nil {
		a.logger.Error("Failed to stop service", zap.Error(err))
	}
	for _, err := range a.conns.Close() {
		a.logger.Error("Failed to close data connection", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database", zap.Error(err))
	}
}
