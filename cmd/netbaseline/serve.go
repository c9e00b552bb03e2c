package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"netbaseline/internal/config"
	"netbaseline/internal/retry"
	"netbaseline/internal/server/api"
	"netbaseline/internal/server/worker"
	"netbaseline/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics and health, and consume scan results when the worker is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			log.Info("Starting netbaseline", version.GetInfo().Fields()...)
			retry.SetLogger(log.Named("retry").Sugar().Debugf)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	router := api.NewRouter(cfg, a.svc, a.registry, log.Named("http"))
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var (
		source   worker.Source
		consumer *worker.Consumer
	)
	if cfg.Worker.Enabled {
		source, err = newSource(cfg, a)
		if err != nil {
			return fmt.Errorf("failed to open scan source: %w", err)
		}
		consumer = worker.NewConsumer(source, a.svc, &cfg.Worker.Retry, cfg.Worker.Concurrency, log)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Starting graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			defer func() {
				if err := source.Close(); err != nil {
					log.Warn("Failed to close scan source", zap.Error(err))
				}
			}()
			return consumer.Run(ctx)
		})
	}

	err = g.Wait()
	log.Info("Shutdown complete")
	return err
}

func newSource(cfg *config.Config, a *app) (worker.Source, error) {
	switch cfg.Worker.Source {
	case "rabbitmq":
		if a.conns.RMQ == nil {
			return nil, errors.New("rabbitmq connection is not configured")
		}
		return worker.NewRabbitMQSource(a.conns.RMQ, cfg.Worker.Queue, cfg.Worker.Concurrency)
	default:
		return worker.NewKafkaSource(cfg.Data.Kafka, cfg.Worker.Topic, cfg.Worker.GroupID)
	}
}
