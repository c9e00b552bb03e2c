// Package worker consumes ScanCompleted messages and runs a baseline
// comparison for each of them over a bounded pool.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"netbaseline/internal/retry"
	"netbaseline/internal/server/service"
	"netbaseline/internal/types"
	"netbaseline/internal/validator"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Delivery is one inbound scan result
type Delivery struct {
	Body []byte

	// Done settles the delivery with the processing outcome
	Done func(err error) error
}

// Source yields scan result deliveries from a broker
type Source interface {
	Next(ctx context.Context) (*Delivery, error)
	Close() error
}

// Consumer feeds deliveries into the baseline service
type Consumer struct {
	source      Source
	service     service.BaselineService
	retry       *retry.Config
	concurrency int
	logger      *zap.Logger
}

// NewConsumer creates new consumer; concurrency below one means one
func NewConsumer(source Source, svc service.BaselineService, retryCfg *retry.Config, concurrency int, logger *zap.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		source:      source,
		service:     svc,
		retry:       retryCfg,
		concurrency: concurrency,
		logger:      logger.Named("worker"),
	}
}

// Run consumes until ctx is done or the source fails. In-flight deliveries
// finish before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Scan result consumer started", zap.Int("concurrency", c.concurrency))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	var runErr error
	for {
		d, err := c.source.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				runErr = fmt.Errorf("failed to receive scan result: %w", err)
			}
			break
		}
		g.Go(func() error {
			c.process(ctx, d)
			return nil
		})
	}

	_ = g.Wait()
	c.logger.Info("Scan result consumer stopped")
	return runErr
}

func (c *Consumer) process(ctx context.Context, d *Delivery) {
	err := c.Handle(ctx, d.Body)
	if err != nil {
		c.logger.Error("Failed to process scan result", zap.Error(err))
	}
	if d.Done == nil {
		return
	}
	if derr := d.Done(err); derr != nil {
		c.logger.Error("Failed to settle scan result delivery", zap.Error(derr))
	}
}

// Handle decodes one ScanCompleted message and compares it with its
// baseline. Transient failures are retried; a missing baseline or an
// invalid message is not.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var input types.CompareInput
	if err := json.Unmarshal(body, &input); err != nil {
		return fmt.Errorf("failed to decode scan result: %w", err)
	}

	log := c.logger.With(
		zap.String("baseline_id", input.BaselineID),
		zap.String("job_id", input.JobID))

	return retry.Execute(ctx, c.retry, func(ctx context.Context) error {
		result, err := c.service.CompareBaselineScan(ctx, &input)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) || errors.Is(err, validator.ErrValidation) {
				return retry.Permanent(err)
			}
			log.Warn("Baseline comparison attempt failed", zap.Error(err))
			return err
		}
		log.Debug("Scan result processed", zap.Int("events_created", result.EventsCreated))
		return nil
	})
}
