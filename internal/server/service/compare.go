package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"netbaseline/internal/normalize"
	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CompareBaselineScan reconciles one scan job with its baseline. Events,
// alerts and the baseline update commit in one transaction; alert
// notifications are published after commit.
func (s *Service) CompareBaselineScan(ctx context.Context, input *types.CompareInput) (result *types.CompareResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		s.metrics.Cycles.WithLabelValues(cycleResult(err)).Inc()
	}()

	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	scope := types.OrgScope{OrgID: input.OrgID, SiteID: input.SiteID}
	log := s.logger.With(
		zap.String("baseline_id", input.BaselineID),
		zap.String("org_id", input.OrgID),
		zap.String("job_id", input.JobID))

	lease, release, err := s.locker.Acquire(ctx, input.BaselineID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock baseline %s: %w", input.BaselineID, err)
	}
	defer release()
	// A lost lease aborts the cycle and rolls back the transaction
	ctx = lease
	defer func() {
		if cause := context.Cause(lease); err != nil && errors.Is(cause, types.ErrLockLost) && !errors.Is(err, types.ErrLockLost) {
			err = fmt.Errorf("%w: %w", cause, err)
		}
	}()

	now := s.now().UTC()

	record, err := s.repos.Baselines.Get(ctx, scope, input.BaselineID)
	if err != nil {
		return nil, err
	}
	known := normalize.KnownDevices(record.KnownDevices, now)
	settings := normalize.AlertSettings(record.AlertSettings)

	var (
		hosts  []types.EnrichedHost
		policy *types.OrgNetworkPolicy
		recent []*types.ChangeEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hosts, err = EnrichHosts(gctx, s.repos.Assets, scope, input.Hosts)
		return err
	})
	g.Go(func() error {
		policy = LoadOrgNetworkPolicy(gctx, s.repos.Organizations, scope, log)
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = s.repos.Events.ListSince(gctx, scope, record.ID, now.Add(-s.config.DedupWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	hosts = uniqueHosts(hosts)

	dedup := newDedupSet(recent)
	for _, e := range DiffScan(known, hosts, policy, now, s.config.DisappearThreshold) {
		e.ID = uuid.NewString()
		e.OrgID = record.OrgID
		e.SiteID = record.SiteID
		e.BaselineID = record.ID
		e.DetectedAt = now
		dedup.TryQueue(e)
	}
	events := dedup.queued

	result = &types.CompareResult{
		BaselineID:     record.ID,
		ProcessedHosts: len(hosts),
		EventsCreated:  len(events),
	}
	for _, e := range events {
		switch e.EventType {
		case types.EventNewDevice:
			result.NewDevices++
		case types.EventDeviceDisappeared:
			result.DisappearedDevices++
		case types.EventDeviceChanged:
			result.ChangedDevices++
		case types.EventRogueDevice:
			result.RogueDevices++
		}
	}

	schedule := normalize.ScanSchedule(record.ScanSchedule, s.config.DefaultIntervalHours, now)
	schedule.NextScanAt = now.Add(time.Duration(schedule.IntervalHours) * time.Hour)
	update := &types.BaselineUpdate{
		KnownDevices: MergeKnownDevices(known, hosts, now),
		ScanSchedule: schedule,
		LastScanAt:   now,
		UpdatedAt:    now,
	}

	var notifications []*types.AlertTriggered
	err = s.database.WithTransaction(ctx, func(tx *sql.Tx) error {
		repos := repository.FromTx(tx, s.database.Driver(), s.logger)
		if err := repos.Events.InsertBatch(ctx, events); err != nil {
			return err
		}

		for _, e := range events {
			if !settings.Enabled(e.EventType) {
				continue
			}
			triggered, err := s.dispatchAlert(ctx, log, repos, scope, e, now)
			if err != nil {
				return fmt.Errorf("failed to dispatch alert for event %s: %w", e.ID, err)
			}
			if triggered == nil {
				result.AlertsSkipped++
				continue
			}
			notifications = append(notifications, triggered)
		}

		return repos.Baselines.Update(ctx, scope, record.ID, update)
	})
	if err != nil {
		log.Error("Baseline comparison failed", zap.Error(err))
		return nil, fmt.Errorf("failed to apply baseline comparison: %w", err)
	}
	result.AlertsCreated = len(notifications)

	for _, e := range events {
		s.metrics.Events.WithLabelValues(string(e.EventType)).Inc()
	}
	s.metrics.AlertsCreated.Add(float64(result.AlertsCreated))
	s.metrics.AlertsSkipped.Add(float64(result.AlertsSkipped))

	if s.notifier != nil {
		for _, n := range notifications {
			s.notifier.NotifyAlertTriggered(n)
		}
	}

	log.Info("Baseline comparison completed",
		zap.Int("processed_hosts", result.ProcessedHosts),
		zap.Int("events_created", result.EventsCreated),
		zap.Int("new_devices", result.NewDevices),
		zap.Int("disappeared_devices", result.DisappearedDevices),
		zap.Int("changed_devices", result.ChangedDevices),
		zap.Int("rogue_devices", result.RogueDevices),
		zap.Int("alerts_created", result.AlertsCreated),
		zap.Int("alerts_skipped", result.AlertsSkipped))

	return result, nil
}

func cycleResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
