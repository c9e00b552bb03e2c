package service

import (
	"context"
	"fmt"

	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"
)

// resolveStep looks up a device id for the event, "" when it has none
type resolveStep struct {
	strategy  types.ResolveStrategy
	confident bool
	lookup    func(ctx context.Context, repos *repository.Repositories, scope types.OrgScope, e *types.ChangeEvent) (string, error)
}

// resolveSteps run in order and the first match wins. Anchors only give the
// alert somewhere to live and are never written back to the event.
var resolveSteps = []resolveStep{
	{types.ResolveEventLink, true, func(_ context.Context, _ *repository.Repositories, _ types.OrgScope, e *types.ChangeEvent) (string, error) {
		return e.LinkedDeviceID, nil
	}},
	{types.ResolveDiscoveredAsset, true, func(ctx context.Context, repos *repository.Repositories, scope types.OrgScope, e *types.ChangeEvent) (string, error) {
		return repos.Assets.LinkedDeviceID(ctx, scope, e.IPAddress)
	}},
	{types.ResolveNetworkMatch, true, func(ctx context.Context, repos *repository.Repositories, scope types.OrgScope, e *types.ChangeEvent) (string, error) {
		return repos.Devices.FindByNetwork(ctx, scope, e.IPAddress, e.MacAddress)
	}},
	{types.ResolveSiteAnchor, false, func(ctx context.Context, repos *repository.Repositories, scope types.OrgScope, _ *types.ChangeEvent) (string, error) {
		return repos.Devices.LatestInSite(ctx, scope)
	}},
	{types.ResolveOrgAnchor, false, func(ctx context.Context, repos *repository.Repositories, scope types.OrgScope, _ *types.ChangeEvent) (string, error) {
		return repos.Devices.LatestInOrg(ctx, scope)
	}},
}

// ResolveAlertDevice finds the managed device an alert for e attaches to.
// It returns nil when no device exists in the organization.
func ResolveAlertDevice(ctx context.Context, repos *repository.Repositories, scope types.OrgScope, e *types.ChangeEvent) (*types.ResolvedDevice, error) {
	for _, step := range resolveSteps {
		id, err := step.lookup(ctx, repos, scope, e)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve alert device by %s: %w", step.strategy, err)
		}
		if id != "" {
			return &types.ResolvedDevice{
				DeviceID:  id,
				Strategy:  step.strategy,
				Confident: step.confident,
			}, nil
		}
	}
	return nil, nil
}
