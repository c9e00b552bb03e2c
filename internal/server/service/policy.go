package service

import (
	"context"
	"encoding/json"
	"strings"

	"netbaseline/internal/normalize"
	"netbaseline/internal/server/repository"
	"netbaseline/internal/types"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// policySections are the settings objects that may carry network policy keys
var policySections = []string{"", "network", "networkBaseline"}

// LoadOrgNetworkPolicy reads the rogue-device policy from the organization
// settings. Keys are honoured at the top level and under network and
// networkBaseline, and the union of all of them applies. Failures yield an
// unrestricted policy.
func LoadOrgNetworkPolicy(ctx context.Context, orgs repository.OrganizationRepository, scope types.OrgScope, logger *zap.Logger) *types.OrgNetworkPolicy {
	policy := types.NewOrgNetworkPolicy()

	raw, err := orgs.Settings(ctx, scope)
	if err != nil {
		logger.Warn("Failed to load organization network policy",
			zap.String("org_id", scope.OrgID),
			zap.Error(err))
		return policy
	}
	if len(raw) == 0 {
		return policy
	}

	var settings map[string]any
	if err := json.Unmarshal(raw, &settings); err != nil {
		logger.Debug("Organization settings are not a JSON object",
			zap.String("org_id", scope.OrgID),
			zap.Error(err))
		return policy
	}

	for _, name := range policySections {
		section := settings
		if name != "" {
			section, _ = settings[name].(map[string]any)
		}
		if section == nil {
			continue
		}

		for _, m := range stringList(section["blockedManufacturers"]) {
			if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
				policy.BlockedManufacturers[m] = struct{}{}
			}
		}
		for _, v := range stringList(section["allowedAssetTypes"]) {
			literal := strings.ToLower(strings.TrimSpace(v))
			if literal == "" {
				continue
			}
			t := normalize.AssetType(literal)
			if t == types.AssetUnknown && literal != string(types.AssetUnknown) {
				continue
			}
			policy.AllowedAssetTypes[t] = struct{}{}
		}
	}

	return policy
}

// stringList coerces a JSON array to strings; anything else yields nothing
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out, err := cast.ToStringSliceE(items)
	if err != nil {
		return nil
	}
	return out
}
