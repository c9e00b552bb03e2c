package types

import "strings"

// OrgNetworkPolicy is the rogue-device policy derived from organization settings
type OrgNetworkPolicy struct {
	BlockedManufacturers map[string]struct{}    `json:"blockedManufacturers"`
	AllowedAssetTypes    map[AssetType]struct{} `json:"allowedAssetTypes"`
}

// NewOrgNetworkPolicy returns an unrestricted policy
func NewOrgNetworkPolicy() *OrgNetworkPolicy {
	return &OrgNetworkPolicy{
		BlockedManufacturers: make(map[string]struct{}),
		AllowedAssetTypes:    make(map[AssetType]struct{}),
	}
}

// Violation returns a non-empty reason when the device breaks the policy
func (p *OrgNetworkPolicy) Violation(manufacturer string, assetType AssetType) string {
	if p == nil {
		return ""
	}
	m := strings.ToLower(strings.TrimSpace(manufacturer))
	if m != "" {
		if _, blocked := p.BlockedManufacturers[m]; blocked {
			return "blocked_manufacturer"
		}
	}
	if len(p.AllowedAssetTypes) > 0 {
		if _, ok := p.AllowedAssetTypes[assetType]; !ok {
			return "asset_type_not_allowed"
		}
	}
	return ""
}
