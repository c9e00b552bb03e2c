package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"netbaseline/internal/types"
)

// organizationRepository represents organization repository implementation
type organizationRepository struct {
	base
}

// Settings returns the raw settings document of the organization
func (r *organizationRepository) Settings(ctx context.Context, scope types.OrgScope) (json.RawMessage, error) {
	query := r.rebind(`SELECT settings FROM organizations WHERE id = ?`)

	var settings []byte
	err := r.q.QueryRowContext(ctx, query, scope.OrgID).Scan(&settings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("organization %s: %w", scope.OrgID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query organization settings: %w", err)
	}

	return settings, nil
}
