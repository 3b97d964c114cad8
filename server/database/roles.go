package database

import (
	"context"
	"fmt"
)

// GetRoles returns the global roles plus the club-specific roles of clubID.
func (q *Queries) GetRoles(ctx context.Context, clubID int) ([]Role, error) {
	query := `
		SELECT * FROM roles
		WHERE role_club_id IS NULL OR role_club_id = ?
		ORDER BY role_id
	`

	var roles []Role
	if err := q.sel(ctx, &roles, query, clubID); err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	return roles, nil
}

func (q *Queries) GetRole(ctx context.Context, roleID int) (*Role, error) {
	var role Role
	if err := q.get(ctx, &role, "SELECT * FROM roles WHERE role_id = ?", roleID); err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}
