package database

import (
	"context"
	"fmt"
)

// GetSessionTypes returns the global session types plus the club-specific ones of clubID.
// Club-specific types sort first so they win title lookups.
func (q *Queries) GetSessionTypes(ctx context.Context, clubID int) ([]SessionType, error) {
	query := `
		SELECT * FROM session_types
		WHERE session_type_club_id IS NULL OR session_type_club_id = ?
		ORDER BY CASE WHEN session_type_club_id IS NULL THEN 1 ELSE 0 END, session_type_id
	`

	var sessionTypes []SessionType
	if err := q.sel(ctx, &sessionTypes, query, clubID); err != nil {
		return nil, fmt.Errorf("failed to get session types: %w", err)
	}
	return sessionTypes, nil
}

func (q *Queries) GetSessionType(ctx context.Context, sessionTypeID int) (*SessionType, error) {
	var sessionType SessionType
	if err := q.get(ctx, &sessionType, "SELECT * FROM session_types WHERE session_type_id = ?", sessionTypeID); err != nil {
		return nil, fmt.Errorf("failed to get session type: %w", err)
	}
	return &sessionType, nil
}
