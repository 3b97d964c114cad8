package database

import (
	"context"
	"fmt"
)

type ClubStats struct {
	Meetings    int `db:"meetings"`
	FilledRoles int `db:"filled_roles"`
	Attendees   int `db:"attendees"`
}

// GetClubStats aggregates finished meetings of a club dated between from and to (inclusive, YYYY-MM-DD).
func (q *Queries) GetClubStats(ctx context.Context, clubID int, from string, to string) (*ClubStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM meetings
			 WHERE meeting_club_id = ? AND meeting_status = ? AND meeting_date >= ? AND meeting_date <= ?) AS meetings,
			(SELECT COUNT(*) FROM owner_meeting_roles
			 JOIN meetings ON owner_meeting_roles.owner_meeting_role_meeting_id = meetings.meeting_id
			 WHERE meetings.meeting_club_id = ? AND meetings.meeting_status = ? AND meetings.meeting_date >= ? AND meetings.meeting_date <= ?) AS filled_roles,
			(SELECT COUNT(DISTINCT roster_entries.roster_contact_id) FROM roster_entries
			 JOIN meetings ON roster_entries.roster_meeting_id = meetings.meeting_id
			 WHERE meetings.meeting_club_id = ? AND meetings.meeting_status = ? AND meetings.meeting_date >= ? AND meetings.meeting_date <= ?
			   AND roster_entries.roster_ticket != ?) AS attendees
	`

	var stats ClubStats
	if err := q.get(ctx, &stats, query,
		clubID, MeetingStatusFinished, from, to,
		clubID, MeetingStatusFinished, from, to,
		clubID, MeetingStatusFinished, from, to, TicketCancelled,
	); err != nil {
		return nil, fmt.Errorf("failed to get club stats: %w", err)
	}
	return &stats, nil
}

// GetTopRoleTakers returns the contacts holding the most roles in finished meetings of the range.
func (q *Queries) GetTopRoleTakers(ctx context.Context, clubID int, from string, to string, limit int) ([]RoleCount, error) {
	query := `
		SELECT contacts.contact_id, contacts.contact_name, COUNT(*) AS count
		FROM owner_meeting_roles
		JOIN meetings ON owner_meeting_roles.owner_meeting_role_meeting_id = meetings.meeting_id
		JOIN contacts ON owner_meeting_roles.owner_meeting_role_contact_id = contacts.contact_id
		WHERE meetings.meeting_club_id = ? AND meetings.meeting_status = ? AND meetings.meeting_date >= ? AND meetings.meeting_date <= ?
		GROUP BY contacts.contact_id, contacts.contact_name
		ORDER BY count DESC, contacts.contact_name
		LIMIT ?
	`

	var counts []RoleCount
	if err := q.sel(ctx, &counts, query, clubID, MeetingStatusFinished, from, to, limit); err != nil {
		return nil, fmt.Errorf("failed to get top role takers: %w", err)
	}
	return counts, nil
}
