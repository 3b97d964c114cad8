package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RosterOfficerBand is the first order number reserved for officers.
const RosterOfficerBand = 1000

func (q *Queries) GetRoster(ctx context.Context, meetingID int) ([]RosterEntryWithContact, error) {
	query := `
		SELECT roster_entries.*, contacts.*
		FROM roster_entries
		JOIN contacts ON roster_entries.roster_contact_id = contacts.contact_id
		WHERE roster_entries.roster_meeting_id = ?
		ORDER BY roster_entries.roster_order_number, roster_entries.roster_id
	`

	var entries []RosterEntryWithContact
	if err := q.sel(ctx, &entries, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	return entries, nil
}

func (q *Queries) GetRosterEntry(ctx context.Context, meetingID int, contactID int) (*RosterEntry, error) {
	var entry RosterEntry
	if err := q.get(ctx, &entry, "SELECT * FROM roster_entries WHERE roster_meeting_id = ? AND roster_contact_id = ?", meetingID, contactID); err != nil {
		return nil, fmt.Errorf("failed to get roster entry: %w", err)
	}
	return &entry, nil
}

func (q *Queries) GetRosterEntryByID(ctx context.Context, rosterID int) (*RosterEntry, error) {
	var entry RosterEntry
	if err := q.get(ctx, &entry, "SELECT * FROM roster_entries WHERE roster_id = ?", rosterID); err != nil {
		return nil, fmt.Errorf("failed to get roster entry: %w", err)
	}
	return &entry, nil
}

// NextRosterOrderNumber returns the next free order number in the officer band or below it.
func (q *Queries) NextRosterOrderNumber(ctx context.Context, meetingID int, officer bool) (int, error) {
	query := "SELECT MAX(roster_order_number) FROM roster_entries WHERE roster_meeting_id = ? AND roster_order_number < ?"
	start := 1
	if officer {
		query = "SELECT MAX(roster_order_number) FROM roster_entries WHERE roster_meeting_id = ? AND roster_order_number >= ?"
		start = RosterOfficerBand
	}

	var maxOrder sql.NullInt64
	if err := q.get(ctx, &maxOrder, query, meetingID, RosterOfficerBand); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to get max roster order number: %w", err)
	}
	if !maxOrder.Valid {
		return start, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

func (q *Queries) InsertRosterEntry(ctx context.Context, entry RosterEntry) (int, error) {
	query := `
		INSERT INTO roster_entries (roster_meeting_id, roster_contact_id, roster_ticket, roster_order_number, roster_created_at)
		VALUES (:roster_meeting_id, :roster_contact_id, :roster_ticket, :roster_order_number, :roster_created_at)
		RETURNING roster_id
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	id, err := q.insert(ctx, query, entry)
	if err != nil {
		return 0, fmt.Errorf("failed to insert roster entry: %w", err)
	}
	return id, nil
}

func (q *Queries) UpdateRosterTicket(ctx context.Context, rosterID int, ticket Ticket) error {
	if _, err := q.exec(ctx, "UPDATE roster_entries SET roster_ticket = ? WHERE roster_id = ?", ticket, rosterID); err != nil {
		return fmt.Errorf("failed to update roster ticket: %w", err)
	}
	return nil
}

func (q *Queries) DeleteRosterEntry(ctx context.Context, rosterID int) error {
	if _, err := q.exec(ctx, "DELETE FROM roster_roles WHERE roster_role_roster_id = ?", rosterID); err != nil {
		return fmt.Errorf("failed to delete roster roles: %w", err)
	}
	if _, err := q.exec(ctx, "DELETE FROM roster_entries WHERE roster_id = ?", rosterID); err != nil {
		return fmt.Errorf("failed to delete roster entry: %w", err)
	}
	return nil
}

// GetRosterRoles returns the role ids linked to each roster entry of a meeting.
func (q *Queries) GetRosterRoles(ctx context.Context, meetingID int) (map[int][]int, error) {
	query := `
		SELECT roster_roles.*
		FROM roster_roles
		JOIN roster_entries ON roster_roles.roster_role_roster_id = roster_entries.roster_id
		WHERE roster_entries.roster_meeting_id = ?
		ORDER BY roster_roles.roster_role_roster_id, roster_roles.roster_role_role_id
	`

	var rows []RosterRole
	if err := q.sel(ctx, &rows, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get roster roles: %w", err)
	}

	roles := make(map[int][]int)
	for _, row := range rows {
		roles[row.RosterID] = append(roles[row.RosterID], row.RoleID)
	}
	return roles, nil
}

func (q *Queries) AddRosterRole(ctx context.Context, rosterID int, roleID int) error {
	query := `
		INSERT INTO roster_roles (roster_role_roster_id, roster_role_role_id)
		VALUES (?, ?)
		ON CONFLICT (roster_role_roster_id, roster_role_role_id) DO NOTHING
	`
	if _, err := q.exec(ctx, query, rosterID, roleID); err != nil {
		return fmt.Errorf("failed to add roster role: %w", err)
	}
	return nil
}

func (q *Queries) RemoveRosterRole(ctx context.Context, rosterID int, roleID int) error {
	if _, err := q.exec(ctx, "DELETE FROM roster_roles WHERE roster_role_roster_id = ? AND roster_role_role_id = ?", rosterID, roleID); err != nil {
		return fmt.Errorf("failed to remove roster role: %w", err)
	}
	return nil
}
