package database

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) GetOwnersByMeeting(ctx context.Context, meetingID int) ([]OwnerWithContact, error) {
	query := `
		SELECT owner_meeting_roles.*, contacts.*
		FROM owner_meeting_roles
		JOIN contacts ON owner_meeting_roles.owner_meeting_role_contact_id = contacts.contact_id
		WHERE owner_meeting_roles.owner_meeting_role_meeting_id = ?
		ORDER BY owner_meeting_roles.owner_meeting_role_role_id, owner_meeting_roles.owner_meeting_role_position, owner_meeting_roles.owner_meeting_role_id
	`

	var owners []OwnerWithContact
	if err := q.sel(ctx, &owners, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get owners: %w", err)
	}
	return owners, nil
}

// GetOwnersByMeetings is the batch loader for owner rows keyed by meeting id.
func (q *Queries) GetOwnersByMeetings(ctx context.Context, meetingIDs []int) (map[int][]OwnerWithContact, error) {
	owners := make(map[int][]OwnerWithContact, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return owners, nil
	}

	query := `
		SELECT owner_meeting_roles.*, contacts.*
		FROM owner_meeting_roles
		JOIN contacts ON owner_meeting_roles.owner_meeting_role_contact_id = contacts.contact_id
		WHERE owner_meeting_roles.owner_meeting_role_meeting_id IN (?)
		ORDER BY owner_meeting_roles.owner_meeting_role_role_id, owner_meeting_roles.owner_meeting_role_position, owner_meeting_roles.owner_meeting_role_id
	`

	var rows []OwnerWithContact
	if err := q.selIn(ctx, &rows, query, meetingIDs); err != nil {
		return nil, fmt.Errorf("failed to get owners: %w", err)
	}

	for _, row := range rows {
		owners[row.MeetingID] = append(owners[row.MeetingID], row)
	}
	return owners, nil
}

// GetRoleOwners returns the owners of a role in a meeting ordered by position.
func (q *Queries) GetRoleOwners(ctx context.Context, meetingID int, roleID int) ([]OwnerWithContact, error) {
	query := `
		SELECT owner_meeting_roles.*, contacts.*
		FROM owner_meeting_roles
		JOIN contacts ON owner_meeting_roles.owner_meeting_role_contact_id = contacts.contact_id
		WHERE owner_meeting_roles.owner_meeting_role_meeting_id = ? AND owner_meeting_roles.owner_meeting_role_role_id = ?
		ORDER BY owner_meeting_roles.owner_meeting_role_position, owner_meeting_roles.owner_meeting_role_id
	`

	var owners []OwnerWithContact
	if err := q.sel(ctx, &owners, query, meetingID, roleID); err != nil {
		return nil, fmt.Errorf("failed to get role owners: %w", err)
	}
	return owners, nil
}

// GetContactMeetingRoles returns the roles a contact owns in a meeting.
func (q *Queries) GetContactMeetingRoles(ctx context.Context, meetingID int, contactID int) ([]OwnerMeetingRole, error) {
	query := `
		SELECT * FROM owner_meeting_roles
		WHERE owner_meeting_role_meeting_id = ? AND owner_meeting_role_contact_id = ?
		ORDER BY owner_meeting_role_id
	`

	var owners []OwnerMeetingRole
	if err := q.sel(ctx, &owners, query, meetingID, contactID); err != nil {
		return nil, fmt.Errorf("failed to get contact meeting roles: %w", err)
	}
	return owners, nil
}

func (q *Queries) InsertOwner(ctx context.Context, owner OwnerMeetingRole) (int, error) {
	query := `
		INSERT INTO owner_meeting_roles (owner_meeting_role_contact_id, owner_meeting_role_meeting_id, owner_meeting_role_role_id,
		                                 owner_meeting_role_session_log_id, owner_meeting_role_credential, owner_meeting_role_position,
		                                 owner_meeting_role_created_at)
		VALUES (:owner_meeting_role_contact_id, :owner_meeting_role_meeting_id, :owner_meeting_role_role_id,
		        :owner_meeting_role_session_log_id, :owner_meeting_role_credential, :owner_meeting_role_position,
		        :owner_meeting_role_created_at)
		RETURNING owner_meeting_role_id
	`

	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = time.Now().UTC()
	}
	id, err := q.insert(ctx, query, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to insert owner: %w", err)
	}
	return id, nil
}

func (q *Queries) DeleteOwner(ctx context.Context, ownerID int) error {
	if _, err := q.exec(ctx, "DELETE FROM owner_meeting_roles WHERE owner_meeting_role_id = ?", ownerID); err != nil {
		return fmt.Errorf("failed to delete owner: %w", err)
	}
	return nil
}

func (q *Queries) UpdateOwnerPosition(ctx context.Context, ownerID int, position int) error {
	if _, err := q.exec(ctx, "UPDATE owner_meeting_roles SET owner_meeting_role_position = ? WHERE owner_meeting_role_id = ?", position, ownerID); err != nil {
		return fmt.Errorf("failed to update owner position: %w", err)
	}
	return nil
}

// GetRoleHistory returns every role the contact held in finished meetings, oldest first.
func (q *Queries) GetRoleHistory(ctx context.Context, contactID int) ([]RoleHistoryEntry, error) {
	query := `
		SELECT owner_meeting_roles.*, meetings.meeting_number, meetings.meeting_date, roles.role_name, roles.role_award_category
		FROM owner_meeting_roles
		JOIN meetings ON owner_meeting_roles.owner_meeting_role_meeting_id = meetings.meeting_id
		JOIN roles ON owner_meeting_roles.owner_meeting_role_role_id = roles.role_id
		WHERE owner_meeting_roles.owner_meeting_role_contact_id = ? AND meetings.meeting_status = ?
		ORDER BY meetings.meeting_date, meetings.meeting_number, owner_meeting_roles.owner_meeting_role_id
	`

	var history []RoleHistoryEntry
	if err := q.sel(ctx, &history, query, contactID, MeetingStatusFinished); err != nil {
		return nil, fmt.Errorf("failed to get role history: %w", err)
	}
	return history, nil
}

// GetRoleHistorySince is GetRoleHistory limited to meetings dated on or after since.
func (q *Queries) GetRoleHistorySince(ctx context.Context, contactID int, since string) ([]RoleHistoryEntry, error) {
	query := `
		SELECT owner_meeting_roles.*, meetings.meeting_number, meetings.meeting_date, roles.role_name, roles.role_award_category
		FROM owner_meeting_roles
		JOIN meetings ON owner_meeting_roles.owner_meeting_role_meeting_id = meetings.meeting_id
		JOIN roles ON owner_meeting_roles.owner_meeting_role_role_id = roles.role_id
		WHERE owner_meeting_roles.owner_meeting_role_contact_id = ? AND meetings.meeting_status = ? AND meetings.meeting_date >= ?
		ORDER BY meetings.meeting_date, meetings.meeting_number, owner_meeting_roles.owner_meeting_role_id
	`

	var history []RoleHistoryEntry
	if err := q.sel(ctx, &history, query, contactID, MeetingStatusFinished, since); err != nil {
		return nil, fmt.Errorf("failed to get role history: %w", err)
	}
	return history, nil
}
