package database

import (
	"context"
	"fmt"
	"time"
)

// GetWaitlist returns the waitlist entries of the given session logs, oldest first.
func (q *Queries) GetWaitlist(ctx context.Context, sessionLogIDs []int) ([]WaitlistWithContact, error) {
	if len(sessionLogIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT waitlists.*, contacts.*
		FROM waitlists
		JOIN contacts ON waitlists.waitlist_contact_id = contacts.contact_id
		WHERE waitlists.waitlist_session_log_id IN (?)
		ORDER BY waitlists.waitlist_created_at, waitlists.waitlist_id
	`

	var entries []WaitlistWithContact
	if err := q.selIn(ctx, &entries, query, sessionLogIDs); err != nil {
		return nil, fmt.Errorf("failed to get waitlist: %w", err)
	}
	return entries, nil
}

func (q *Queries) GetMeetingWaitlists(ctx context.Context, meetingID int) ([]WaitlistWithContact, error) {
	query := `
		SELECT waitlists.*, contacts.*
		FROM waitlists
		JOIN contacts ON waitlists.waitlist_contact_id = contacts.contact_id
		JOIN session_logs ON waitlists.waitlist_session_log_id = session_logs.session_log_id
		WHERE session_logs.session_log_meeting_id = ?
		ORDER BY waitlists.waitlist_created_at, waitlists.waitlist_id
	`

	var entries []WaitlistWithContact
	if err := q.sel(ctx, &entries, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get meeting waitlists: %w", err)
	}
	return entries, nil
}

func (q *Queries) InsertWaitlist(ctx context.Context, sessionLogID int, contactID int, createdAt time.Time) error {
	query := `
		INSERT INTO waitlists (waitlist_session_log_id, waitlist_contact_id, waitlist_created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (waitlist_session_log_id, waitlist_contact_id) DO NOTHING
	`
	if _, err := q.exec(ctx, query, sessionLogID, contactID, createdAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert waitlist: %w", err)
	}
	return nil
}

// DeleteContactWaitlists removes a contact from the waitlists of the given session logs and reports how many rows were removed.
func (q *Queries) DeleteContactWaitlists(ctx context.Context, sessionLogIDs []int, contactID int) (int64, error) {
	if len(sessionLogIDs) == 0 {
		return 0, nil
	}

	res, err := q.execIn(ctx, "DELETE FROM waitlists WHERE waitlist_session_log_id IN (?) AND waitlist_contact_id = ?", sessionLogIDs, contactID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contact waitlists: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// PurgeWaitlists drops every waitlist entry of the given session logs.
func (q *Queries) PurgeWaitlists(ctx context.Context, sessionLogIDs []int) error {
	if len(sessionLogIDs) == 0 {
		return nil
	}
	if _, err := q.execIn(ctx, "DELETE FROM waitlists WHERE waitlist_session_log_id IN (?)", sessionLogIDs); err != nil {
		return fmt.Errorf("failed to purge waitlists: %w", err)
	}
	return nil
}
