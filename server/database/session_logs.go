package database

import (
	"context"
	"fmt"
)

// GetSessionLogs returns the agenda rows of a meeting in sequence order together with their session type.
func (q *Queries) GetSessionLogs(ctx context.Context, meetingID int) ([]SessionLogWithType, error) {
	query := `
		SELECT session_logs.*, session_types.*
		FROM session_logs
		JOIN session_types ON session_logs.session_log_session_type_id = session_types.session_type_id
		WHERE session_logs.session_log_meeting_id = ?
		ORDER BY session_logs.session_log_seq, session_logs.session_log_id
	`

	var logs []SessionLogWithType
	if err := q.sel(ctx, &logs, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to get session logs: %w", err)
	}
	return logs, nil
}

// GetSessionLogsByMeetings is the batch loader used by progression and stats.
func (q *Queries) GetSessionLogsByMeetings(ctx context.Context, meetingIDs []int) (map[int][]SessionLogWithType, error) {
	logs := make(map[int][]SessionLogWithType, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return logs, nil
	}

	query := `
		SELECT session_logs.*, session_types.*
		FROM session_logs
		JOIN session_types ON session_logs.session_log_session_type_id = session_types.session_type_id
		WHERE session_logs.session_log_meeting_id IN (?)
		ORDER BY session_logs.session_log_meeting_id, session_logs.session_log_seq, session_logs.session_log_id
	`

	var rows []SessionLogWithType
	if err := q.selIn(ctx, &rows, query, meetingIDs); err != nil {
		return nil, fmt.Errorf("failed to get session logs: %w", err)
	}

	for _, row := range rows {
		logs[row.MeetingID] = append(logs[row.MeetingID], row)
	}
	return logs, nil
}

func (q *Queries) GetSessionLog(ctx context.Context, sessionLogID int) (*SessionLogWithType, error) {
	query := `
		SELECT session_logs.*, session_types.*
		FROM session_logs
		JOIN session_types ON session_logs.session_log_session_type_id = session_types.session_type_id
		WHERE session_logs.session_log_id = ?
	`

	var log SessionLogWithType
	if err := q.get(ctx, &log, query, sessionLogID); err != nil {
		return nil, fmt.Errorf("failed to get session log: %w", err)
	}
	return &log, nil
}

// GetSessionLogsByRole returns every row of a meeting whose session type belongs to the role, in sequence order.
func (q *Queries) GetSessionLogsByRole(ctx context.Context, meetingID int, roleID int) ([]SessionLogWithType, error) {
	query := `
		SELECT session_logs.*, session_types.*
		FROM session_logs
		JOIN session_types ON session_logs.session_log_session_type_id = session_types.session_type_id
		WHERE session_logs.session_log_meeting_id = ? AND session_types.session_type_role_id = ?
		ORDER BY session_logs.session_log_seq, session_logs.session_log_id
	`

	var logs []SessionLogWithType
	if err := q.sel(ctx, &logs, query, meetingID, roleID); err != nil {
		return nil, fmt.Errorf("failed to get session logs by role: %w", err)
	}
	return logs, nil
}

func (q *Queries) InsertSessionLog(ctx context.Context, log SessionLog) (int, error) {
	query := `
		INSERT INTO session_logs (session_log_meeting_id, session_log_seq, session_log_session_type_id, session_log_project_id,
		                          session_log_title, session_log_credentials, session_log_duration_min, session_log_duration_max,
		                          session_log_start_time, session_log_project_code, session_log_pathway, session_log_status)
		VALUES (:session_log_meeting_id, :session_log_seq, :session_log_session_type_id, :session_log_project_id,
		        :session_log_title, :session_log_credentials, :session_log_duration_min, :session_log_duration_max,
		        :session_log_start_time, :session_log_project_code, :session_log_pathway, :session_log_status)
		RETURNING session_log_id
	`

	id, err := q.insert(ctx, query, log)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session log: %w", err)
	}
	return id, nil
}

// UpdateSessionLog writes the editable fields of a row. Owner snapshots are written by UpdateSessionLogSnapshot.
func (q *Queries) UpdateSessionLog(ctx context.Context, log SessionLog) error {
	query := `
		UPDATE session_logs SET
			session_log_seq = :session_log_seq,
			session_log_session_type_id = :session_log_session_type_id,
			session_log_project_id = :session_log_project_id,
			session_log_title = :session_log_title,
			session_log_duration_min = :session_log_duration_min,
			session_log_duration_max = :session_log_duration_max,
			session_log_status = :session_log_status
		WHERE session_log_id = :session_log_id
	`
	if _, err := q.named(ctx, query, log); err != nil {
		return fmt.Errorf("failed to update session log: %w", err)
	}
	return nil
}

func (q *Queries) UpdateSessionLogStartTime(ctx context.Context, sessionLogID int, startTime *string) error {
	if _, err := q.exec(ctx, "UPDATE session_logs SET session_log_start_time = ? WHERE session_log_id = ?", startTime, sessionLogID); err != nil {
		return fmt.Errorf("failed to update session log start time: %w", err)
	}
	return nil
}

// UpdateSessionLogSnapshot stores the owner derived fields of a row.
func (q *Queries) UpdateSessionLogSnapshot(ctx context.Context, sessionLogID int, credentials string, projectCode string, pathway string) error {
	query := `
		UPDATE session_logs SET
			session_log_credentials = ?,
			session_log_project_code = ?,
			session_log_pathway = ?
		WHERE session_log_id = ?
	`
	if _, err := q.exec(ctx, query, credentials, projectCode, pathway, sessionLogID); err != nil {
		return fmt.Errorf("failed to update session log snapshot: %w", err)
	}
	return nil
}

func (q *Queries) UpdateSessionLogProject(ctx context.Context, sessionLogID int, projectID *int, projectCode string) error {
	if _, err := q.exec(ctx, "UPDATE session_logs SET session_log_project_id = ?, session_log_project_code = ? WHERE session_log_id = ?", projectID, projectCode, sessionLogID); err != nil {
		return fmt.Errorf("failed to update session log project: %w", err)
	}
	return nil
}

func (q *Queries) DeleteSessionLog(ctx context.Context, sessionLogID int) error {
	if _, err := q.exec(ctx, "DELETE FROM session_logs WHERE session_log_id = ?", sessionLogID); err != nil {
		return fmt.Errorf("failed to delete session log: %w", err)
	}
	return nil
}

// DeleteSessionLogs clears a meeting's agenda including owner rows and waitlists.
func (q *Queries) DeleteSessionLogs(ctx context.Context, meetingID int) error {
	if _, err := q.exec(ctx, "DELETE FROM waitlists WHERE waitlist_session_log_id IN (SELECT session_log_id FROM session_logs WHERE session_log_meeting_id = ?)", meetingID); err != nil {
		return fmt.Errorf("failed to delete waitlists: %w", err)
	}
	if _, err := q.exec(ctx, "DELETE FROM owner_meeting_roles WHERE owner_meeting_role_meeting_id = ?", meetingID); err != nil {
		return fmt.Errorf("failed to delete owners: %w", err)
	}
	if _, err := q.exec(ctx, "DELETE FROM session_logs WHERE session_log_meeting_id = ?", meetingID); err != nil {
		return fmt.Errorf("failed to delete session logs: %w", err)
	}
	return nil
}
