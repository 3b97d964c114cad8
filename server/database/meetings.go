package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (q *Queries) GetMeeting(ctx context.Context, meetingID int) (*Meeting, error) {
	var meeting Meeting
	if err := q.get(ctx, &meeting, "SELECT * FROM meetings WHERE meeting_id = ?", meetingID); err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

func (q *Queries) GetMeetingByNumber(ctx context.Context, clubID int, number int) (*Meeting, error) {
	var meeting Meeting
	if err := q.get(ctx, &meeting, "SELECT * FROM meetings WHERE meeting_club_id = ? AND meeting_number = ?", clubID, number); err != nil {
		return nil, fmt.Errorf("failed to get meeting by number: %w", err)
	}
	return &meeting, nil
}

func (q *Queries) GetMeetings(ctx context.Context, clubID int, statuses ...MeetingStatus) ([]Meeting, error) {
	query := "SELECT * FROM meetings WHERE meeting_club_id = ?"
	args := []any{clubID}
	if len(statuses) > 0 {
		query += " AND meeting_status IN (?)"
		args = append(args, statuses)
	}
	query += " ORDER BY meeting_number DESC"

	var meetings []Meeting
	if err := q.selIn(ctx, &meetings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get meetings: %w", err)
	}
	return meetings, nil
}

// GetLatestMeetingDate returns the most recent meeting date of a club, excluding one meeting number.
// ok is false when the club has no other meeting.
func (q *Queries) GetLatestMeetingDate(ctx context.Context, clubID int, excludeNumber int) (string, bool, error) {
	var date sql.NullString
	if err := q.get(ctx, &date, "SELECT MAX(meeting_date) FROM meetings WHERE meeting_club_id = ? AND meeting_number != ?", clubID, excludeNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get latest meeting date: %w", err)
	}
	return date.String, date.Valid, nil
}

func (q *Queries) InsertMeeting(ctx context.Context, meeting Meeting) (int, error) {
	query := `
		INSERT INTO meetings (meeting_club_id, meeting_number, meeting_date, meeting_start_time, meeting_type, meeting_ge_mode,
		                      meeting_title, meeting_subtitle, meeting_wod, meeting_status, meeting_manager_id, meeting_excomm_id,
		                      meeting_media_url, meeting_created_at)
		VALUES (:meeting_club_id, :meeting_number, :meeting_date, :meeting_start_time, :meeting_type, :meeting_ge_mode,
		        :meeting_title, :meeting_subtitle, :meeting_wod, :meeting_status, :meeting_manager_id, :meeting_excomm_id,
		        :meeting_media_url, :meeting_created_at)
		RETURNING meeting_id
	`

	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = time.Now().UTC()
	}
	id, err := q.insert(ctx, query, meeting)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meeting: %w", err)
	}
	return id, nil
}

// UpdateMeetingAttributes writes the editable top-level attributes of a meeting.
func (q *Queries) UpdateMeetingAttributes(ctx context.Context, meeting Meeting) error {
	query := `
		UPDATE meetings SET
			meeting_date = :meeting_date,
			meeting_start_time = :meeting_start_time,
			meeting_type = :meeting_type,
			meeting_ge_mode = :meeting_ge_mode,
			meeting_title = :meeting_title,
			meeting_subtitle = :meeting_subtitle,
			meeting_wod = :meeting_wod,
			meeting_manager_id = :meeting_manager_id,
			meeting_media_url = :meeting_media_url
		WHERE meeting_id = :meeting_id
	`
	if _, err := q.named(ctx, query, meeting); err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	return nil
}

func (q *Queries) UpdateMeetingStatus(ctx context.Context, meetingID int, status MeetingStatus) error {
	if _, err := q.exec(ctx, "UPDATE meetings SET meeting_status = ? WHERE meeting_id = ?", status, meetingID); err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
	}
	return nil
}

func (q *Queries) UpdateMeetingAwards(ctx context.Context, meeting Meeting) error {
	query := `
		UPDATE meetings SET
			meeting_recommendation_score = :meeting_recommendation_score,
			meeting_best_speaker_id = :meeting_best_speaker_id,
			meeting_best_evaluator_id = :meeting_best_evaluator_id,
			meeting_best_role_taker_id = :meeting_best_role_taker_id,
			meeting_best_table_topic_id = :meeting_best_table_topic_id
		WHERE meeting_id = :meeting_id
	`
	if _, err := q.named(ctx, query, meeting); err != nil {
		return fmt.Errorf("failed to update meeting awards: %w", err)
	}
	return nil
}

// DeleteMeeting removes a meeting and everything hanging off it. Shared owner rows and roster roles
// are removed explicitly before the cascade so the order does not depend on the driver.
func (q *Queries) DeleteMeeting(ctx context.Context, meetingID int) error {
	steps := []struct {
		name  string
		query string
	}{
		{"roster roles", "DELETE FROM roster_roles WHERE roster_role_roster_id IN (SELECT roster_id FROM roster_entries WHERE roster_meeting_id = ?)"},
		{"roster", "DELETE FROM roster_entries WHERE roster_meeting_id = ?"},
		{"votes", "DELETE FROM votes WHERE vote_meeting_id = ?"},
		{"waitlists", "DELETE FROM waitlists WHERE waitlist_session_log_id IN (SELECT session_log_id FROM session_logs WHERE session_log_meeting_id = ?)"},
		{"owners", "DELETE FROM owner_meeting_roles WHERE owner_meeting_role_meeting_id = ?"},
		{"plans", "DELETE FROM planner_plans WHERE plan_meeting_id = ?"},
		{"session logs", "DELETE FROM session_logs WHERE session_log_meeting_id = ?"},
		{"meeting", "DELETE FROM meetings WHERE meeting_id = ?"},
	}

	for _, step := range steps {
		if _, err := q.exec(ctx, step.query, meetingID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.name, err)
		}
	}
	return nil
}

// CountBestTableTopics counts finished meetings since the given date where the contact won best table topic.
func (q *Queries) CountBestTableTopics(ctx context.Context, contactID int, since string) (int, error) {
	query := `
		SELECT COUNT(*) FROM meetings
		WHERE meeting_best_table_topic_id = ? AND meeting_status = ? AND meeting_date >= ?
	`

	var count int
	if err := q.get(ctx, &count, query, contactID, MeetingStatusFinished, since); err != nil {
		return 0, fmt.Errorf("failed to count best table topics: %w", err)
	}
	return count, nil
}
