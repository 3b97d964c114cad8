package database

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) GetMeetingTemplates(ctx context.Context, clubID int) ([]MeetingTemplate, error) {
	var templates []MeetingTemplate
	if err := q.sel(ctx, &templates, "SELECT * FROM meeting_templates WHERE meeting_template_club_id = ? ORDER BY meeting_template_type", clubID); err != nil {
		return nil, fmt.Errorf("failed to get meeting templates: %w", err)
	}
	return templates, nil
}

func (q *Queries) GetMeetingTemplate(ctx context.Context, clubID int, meetingType string) (*MeetingTemplate, error) {
	var template MeetingTemplate
	if err := q.get(ctx, &template, "SELECT * FROM meeting_templates WHERE meeting_template_club_id = ? AND meeting_template_type = ?", clubID, meetingType); err != nil {
		return nil, fmt.Errorf("failed to get meeting template: %w", err)
	}
	return &template, nil
}

func (q *Queries) UpsertMeetingTemplate(ctx context.Context, clubID int, meetingType string, content string) error {
	query := `
		INSERT INTO meeting_templates (meeting_template_club_id, meeting_template_type, meeting_template_content, meeting_template_updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (meeting_template_club_id, meeting_template_type) DO UPDATE SET
			meeting_template_content = excluded.meeting_template_content,
			meeting_template_updated_at = excluded.meeting_template_updated_at
	`
	if _, err := q.exec(ctx, query, clubID, meetingType, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert meeting template: %w", err)
	}
	return nil
}
