package database

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) GetAchievements(ctx context.Context, contactID int) ([]Achievement, error) {
	var achievements []Achievement
	if err := q.sel(ctx, &achievements, "SELECT * FROM achievements WHERE achievement_contact_id = ? ORDER BY achievement_issued_at, achievement_id", contactID); err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	return achievements, nil
}

// GetAchievementsByContacts is the batch loader for achievements keyed by contact id.
func (q *Queries) GetAchievementsByContacts(ctx context.Context, contactIDs []int) (map[int][]Achievement, error) {
	achievements := make(map[int][]Achievement, len(contactIDs))
	if len(contactIDs) == 0 {
		return achievements, nil
	}

	var rows []Achievement
	if err := q.selIn(ctx, &rows, "SELECT * FROM achievements WHERE achievement_contact_id IN (?) ORDER BY achievement_issued_at, achievement_id", contactIDs); err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}

	for _, row := range rows {
		achievements[row.ContactID] = append(achievements[row.ContactID], row)
	}
	return achievements, nil
}

// InsertAchievement records an achievement and reports whether it was new.
func (q *Queries) InsertAchievement(ctx context.Context, achievement Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (achievement_contact_id, achievement_kind, achievement_path_name, achievement_level, achievement_issued_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (achievement_contact_id, achievement_kind, achievement_path_name, achievement_level) DO NOTHING
	`

	if achievement.IssuedAt.IsZero() {
		achievement.IssuedAt = time.Now()
	}
	res, err := q.exec(ctx, query, achievement.ContactID, achievement.Kind, achievement.PathName, achievement.Level, achievement.IssuedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) DeleteAchievement(ctx context.Context, contactID int, achievementID int) error {
	if _, err := q.exec(ctx, "DELETE FROM achievements WHERE achievement_id = ? AND achievement_contact_id = ?", achievementID, contactID); err != nil {
		return fmt.Errorf("failed to delete achievement: %w", err)
	}
	return nil
}
