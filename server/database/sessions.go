package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrSessionExpired = errors.New("session expired")

func (q *Queries) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := q.get(ctx, &session, "SELECT * FROM user_sessions WHERE user_session_id = ?", sessionID); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

func (q *Queries) InsertSession(ctx context.Context, session Session) error {
	query := `
		INSERT INTO user_sessions (user_session_id, user_session_user_id, user_session_club_id, user_session_voter_token,
		                           user_session_force_password_reset, user_session_created_at, user_session_expires_at)
		VALUES (:user_session_id, :user_session_user_id, :user_session_club_id, :user_session_voter_token,
		        :user_session_force_password_reset, :user_session_created_at, :user_session_expires_at)
	`
	if _, err := q.named(ctx, query, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (q *Queries) UpdateSessionClub(ctx context.Context, sessionID string, clubID int) error {
	if _, err := q.exec(ctx, "UPDATE user_sessions SET user_session_club_id = ? WHERE user_session_id = ?", clubID, sessionID); err != nil {
		return fmt.Errorf("failed to update session club: %w", err)
	}
	return nil
}

// DetachSessionUser logs the user out while keeping the voter token of the browser.
func (q *Queries) DetachSessionUser(ctx context.Context, sessionID string) error {
	if _, err := q.exec(ctx, "UPDATE user_sessions SET user_session_user_id = NULL WHERE user_session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to detach session user: %w", err)
	}
	return nil
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	if _, err := q.exec(ctx, "DELETE FROM user_sessions WHERE user_session_expires_at < ?", now.UTC()); err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return nil
}
