package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (q *Queries) GetUser(ctx context.Context, userID int) (*User, error) {
	var user User
	if err := q.get(ctx, &user, "SELECT * FROM users WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (q *Queries) InsertUser(ctx context.Context, user User) (int, error) {
	query := `
		INSERT INTO users (user_username, user_email, user_display_name, user_created_at)
		VALUES (:user_username, :user_email, :user_display_name, :user_created_at)
		RETURNING user_id
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	id, err := q.insert(ctx, query, user)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// SyncUserDisplayNames copies a contact's name onto every user linked to it in any club.
func (q *Queries) SyncUserDisplayNames(ctx context.Context, contactID int, name string) error {
	query := `
		UPDATE users SET user_display_name = ?
		WHERE user_id IN (SELECT user_club_user_id FROM user_clubs WHERE user_club_contact_id = ?)
	`

	if _, err := q.exec(ctx, query, name, contactID); err != nil {
		return fmt.Errorf("failed to sync user display names: %w", err)
	}
	return nil
}

func (q *Queries) GetUserClubs(ctx context.Context, userID int) ([]UserClub, error) {
	var userClubs []UserClub
	if err := q.sel(ctx, &userClubs, "SELECT * FROM user_clubs WHERE user_club_user_id = ? ORDER BY user_club_club_id", userID); err != nil {
		return nil, fmt.Errorf("failed to get user clubs: %w", err)
	}
	return userClubs, nil
}

func (q *Queries) GetUserClub(ctx context.Context, userID int, clubID int) (*UserClub, error) {
	var userClub UserClub
	if err := q.get(ctx, &userClub, "SELECT * FROM user_clubs WHERE user_club_user_id = ? AND user_club_club_id = ?", userID, clubID); err != nil {
		return nil, fmt.Errorf("failed to get user club: %w", err)
	}
	return &userClub, nil
}

// InsertUserClub links a user to a club. The first club a user joins becomes the home club.
func (q *Queries) InsertUserClub(ctx context.Context, userClub UserClub) error {
	var count int
	if err := q.get(ctx, &count, "SELECT COUNT(*) FROM user_clubs WHERE user_club_user_id = ? AND user_club_is_home = ?", userClub.UserID, true); err != nil {
		return fmt.Errorf("failed to count home clubs: %w", err)
	}
	userClub.IsHome = count == 0

	query := `
		INSERT INTO user_clubs (user_club_user_id, user_club_club_id, user_club_contact_id, user_club_roles, user_club_is_home)
		VALUES (:user_club_user_id, :user_club_club_id, :user_club_contact_id, :user_club_roles, :user_club_is_home)
	`
	if _, err := q.named(ctx, query, userClub); err != nil {
		return fmt.Errorf("failed to insert user club: %w", err)
	}
	return nil
}

// SetHomeClub moves the home flag of a user to the given club. It must run inside a transaction.
func (q *Queries) SetHomeClub(ctx context.Context, userID int, clubID int) error {
	if _, err := q.GetUserClub(ctx, userID, clubID); err != nil {
		return err
	}

	if _, err := q.exec(ctx, "UPDATE user_clubs SET user_club_is_home = ? WHERE user_club_user_id = ? AND user_club_club_id != ?", false, userID, clubID); err != nil {
		return fmt.Errorf("failed to clear home club: %w", err)
	}
	if _, err := q.exec(ctx, "UPDATE user_clubs SET user_club_is_home = ? WHERE user_club_user_id = ? AND user_club_club_id = ?", true, userID, clubID); err != nil {
		return fmt.Errorf("failed to set home club: %w", err)
	}
	return nil
}

// GetUserIDsByContacts is the batch loader of linked users for contacts in a club.
func (q *Queries) GetUserIDsByContacts(ctx context.Context, clubID int, contactIDs []int) (map[int]int, error) {
	users := make(map[int]int, len(contactIDs))
	if len(contactIDs) == 0 {
		return users, nil
	}

	var rows []UserClub
	if err := q.selIn(ctx, &rows, "SELECT * FROM user_clubs WHERE user_club_club_id = ? AND user_club_contact_id IN (?)", clubID, contactIDs); err != nil {
		return nil, fmt.Errorf("failed to get users by contacts: %w", err)
	}

	for _, row := range rows {
		if row.ContactID != nil {
			users[*row.ContactID] = row.UserID
		}
	}
	return users, nil
}

func (q *Queries) HasLinkedUser(ctx context.Context, clubID int, contactID int) (bool, error) {
	users, err := q.GetUserIDsByContacts(ctx, clubID, []int{contactID})
	if err != nil {
		return false, err
	}
	_, ok := users[contactID]
	return ok, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := q.get(ctx, &user, "SELECT * FROM users WHERE user_username = ?", username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}
