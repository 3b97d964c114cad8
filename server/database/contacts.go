package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (q *Queries) GetContact(ctx context.Context, contactID int) (*Contact, error) {
	var contact Contact
	if err := q.get(ctx, &contact, "SELECT * FROM contacts WHERE contact_id = ?", contactID); err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

// GetContactsByIDs is the batch loader for contacts.
func (q *Queries) GetContactsByIDs(ctx context.Context, contactIDs []int) (map[int]Contact, error) {
	contacts := make(map[int]Contact, len(contactIDs))
	if len(contactIDs) == 0 {
		return contacts, nil
	}

	var rows []Contact
	if err := q.selIn(ctx, &rows, "SELECT * FROM contacts WHERE contact_id IN (?)", contactIDs); err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	for _, row := range rows {
		contacts[row.ID] = row
	}
	return contacts, nil
}

func (q *Queries) GetClubContacts(ctx context.Context, clubID int, contactType ContactType) ([]Contact, error) {
	query := `
		SELECT contacts.*
		FROM contacts
		JOIN contact_clubs ON contacts.contact_id = contact_clubs.contact_club_contact_id
		WHERE contact_clubs.contact_club_club_id = ?
	`
	args := []any{clubID}
	if contactType != "" {
		query += " AND contacts.contact_type = ?"
		args = append(args, contactType)
	}
	query += " ORDER BY contacts.contact_name"

	var contacts []Contact
	if err := q.sel(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get club contacts: %w", err)
	}
	return contacts, nil
}

func (q *Queries) GetClubContactByName(ctx context.Context, clubID int, name string) (*Contact, error) {
	query := `
		SELECT contacts.*
		FROM contacts
		JOIN contact_clubs ON contacts.contact_id = contact_clubs.contact_club_contact_id
		WHERE contact_clubs.contact_club_club_id = ? AND contacts.contact_name = ?
		ORDER BY contacts.contact_id
		LIMIT 1
	`

	var contact Contact
	if err := q.get(ctx, &contact, query, clubID, name); err != nil {
		return nil, fmt.Errorf("failed to get contact by name: %w", err)
	}
	return &contact, nil
}

// FindDuplicateContact returns the first contact in the club that shares the name, email or phone
// (case-insensitive), ignoring excludeID. Empty email and phone values never match.
func (q *Queries) FindDuplicateContact(ctx context.Context, clubID int, excludeID int, name string, email string, phone string) (*Contact, error) {
	query := `
		SELECT contacts.*
		FROM contacts
		JOIN contact_clubs ON contacts.contact_id = contact_clubs.contact_club_contact_id
		WHERE contact_clubs.contact_club_club_id = ?
		  AND contacts.contact_id != ?
		  AND (LOWER(contacts.contact_name) = ?
		    OR (? != '' AND LOWER(contacts.contact_email) = ?)
		    OR (? != '' AND contacts.contact_phone = ?))
		ORDER BY contacts.contact_id
		LIMIT 1
	`

	name = strings.ToLower(strings.TrimSpace(name))
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	var contact Contact
	if err := q.get(ctx, &contact, query, clubID, excludeID, name, email, email, phone, phone); err != nil {
		return nil, fmt.Errorf("failed to find duplicate contact: %w", err)
	}
	return &contact, nil
}

func (q *Queries) InsertContact(ctx context.Context, contact Contact) (int, error) {
	query := `
		INSERT INTO contacts (contact_name, contact_first_name, contact_last_name, contact_email, contact_phone, contact_type,
		                      contact_current_path_id, contact_completed_paths, contact_is_distinguished, contact_mentor_id,
		                      contact_avatar_url, contact_created_at)
		VALUES (:contact_name, :contact_first_name, :contact_last_name, :contact_email, :contact_phone, :contact_type,
		        :contact_current_path_id, :contact_completed_paths, :contact_is_distinguished, :contact_mentor_id,
		        :contact_avatar_url, :contact_created_at)
		RETURNING contact_id
	`

	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}
	if contact.CompletedPaths.V == nil {
		contact.CompletedPaths.V = []string{}
	}

	id, err := q.insert(ctx, query, contact)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact: %w", err)
	}
	return id, nil
}

func (q *Queries) UpdateContact(ctx context.Context, contact Contact) error {
	query := `
		UPDATE contacts SET
			contact_name = :contact_name,
			contact_first_name = :contact_first_name,
			contact_last_name = :contact_last_name,
			contact_email = :contact_email,
			contact_phone = :contact_phone,
			contact_type = :contact_type,
			contact_current_path_id = :contact_current_path_id,
			contact_completed_paths = :contact_completed_paths,
			contact_is_distinguished = :contact_is_distinguished,
			contact_mentor_id = :contact_mentor_id,
			contact_avatar_url = :contact_avatar_url
		WHERE contact_id = :contact_id
	`

	if contact.CompletedPaths.V == nil {
		contact.CompletedPaths.V = []string{}
	}
	if _, err := q.named(ctx, query, contact); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (q *Queries) UpdateContactType(ctx context.Context, contactID int, contactType ContactType) error {
	if _, err := q.exec(ctx, "UPDATE contacts SET contact_type = ? WHERE contact_id = ?", contactType, contactID); err != nil {
		return fmt.Errorf("failed to update contact type: %w", err)
	}
	return nil
}

func (q *Queries) AddContactToClub(ctx context.Context, contactID int, clubID int) error {
	query := `
		INSERT INTO contact_clubs (contact_club_contact_id, contact_club_club_id, contact_club_joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT (contact_club_contact_id, contact_club_club_id) DO NOTHING
	`

	if _, err := q.exec(ctx, query, contactID, clubID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add contact to club: %w", err)
	}
	return nil
}

func (q *Queries) IsContactInClub(ctx context.Context, contactID int, clubID int) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM contact_clubs
		WHERE contact_club_contact_id = ? AND contact_club_club_id = ?
	`

	var count int
	if err := q.get(ctx, &count, query, contactID, clubID); err != nil {
		return false, fmt.Errorf("failed to check contact club: %w", err)
	}
	return count > 0, nil
}

// GetPrimaryClubsByContacts is the batch loader for the club each contact joined first.
func (q *Queries) GetPrimaryClubsByContacts(ctx context.Context, contactIDs []int) (map[int]int, error) {
	clubs := make(map[int]int, len(contactIDs))
	if len(contactIDs) == 0 {
		return clubs, nil
	}

	query := `
		SELECT contact_club_contact_id, contact_club_club_id, contact_club_joined_at
		FROM contact_clubs
		WHERE contact_club_contact_id IN (?)
		ORDER BY contact_club_joined_at, contact_club_club_id
	`

	var rows []struct {
		ContactID int       `db:"contact_club_contact_id"`
		ClubID    int       `db:"contact_club_club_id"`
		JoinedAt  time.Time `db:"contact_club_joined_at"`
	}
	if err := q.selIn(ctx, &rows, query, contactIDs); err != nil {
		return nil, fmt.Errorf("failed to get primary clubs: %w", err)
	}

	for _, row := range rows {
		if _, ok := clubs[row.ContactID]; !ok {
			clubs[row.ContactID] = row.ClubID
		}
	}
	return clubs, nil
}
