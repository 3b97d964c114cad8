package database

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) GetClub(ctx context.Context, clubID int) (*Club, error) {
	var club Club
	if err := q.get(ctx, &club, "SELECT * FROM clubs WHERE club_id = ?", clubID); err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	return &club, nil
}

func (q *Queries) GetClubs(ctx context.Context) ([]Club, error) {
	var clubs []Club
	if err := q.sel(ctx, &clubs, "SELECT * FROM clubs ORDER BY club_name"); err != nil {
		return nil, fmt.Errorf("failed to get clubs: %w", err)
	}
	return clubs, nil
}

func (q *Queries) InsertClub(ctx context.Context, name string) (int, error) {
	query := `
		INSERT INTO clubs (club_name, club_created_at)
		VALUES (:club_name, :club_created_at)
		RETURNING club_id
	`

	id, err := q.insert(ctx, query, Club{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert club: %w", err)
	}
	return id, nil
}

// InsertExcomm creates a new executive committee term and makes it the club's current one.
// The club row is patched after the excomm exists to break the club/excomm cycle.
func (q *Queries) InsertExcomm(ctx context.Context, clubID int, term string, officers map[string]int) (int, error) {
	query := `
		INSERT INTO excomms (excomm_club_id, excomm_term, excomm_created_at)
		VALUES (:excomm_club_id, :excomm_term, :excomm_created_at)
		RETURNING excomm_id
	`

	excommID, err := q.insert(ctx, query, Excomm{
		ClubID:    clubID,
		Term:      term,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert excomm: %w", err)
	}

	if len(officers) > 0 {
		rows := make([]ExcommOfficer, 0, len(officers))
		for office, contactID := range officers {
			rows = append(rows, ExcommOfficer{
				ExcommID:  excommID,
				Office:    office,
				ContactID: contactID,
			})
		}

		officerQuery := `
			INSERT INTO excomm_officers (excomm_officer_excomm_id, excomm_officer_office, excomm_officer_contact_id)
			VALUES (:excomm_officer_excomm_id, :excomm_officer_office, :excomm_officer_contact_id)
		`
		if _, err = q.named(ctx, officerQuery, rows); err != nil {
			return 0, fmt.Errorf("failed to insert excomm officers: %w", err)
		}
	}

	if _, err = q.exec(ctx, "UPDATE clubs SET club_current_excomm_id = ? WHERE club_id = ?", excommID, clubID); err != nil {
		return 0, fmt.Errorf("failed to set current excomm: %w", err)
	}

	return excommID, nil
}

func (q *Queries) GetExcommOfficers(ctx context.Context, excommID int) ([]ExcommOfficerWithContact, error) {
	query := `
		SELECT excomm_officers.*, contacts.*
		FROM excomm_officers
		JOIN contacts ON excomm_officers.excomm_officer_contact_id = contacts.contact_id
		WHERE excomm_officers.excomm_officer_excomm_id = ?
		ORDER BY excomm_officers.excomm_officer_office
	`

	var officers []ExcommOfficerWithContact
	if err := q.sel(ctx, &officers, query, excommID); err != nil {
		return nil, fmt.Errorf("failed to get excomm officers: %w", err)
	}
	return officers, nil
}
