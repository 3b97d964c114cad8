// Package contacts manages the people known to a club.
package contacts

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
)

type Params struct {
	Name      string               `json:"name" validate:"required,max=100"`
	FirstName string               `json:"first_name" validate:"max=50"`
	LastName  string               `json:"last_name" validate:"max=50"`
	Email     string               `json:"email" validate:"omitempty,email"`
	Phone     string               `json:"phone" validate:"max=30"`
	Type      database.ContactType `json:"type"`
	MentorID  *int                 `json:"mentor_id"`
	AvatarURL string               `json:"avatar_url" validate:"omitempty,url"`
}

func (p Params) normalize() Params {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Type == "" {
		p.Type = database.ContactTypeGuest
	}
	return p
}

func (p Params) apply(contact *database.Contact) {
	contact.Name = p.Name
	contact.FirstName = p.FirstName
	contact.LastName = p.LastName
	contact.Email = p.Email
	contact.Phone = p.Phone
	contact.Type = p.Type
	contact.MentorID = p.MentorID
	contact.AvatarURL = p.AvatarURL
}

func New(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

type Service struct {
	db *database.Database
}

// List returns the contacts of the club in context, optionally filtered by type.
func (s *Service) List(ctx context.Context, principal auth.Principal, contactType database.ContactType) ([]database.Contact, error) {
	if !principal.IsMember() {
		return nil, apperr.Forbidden("only members can list contacts")
	}
	if contactType != "" && !contactType.Valid() {
		return nil, apperr.Validation("invalid contact type %q", contactType)
	}
	return s.db.GetClubContacts(ctx, principal.ClubID, contactType)
}

func (s *Service) Get(ctx context.Context, principal auth.Principal, contactID int) (*database.Contact, error) {
	if !principal.IsMember() {
		return nil, apperr.Forbidden("only members can view contacts")
	}
	return getClubContact(ctx, s.db.Queries, principal.ClubID, contactID)
}

func (s *Service) Create(ctx context.Context, principal auth.Principal, params Params) (*database.Contact, error) {
	if !principal.IsAdmin() {
		return nil, apperr.Forbidden("only admins can create contacts")
	}
	params = params.normalize()
	if !params.Type.Valid() {
		return nil, apperr.Validation("invalid contact type %q", params.Type)
	}

	var contact database.Contact
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		if err := checkDuplicate(ctx, q, principal.ClubID, 0, params); err != nil {
			return err
		}

		params.apply(&contact)
		id, err := q.InsertContact(ctx, contact)
		if err != nil {
			return err
		}
		contact.ID = id
		return q.AddContactToClub(ctx, id, principal.ClubID)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Created contact", slog.Int("club_id", principal.ClubID), slog.Int("contact_id", contact.ID))
	return &contact, nil
}

// Update saves a contact. Members may only edit themselves and never their own type.
// A name change is copied to every user linked to the contact.
func (s *Service) Update(ctx context.Context, principal auth.Principal, contactID int, params Params) (*database.Contact, error) {
	self := principal.ContactID != nil && *principal.ContactID == contactID
	if !principal.IsAdmin() && !self {
		return nil, apperr.Forbidden("not allowed to edit contact %d", contactID)
	}
	params = params.normalize()
	if !params.Type.Valid() {
		return nil, apperr.Validation("invalid contact type %q", params.Type)
	}

	var contact *database.Contact
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		var err error
		contact, err = getClubContact(ctx, q, principal.ClubID, contactID)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() {
			params.Type = contact.Type
		}
		if err = checkDuplicate(ctx, q, principal.ClubID, contactID, params); err != nil {
			return err
		}

		renamed := contact.Name != params.Name
		params.apply(contact)
		if err = q.UpdateContact(ctx, *contact); err != nil {
			return err
		}
		if renamed {
			return q.SyncUserDisplayNames(ctx, contactID, contact.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func getClubContact(ctx context.Context, q *database.Queries, clubID int, contactID int) (*database.Contact, error) {
	inClub, err := q.IsContactInClub(ctx, contactID, clubID)
	if err != nil {
		return nil, err
	}
	if !inClub {
		return nil, apperr.NotFound("contact %d not found", contactID)
	}

	contact, err := q.GetContact(ctx, contactID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "contact %d not found", contactID)
	}
	return contact, nil
}

// checkDuplicate rejects a contact sharing its name, email or phone with another contact of the club.
func checkDuplicate(ctx context.Context, q *database.Queries, clubID int, excludeID int, params Params) error {
	duplicate, err := q.FindDuplicateContact(ctx, clubID, excludeID, params.Name, params.Email, params.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	field := "name"
	switch {
	case strings.EqualFold(duplicate.Name, params.Name):
	case params.Email != "" && strings.EqualFold(duplicate.Email, params.Email):
		field = "email"
	case params.Phone != "" && duplicate.Phone == params.Phone:
		field = "phone"
	}
	return apperr.Conflict("a contact with this %s already exists", field).
		With("field", field).
		With("contact_id", duplicate.ID)
}
