// Package roster keeps the per-meeting attendee list in sync with role assignments.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/database"
)

type Op int

const (
	OpAssign Op = iota
	OpUnassign
)

func New(db *database.Database) *Service {
	return &Service{db: db}
}

type Service struct {
	db *database.Database
}

type Entry struct {
	database.RosterEntryWithContact
	RoleIDs []int
}

// TicketFor derives the ticket of a new roster entry.
func TicketFor(contactType database.ContactType, officer bool) database.Ticket {
	if officer || contactType == database.ContactTypeOfficer {
		return database.TicketOfficer
	}
	if contactType == database.ContactTypeMember {
		return database.TicketEarlyBirdMember
	}
	return database.TicketEarlyBirdGuest
}

// EnsureEntry returns the roster entry of a contact, creating it when missing. A cancelled entry is reactivated.
func EnsureEntry(ctx context.Context, q *database.Queries, meetingID int, contact database.Contact, officer bool) (*database.RosterEntry, error) {
	entry, err := q.GetRosterEntry(ctx, meetingID, contact.ID)
	if err == nil {
		if entry.Ticket == database.TicketCancelled {
			entry.Ticket = TicketFor(contact.Type, officer)
			if err = q.UpdateRosterTicket(ctx, entry.ID, entry.Ticket); err != nil {
				return nil, err
			}
		}
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	officer = officer || contact.Type == database.ContactTypeOfficer
	orderNumber, err := q.NextRosterOrderNumber(ctx, meetingID, officer)
	if err != nil {
		return nil, err
	}
	if !officer && orderNumber >= database.RosterOfficerBand {
		return nil, apperr.Validation("roster of meeting %d is full, order numbers from %d are reserved for officers", meetingID, database.RosterOfficerBand)
	}

	newEntry := database.RosterEntry{
		MeetingID:   meetingID,
		ContactID:   contact.ID,
		Ticket:      TicketFor(contact.Type, officer),
		OrderNumber: orderNumber,
	}
	newEntry.ID, err = q.InsertRosterEntry(ctx, newEntry)
	if err != nil {
		return nil, err
	}
	return &newEntry, nil
}

// SyncRoleAssignment mirrors an owner change onto the roster role back-references.
func SyncRoleAssignment(ctx context.Context, q *database.Queries, meetingID int, contactID int, roleID int, op Op) error {
	if op == OpUnassign {
		entry, err := q.GetRosterEntry(ctx, meetingID, contactID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		return q.RemoveRosterRole(ctx, entry.ID, roleID)
	}

	contact, err := q.GetContact(ctx, contactID)
	if err != nil {
		return err
	}
	entry, err := EnsureEntry(ctx, q, meetingID, *contact, false)
	if err != nil {
		return err
	}
	return q.AddRosterRole(ctx, entry.ID, roleID)
}

// SeedOfficers adds every officer to the roster in the officer band.
func SeedOfficers(ctx context.Context, q *database.Queries, meetingID int, officers []database.Contact) error {
	for _, officer := range officers {
		if _, err := EnsureEntry(ctx, q, meetingID, officer, true); err != nil {
			return fmt.Errorf("failed to seed officer %d: %w", officer.ID, err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, meetingID int) ([]Entry, error) {
	rows, err := s.db.GetRoster(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	roles, err := s.db.GetRosterRoles(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			RosterEntryWithContact: row,
			RoleIDs:                roles[row.RosterEntry.ID],
		})
	}
	return entries, nil
}

// Add puts a contact on the roster by hand. ticket overrides the derived ticket when set.
func (s *Service) Add(ctx context.Context, meetingID int, contactID int, ticket database.Ticket) (*database.RosterEntry, error) {
	if ticket != "" && !slices.Contains(database.Tickets, ticket) {
		return nil, apperr.Validation("unknown ticket %q", ticket)
	}

	var entry *database.RosterEntry
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		contact, err := q.GetContact(ctx, contactID)
		if err != nil {
			return apperr.NotFoundOr(err, "contact %d not found", contactID)
		}

		if existing, err := q.GetRosterEntry(ctx, meetingID, contactID); err == nil && existing.Ticket != database.TicketCancelled {
			return apperr.Conflict("%s is already on the roster", contact.Name)
		}

		officer := ticket == database.TicketOfficer
		entry, err = EnsureEntry(ctx, q, meetingID, *contact, officer)
		if err != nil {
			return err
		}

		if ticket != "" && ticket != entry.Ticket {
			entry.Ticket = ticket
			return q.UpdateRosterTicket(ctx, entry.ID, ticket)
		}
		return nil
	})
	return entry, err
}

// Remove cancels an entry, or deletes it with hard.
func (s *Service) Remove(ctx context.Context, meetingID int, rosterID int, hard bool) error {
	return s.db.Tx(ctx, func(q *database.Queries) error {
		entry, err := q.GetRosterEntryByID(ctx, rosterID)
		if err != nil {
			return apperr.NotFoundOr(err, "roster entry %d not found", rosterID)
		}
		if entry.MeetingID != meetingID {
			return apperr.NotFound("roster entry %d not found", rosterID)
		}

		if hard {
			return q.DeleteRosterEntry(ctx, rosterID)
		}
		return q.UpdateRosterTicket(ctx, rosterID, database.TicketCancelled)
	})
}

// LuckyDraw picks up to count distinct winners from the active roster.
func (s *Service) LuckyDraw(ctx context.Context, meetingID int, count int, excludeOfficers bool) ([]database.RosterEntryWithContact, error) {
	if count <= 0 {
		return nil, apperr.Validation("count must be a positive number")
	}

	entries, err := s.db.GetRoster(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	candidates := slices.DeleteFunc(entries, func(entry database.RosterEntryWithContact) bool {
		if entry.Ticket == database.TicketCancelled {
			return true
		}
		return excludeOfficers && entry.Ticket == database.TicketOfficer
	})

	winners := make([]database.RosterEntryWithContact, 0, min(count, len(candidates)))
	for len(candidates) > 0 && len(winners) < count {
		num := rand.N(len(candidates))
		winners = append(winners, candidates[num])
		candidates = slices.Delete(candidates, num, num+1)
	}

	slog.InfoContext(ctx, "Drew lucky draw winners", slog.Int("meeting_id", meetingID), slog.Int("winners", len(winners)))
	return winners, nil
}
