package booking

import (
	"context"
	"slices"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/database"
)

// slot is a session log together with everything an action on it needs.
type slot struct {
	meeting database.Meeting
	log     database.SessionLogWithType
	role    database.Role

	// roleLogs are all rows of the role in the meeting, ordered by seq.
	roleLogs []database.SessionLogWithType
	owners   []database.OwnerWithContact

	// roleOwners are the owners of every row of the role, equal to owners for shared roles.
	roleOwners []database.OwnerWithContact
}

func loadSlot(ctx context.Context, q *database.Queries, sessionLogID int) (*slot, error) {
	log, err := q.GetSessionLog(ctx, sessionLogID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "session %d not found", sessionLogID)
	}
	if log.RoleID == nil {
		return nil, apperr.Validation("session %q has no role", log.SessionLog.Title)
	}

	meeting, err := q.GetMeeting(ctx, log.MeetingID)
	if err != nil {
		return nil, err
	}
	role, err := q.GetRole(ctx, *log.RoleID)
	if err != nil {
		return nil, err
	}
	roleLogs, err := q.GetSessionLogsByRole(ctx, meeting.ID, role.ID)
	if err != nil {
		return nil, err
	}

	s := &slot{
		meeting:  *meeting,
		log:      *log,
		role:     *role,
		roleLogs: roleLogs,
	}
	if err = s.loadOwners(ctx, q); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *slot) loadOwners(ctx context.Context, q *database.Queries) error {
	owners, err := q.GetRoleOwners(ctx, s.meeting.ID, s.role.ID)
	if err != nil {
		return err
	}

	s.roleOwners = owners
	if s.shared() {
		s.owners = owners
		return nil
	}

	s.owners = nil
	for _, owner := range owners {
		if owner.SessionLogID != nil && *owner.SessionLogID == s.log.SessionLog.ID {
			s.owners = append(s.owners, owner)
		}
	}
	return nil
}

func (s *slot) shared() bool {
	return !s.role.HasSingleOwner
}

// capacity is the number of owners the slot holds.
func (s *slot) capacity() int {
	if s.shared() {
		return len(s.roleLogs)
	}
	return 1
}

// groupIDs are the session logs sharing an owner list and a waitlist order with this one.
// Waitlist capacity always spans every row of the role, see waitlistContacts.
func (s *slot) groupIDs() []int {
	if !s.shared() {
		return []int{s.log.SessionLog.ID}
	}
	return s.roleLogIDs()
}

func (s *slot) roleLogIDs() []int {
	ids := make([]int, 0, len(s.roleLogs))
	for _, log := range s.roleLogs {
		ids = append(ids, log.SessionLog.ID)
	}
	return ids
}

func (s *slot) ownerIDs() []int {
	ids := make([]int, 0, len(s.owners))
	for _, owner := range s.owners {
		ids = append(ids, owner.OwnerMeetingRole.ContactID)
	}
	return ids
}

func (s *slot) isOwner(contactID int) bool {
	return slices.Contains(s.ownerIDs(), contactID)
}

func (s *slot) waitlist(ctx context.Context, q *database.Queries) ([]database.WaitlistWithContact, error) {
	return q.GetWaitlist(ctx, s.groupIDs())
}

// waitlistContacts are the distinct owners and waitlisted contacts of every row of the role.
func (s *slot) waitlistContacts(ctx context.Context, q *database.Queries) ([]int, error) {
	waitlist, err := q.GetWaitlist(ctx, s.roleLogIDs())
	if err != nil {
		return nil, err
	}

	var contacts []int
	for _, owner := range s.roleOwners {
		if !slices.Contains(contacts, owner.OwnerMeetingRole.ContactID) {
			contacts = append(contacts, owner.OwnerMeetingRole.ContactID)
		}
	}
	for _, entry := range waitlist {
		if !slices.Contains(contacts, entry.Waitlist.ContactID) {
			contacts = append(contacts, entry.Waitlist.ContactID)
		}
	}
	return contacts, nil
}
