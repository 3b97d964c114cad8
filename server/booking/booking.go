// Package booking owns the role slot state of meetings: owners, shared roles, waitlists and approvals.
package booking

import (
	"context"
	"slices"
	"time"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/metrics"
)

type Action string

const (
	ActionBook            Action = "book"
	ActionCancel          Action = "cancel"
	ActionJoinWaitlist    Action = "join_waitlist"
	ActionLeaveWaitlist   Action = "leave_waitlist"
	ActionAssign          Action = "assign"
	ActionRemoveOwner     Action = "remove_owner"
	ActionApproveWaitlist Action = "approve_waitlist"
)

func (a Action) Valid() bool {
	switch a {
	case ActionBook, ActionCancel, ActionJoinWaitlist, ActionLeaveWaitlist, ActionAssign, ActionRemoveOwner, ActionApproveWaitlist:
		return true
	}
	return false
}

// adminOnly reports whether the action needs meeting admin rights regardless of the target contact.
func (a Action) adminOnly() bool {
	return a == ActionAssign || a == ActionRemoveOwner || a == ActionApproveWaitlist
}

type Request struct {
	SessionID         int
	Action            Action
	ContactID         *int
	PreviousContactID *int
}

type Outcome string

const (
	OutcomeBooked     Outcome = "booked"
	OutcomeWaitlisted Outcome = "waitlisted"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeLeft       Outcome = "left_waitlist"
	OutcomeAssigned   Outcome = "assigned"
	OutcomeRemoved    Outcome = "removed"
	OutcomeApproved   Outcome = "approved"
)

type Result struct {
	Outcome   Outcome `json:"outcome"`
	MeetingID int     `json:"meeting_id"`
	Promoted  *int    `json:"promoted_contact_id,omitempty"`
}

func New(cfg Config, db *database.Database, cache *cache.Cache, metrics *metrics.Metrics) *Service {
	return &Service{
		cfg:     cfg,
		db:      db,
		cache:   cache,
		metrics: metrics,
	}
}

type Service struct {
	cfg     Config
	db      *database.Database
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// Do runs one booking action for the principal inside a single transaction.
func (s *Service) Do(ctx context.Context, principal auth.Principal, req Request) (*Result, error) {
	if !req.Action.Valid() {
		return nil, apperr.Validation("unknown action %q", req.Action)
	}
	if !principal.IsAuthenticated() {
		return nil, apperr.New(apperr.KindUnauthorized, "login required")
	}

	var result *Result
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		sl, err := loadSlot(ctx, q, req.SessionID)
		if err != nil {
			return err
		}
		if sl.meeting.ClubID != principal.ClubID {
			return apperr.NotFound("session %d not found", req.SessionID)
		}

		admin := principal.CanManage(sl.meeting)
		if req.Action.adminOnly() && !admin {
			return apperr.Forbidden("only meeting admins can %s", req.Action)
		}

		contactID := principal.ContactID
		if req.ContactID != nil {
			contactID = req.ContactID
		}
		if contactID == nil {
			if req.Action != ActionApproveWaitlist {
				return apperr.Validation("contact_id is required")
			}
		} else if !admin && (principal.ContactID == nil || *contactID != *principal.ContactID) {
			return apperr.Forbidden("you can only book for yourself")
		}

		if err = checkOpen(sl.meeting, admin); err != nil {
			return err
		}

		switch req.Action {
		case ActionBook:
			result, err = s.book(ctx, q, sl, *contactID, admin)
		case ActionCancel:
			result, err = s.cancel(ctx, q, sl, *contactID)
		case ActionJoinWaitlist:
			result, err = s.joinWaitlist(ctx, q, sl, *contactID)
		case ActionLeaveWaitlist:
			result, err = s.leaveWaitlist(ctx, q, sl, *contactID)
		case ActionAssign:
			result, err = s.assign(ctx, q, sl, *contactID, req.PreviousContactID)
		case ActionRemoveOwner:
			result, err = s.removeOwner(ctx, q, sl, *contactID)
		case ActionApproveWaitlist:
			result, err = s.approveWaitlist(ctx, q, sl)
		}
		if result != nil {
			result.MeetingID = sl.meeting.ID
		}
		return err
	})
	s.metrics.Booking(string(req.Action), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkOpen rejects bookings on meetings that are not open for the caller.
func checkOpen(meeting database.Meeting, admin bool) error {
	switch meeting.Status {
	case database.MeetingStatusFinished:
		return apperr.PreconditionFailed("meeting %d is finished", meeting.Number).With("status", meeting.Status)
	case database.MeetingStatusUnpublished, database.MeetingStatusRunning:
		if !admin {
			return apperr.PreconditionFailed("booking is closed for meeting %d", meeting.Number).With("status", meeting.Status)
		}
	}
	return nil
}

func (s *Service) book(ctx context.Context, q *database.Queries, sl *slot, contactID int, admin bool) (*Result, error) {
	if !admin && (sl.role.Type == database.RoleTypeOfficer || sl.role.AwardCategory == database.AwardCategoryNone) {
		return nil, apperr.Forbidden("%s can only be assigned by an officer", sl.role.Name)
	}
	if err := checkNotBooked(ctx, q, sl, contactID); err != nil {
		return nil, err
	}
	if sl.role.IsMemberOnly {
		contact, err := q.GetContact(ctx, contactID)
		if err != nil {
			return nil, apperr.NotFoundOr(err, "contact %d not found", contactID)
		}
		if contact.Type == database.ContactTypeGuest {
			return nil, apperr.Forbidden("%s is reserved for members", sl.role.Name)
		}
	}

	if sl.role.NeedsApproval || len(sl.owners) >= sl.capacity() {
		return s.joinWaitlist(ctx, q, sl, contactID)
	}

	if err := s.setOwners(ctx, q, sl, append(sl.ownerIDs(), contactID)); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeBooked}, nil
}

func (s *Service) cancel(ctx context.Context, q *database.Queries, sl *slot, contactID int) (*Result, error) {
	removed, err := q.DeleteContactWaitlists(ctx, sl.groupIDs(), contactID)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		s.invalidate(q, sl.meeting)
		return &Result{Outcome: OutcomeLeft}, nil
	}

	ownerIDs := sl.ownerIDs()
	position := slices.Index(ownerIDs, contactID)
	if position < 0 {
		return nil, apperr.NotFound("contact is neither booked nor waitlisted for this session")
	}

	newIDs := slices.Delete(slices.Clone(ownerIDs), position, position+1)
	result := &Result{Outcome: OutcomeCancelled}
	if !sl.role.NeedsApproval {
		waitlist, err := sl.waitlist(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(waitlist) > 0 {
			promoted := waitlist[0].Waitlist.ContactID
			newIDs = slices.Insert(newIDs, position, promoted)
			result.Promoted = &promoted
			s.metrics.WaitlistPromotion()
		}
	}

	if err = s.setOwners(ctx, q, sl, newIDs); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) joinWaitlist(ctx context.Context, q *database.Queries, sl *slot, contactID int) (*Result, error) {
	if sl.isOwner(contactID) {
		return nil, apperr.Conflict("contact is already booked as %s in this meeting", sl.role.Name)
	}
	if err := checkNotBooked(ctx, q, sl, contactID); err != nil {
		return nil, err
	}

	waitlist, err := sl.waitlist(ctx, q)
	if err != nil {
		return nil, err
	}

	for _, entry := range waitlist {
		if entry.Waitlist.ContactID == contactID {
			return nil, apperr.Conflict("contact is already on the waitlist")
		}
	}

	contacts, err := sl.waitlistContacts(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(contacts) >= s.cfg.WaitlistCapacity {
		return nil, apperr.CapacityExceeded("waitlist is full")
	}

	if err = q.InsertWaitlist(ctx, sl.log.SessionLog.ID, contactID, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.invalidate(q, sl.meeting)
	return &Result{Outcome: OutcomeWaitlisted}, nil
}

func (s *Service) leaveWaitlist(ctx context.Context, q *database.Queries, sl *slot, contactID int) (*Result, error) {
	removed, err := q.DeleteContactWaitlists(ctx, sl.groupIDs(), contactID)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, apperr.NotFound("contact is not on the waitlist")
	}
	s.invalidate(q, sl.meeting)
	return &Result{Outcome: OutcomeLeft}, nil
}

// assign sets the owner of a single-owner slot, or adds to a shared one. With previousContactID the named shared
// owner is replaced in place.
func (s *Service) assign(ctx context.Context, q *database.Queries, sl *slot, contactID int, previousContactID *int) (*Result, error) {
	if !sl.shared() {
		if err := s.setOwners(ctx, q, sl, []int{contactID}); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeAssigned}, nil
	}

	ownerIDs := slices.Clone(sl.ownerIDs())
	if previousContactID != nil {
		i := slices.Index(ownerIDs, *previousContactID)
		if i < 0 {
			return nil, apperr.NotFound("contact %d is not an owner of %s", *previousContactID, sl.role.Name)
		}
		ownerIDs[i] = contactID
	} else if !slices.Contains(ownerIDs, contactID) {
		ownerIDs = append(ownerIDs, contactID)
	}

	if err := s.setOwners(ctx, q, sl, ownerIDs); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeAssigned}, nil
}

func (s *Service) removeOwner(ctx context.Context, q *database.Queries, sl *slot, contactID int) (*Result, error) {
	ownerIDs := sl.ownerIDs()
	i := slices.Index(ownerIDs, contactID)
	if i < 0 {
		return nil, apperr.NotFound("contact %d is not an owner of %s", contactID, sl.role.Name)
	}

	if err := s.setOwners(ctx, q, sl, slices.Delete(slices.Clone(ownerIDs), i, i+1)); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeRemoved}, nil
}

// approveWaitlist moves the oldest waitlisted contact into the slot. A single-owner slot is replaced, a shared one
// is appended to.
func (s *Service) approveWaitlist(ctx context.Context, q *database.Queries, sl *slot) (*Result, error) {
	waitlist, err := sl.waitlist(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(waitlist) == 0 {
		return nil, apperr.NotFound("waitlist is empty")
	}

	contactID := waitlist[0].Waitlist.ContactID
	ownerIDs := []int{contactID}
	if sl.shared() {
		ownerIDs = append(slices.Clone(sl.ownerIDs()), contactID)
	}

	if err = s.setOwners(ctx, q, sl, ownerIDs); err != nil {
		return nil, err
	}
	return &Result{
		Outcome:  OutcomeApproved,
		Promoted: &contactID,
	}, nil
}

// SetOwners replaces the owner list of a session log. It is used by the agenda builder inside its transaction.
func (s *Service) SetOwners(ctx context.Context, q *database.Queries, sessionLogID int, contactIDs []int) error {
	sl, err := loadSlot(ctx, q, sessionLogID)
	if err != nil {
		return err
	}
	return s.setOwners(ctx, q, sl, contactIDs)
}

func (s *Service) invalidate(q *database.Queries, meeting database.Meeting) {
	q.OnCommit(func() {
		s.cache.InvalidateMeeting(meeting.ClubID, meeting.ID)
	})
}
