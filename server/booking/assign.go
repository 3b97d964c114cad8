package booking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/progress"
	"github.com/topi314/clubagenda/server/roster"
)

// setOwners makes the owner list of a slot equal to contactIDs, in order. It purges the new owners from the
// waitlists of the role, keeps the roster and planner in sync and refreshes the row snapshots.
// Setting the current owner list again is a no-op.
func (s *Service) setOwners(ctx context.Context, q *database.Queries, sl *slot, contactIDs []int) error {
	oldIDs := sl.ownerIDs()
	if slices.Equal(oldIDs, contactIDs) {
		return nil
	}

	if len(contactIDs) > sl.capacity() {
		return apperr.CapacityExceeded("%s has only %d slot(s)", sl.role.Name, sl.capacity())
	}
	for i, contactID := range contactIDs {
		if slices.Contains(contactIDs[:i], contactID) {
			return apperr.Validation("contact %d is listed twice", contactID)
		}
	}

	for _, contactID := range contactIDs {
		if slices.Contains(oldIDs, contactID) {
			continue
		}
		if err := checkNotBooked(ctx, q, sl, contactID); err != nil {
			return err
		}
	}

	for _, contactID := range contactIDs {
		if _, err := q.DeleteContactWaitlists(ctx, sl.roleLogIDs(), contactID); err != nil {
			return err
		}
	}

	for _, owner := range sl.owners {
		if slices.Contains(contactIDs, owner.OwnerMeetingRole.ContactID) {
			continue
		}
		if err := q.DeleteOwner(ctx, owner.OwnerMeetingRole.ID); err != nil {
			return err
		}
		if err := roster.SyncRoleAssignment(ctx, q, sl.meeting.ID, owner.OwnerMeetingRole.ContactID, sl.role.ID, roster.OpUnassign); err != nil {
			return err
		}
		if err := q.UpdatePlanStatus(ctx, owner.OwnerMeetingRole.ContactID, sl.meeting.ID, sl.role.ID, database.PlanStatusPlanned); err != nil {
			return err
		}
	}

	var sessionLogID *int
	if !sl.shared() {
		sessionLogID = &sl.log.SessionLog.ID
	}

	contacts := make([]database.Contact, len(contactIDs))
	for i, contactID := range contactIDs {
		contact, err := q.GetContact(ctx, contactID)
		if err != nil {
			return apperr.NotFoundOr(err, "contact %d not found", contactID)
		}
		contacts[i] = *contact

		if slices.Contains(oldIDs, contactID) {
			continue
		}

		if err = convertGuest(ctx, q, sl.meeting.ClubID, contact); err != nil {
			return err
		}
		credentials, _, err := progress.Snapshot(ctx, q, *contact)
		if err != nil {
			return err
		}
		if _, err = q.InsertOwner(ctx, database.OwnerMeetingRole{
			ContactID:    contactID,
			MeetingID:    sl.meeting.ID,
			RoleID:       sl.role.ID,
			SessionLogID: sessionLogID,
			Credential:   credentials,
			Position:     i,
		}); err != nil {
			return fmt.Errorf("failed to assign contact %d: %w", contactID, err)
		}
		if err = roster.SyncRoleAssignment(ctx, q, sl.meeting.ID, contactID, sl.role.ID, roster.OpAssign); err != nil {
			return err
		}
		if err = q.UpdatePlanStatus(ctx, contactID, sl.meeting.ID, sl.role.ID, database.PlanStatusBooked); err != nil {
			return err
		}
	}

	if err := sl.loadOwners(ctx, q); err != nil {
		return err
	}
	for _, owner := range sl.owners {
		position := slices.Index(contactIDs, owner.OwnerMeetingRole.ContactID)
		if position == owner.Position {
			continue
		}
		if err := q.UpdateOwnerPosition(ctx, owner.OwnerMeetingRole.ID, position); err != nil {
			return err
		}
	}

	if err := s.snapshotSlot(ctx, q, sl, contacts); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Updated session owners",
		slog.Int("meeting_id", sl.meeting.ID),
		slog.Int("session_log_id", sl.log.SessionLog.ID),
		slog.Any("old", oldIDs),
		slog.Any("new", contactIDs),
	)
	s.invalidate(q, sl.meeting)
	return nil
}

// checkNotBooked rejects a contact that already holds the role in the meeting.
func checkNotBooked(ctx context.Context, q *database.Queries, sl *slot, contactID int) error {
	roles, err := q.GetContactMeetingRoles(ctx, sl.meeting.ID, contactID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if role.RoleID == sl.role.ID {
			return apperr.Conflict("contact is already booked as %s in this meeting", sl.role.Name)
		}
	}
	return nil
}

// convertGuest turns a guest into a member once a linked user account takes a role.
func convertGuest(ctx context.Context, q *database.Queries, clubID int, contact *database.Contact) error {
	if contact.Type != database.ContactTypeGuest {
		return nil
	}
	linked, err := q.HasLinkedUser(ctx, clubID, contact.ID)
	if err != nil {
		return err
	}
	if !linked {
		return nil
	}
	contact.Type = database.ContactTypeMember
	return q.UpdateContactType(ctx, contact.ID, database.ContactTypeMember)
}

// snapshotSlot freezes owner derived fields onto the rows of a slot. Shared rows take the owner at their index.
func (s *Service) snapshotSlot(ctx context.Context, q *database.Queries, sl *slot, owners []database.Contact) error {
	logs := []database.SessionLogWithType{sl.log}
	if sl.shared() {
		logs = sl.roleLogs
	}

	for i, log := range logs {
		var owner *database.Contact
		if i < len(owners) {
			owner = &owners[i]
		}
		if err := snapshotLog(ctx, q, log, owner); err != nil {
			return err
		}
	}
	return nil
}

func snapshotLog(ctx context.Context, q *database.Queries, log database.SessionLogWithType, owner *database.Contact) error {
	row := log.SessionLog
	row.Status = ""
	if owner == nil {
		if err := q.UpdateSessionLog(ctx, row); err != nil {
			return err
		}
		return q.UpdateSessionLogSnapshot(ctx, row.ID, "", "", "")
	}

	credentials, path, err := progress.Snapshot(ctx, q, *owner)
	if err != nil {
		return err
	}

	var pathway, projectCode string
	if path != nil && log.ValidForProject {
		pathway = path.Name
		if row.ProjectID != nil {
			if projectCode, err = catalog.ProjectCode(ctx, q, path.ID, *row.ProjectID); err != nil {
				return err
			}
		}
	}

	row.Status = database.SessionLogStatusBooked
	if err = q.UpdateSessionLog(ctx, row); err != nil {
		return err
	}
	return q.UpdateSessionLogSnapshot(ctx, row.ID, credentials, projectCode, pathway)
}
