package booking

import (
	"context"
	"slices"

	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/roster"
)

// Reconcile brings the owners of a meeting back in line with its agenda after rows were added, removed or retyped.
// Owners of roles without rows are released, shared owner lists are trimmed to the number of rows and every owned
// row is snapshotted again.
func (s *Service) Reconcile(ctx context.Context, q *database.Queries, meeting database.Meeting) error {
	logs, err := q.GetSessionLogs(ctx, meeting.ID)
	if err != nil {
		return err
	}
	owners, err := q.GetOwnersByMeeting(ctx, meeting.ID)
	if err != nil {
		return err
	}

	roleLogs := make(map[int][]int)
	for _, log := range logs {
		if log.RoleID != nil {
			roleLogs[*log.RoleID] = append(roleLogs[*log.RoleID], log.SessionLog.ID)
		}
	}

	for _, owner := range owners {
		if _, ok := roleLogs[owner.RoleID]; ok {
			continue
		}
		contactID := owner.OwnerMeetingRole.ContactID
		if err = q.DeleteOwner(ctx, owner.OwnerMeetingRole.ID); err != nil {
			return err
		}
		if err = roster.SyncRoleAssignment(ctx, q, meeting.ID, contactID, owner.RoleID, roster.OpUnassign); err != nil {
			return err
		}
		if err = q.UpdatePlanStatus(ctx, contactID, meeting.ID, owner.RoleID, database.PlanStatusPlanned); err != nil {
			return err
		}
	}

	var done []int
	for _, log := range logs {
		if log.RoleID == nil || slices.Contains(done, *log.RoleID) {
			continue
		}

		sl, err := loadSlot(ctx, q, log.SessionLog.ID)
		if err != nil {
			return err
		}
		if sl.shared() {
			done = append(done, sl.role.ID)
			if ids := sl.ownerIDs(); len(ids) > sl.capacity() {
				if err = s.setOwners(ctx, q, sl, ids[:sl.capacity()]); err != nil {
					return err
				}
				continue
			}
		}

		contacts := make([]database.Contact, 0, len(sl.owners))
		for _, owner := range sl.owners {
			contacts = append(contacts, owner.Contact)
		}
		if err = s.snapshotSlot(ctx, q, sl, contacts); err != nil {
			return err
		}
	}

	s.invalidate(q, meeting)
	return nil
}
