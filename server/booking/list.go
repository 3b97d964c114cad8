package booking

import (
	"context"
	"slices"

	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/database"
)

type Person struct {
	ContactID   int    `json:"contact_id"`
	Name        string `json:"name"`
	Credentials string `json:"credentials,omitempty"`
}

type RoleInfo struct {
	ID             int                    `json:"id"`
	Name           string                 `json:"name"`
	Type           database.RoleType      `json:"type"`
	Icon           string                 `json:"icon"`
	AwardCategory  database.AwardCategory `json:"award_category"`
	NeedsApproval  bool                   `json:"needs_approval"`
	HasSingleOwner bool                   `json:"has_single_owner"`
	IsMemberOnly   bool                   `json:"is_member_only"`
}

// Entry is one line of the booking page: a single-owner session or a whole shared role.
type Entry struct {
	SessionID  int      `json:"session_id"`
	SessionIDs []int    `json:"session_ids"`
	Title      string   `json:"title"`
	Role       RoleInfo `json:"role"`
	Slots      int      `json:"slots"`
	Owners     []Person `json:"owners"`
	Waitlist   []Person `json:"waitlist"`
}

// List returns the consolidated role list of a meeting. The result is cached until the next booking change.
func (s *Service) List(ctx context.Context, meeting database.Meeting) ([]Entry, error) {
	return cache.Load(s.cache, cache.MeetingRolesKey(meeting.ClubID, meeting.ID), func() ([]Entry, error) {
		return consolidate(ctx, s.db.Queries, meeting.ID, meeting.ClubID)
	})
}

func consolidate(ctx context.Context, q *database.Queries, meetingID int, clubID int) ([]Entry, error) {
	logs, err := q.GetSessionLogs(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	owners, err := q.GetOwnersByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	waitlists, err := q.GetMeetingWaitlists(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	roles, err := q.GetRoles(ctx, clubID)
	if err != nil {
		return nil, err
	}

	rolesByID := make(map[int]database.Role, len(roles))
	for _, role := range roles {
		rolesByID[role.ID] = role
	}

	var entries []Entry
	sharedIndex := make(map[int]int)
	for _, log := range logs {
		if log.RoleID == nil {
			continue
		}
		role, ok := rolesByID[*log.RoleID]
		if !ok {
			continue
		}

		if !role.HasSingleOwner {
			if i, ok := sharedIndex[role.ID]; ok {
				entries[i].SessionIDs = append(entries[i].SessionIDs, log.SessionLog.ID)
				entries[i].Slots++
				continue
			}
			sharedIndex[role.ID] = len(entries)
		}

		entries = append(entries, Entry{
			SessionID:  log.SessionLog.ID,
			SessionIDs: []int{log.SessionLog.ID},
			Title:      log.SessionLog.Title,
			Role:       newRoleInfo(role),
			Slots:      1,
		})
	}

	for i, entry := range entries {
		for _, owner := range owners {
			if owner.RoleID != entry.Role.ID {
				continue
			}
			if entry.Role.HasSingleOwner && (owner.SessionLogID == nil || *owner.SessionLogID != entry.SessionID) {
				continue
			}
			entries[i].Owners = append(entries[i].Owners, Person{
				ContactID:   owner.OwnerMeetingRole.ContactID,
				Name:        owner.Name,
				Credentials: owner.Credential,
			})
		}

		for _, waitlist := range waitlists {
			if !slices.Contains(entry.SessionIDs, waitlist.SessionLogID) {
				continue
			}
			if slices.ContainsFunc(entries[i].Waitlist, func(p Person) bool {
				return p.ContactID == waitlist.Waitlist.ContactID
			}) {
				continue
			}
			entries[i].Waitlist = append(entries[i].Waitlist, Person{
				ContactID: waitlist.Waitlist.ContactID,
				Name:      waitlist.Name,
			})
		}
	}
	return entries, nil
}

func newRoleInfo(role database.Role) RoleInfo {
	return RoleInfo{
		ID:             role.ID,
		Name:           role.Name,
		Type:           role.Type,
		Icon:           role.Icon,
		AwardCategory:  role.AwardCategory,
		NeedsApproval:  role.NeedsApproval,
		HasSingleOwner: role.HasSingleOwner,
		IsMemberOnly:   role.IsMemberOnly,
	}
}

// RoleTakers maps every owner of a meeting to the ids of the roles they hold. The result is cached.
func (s *Service) RoleTakers(ctx context.Context, meeting database.Meeting) (map[int][]int, error) {
	return cache.Load(s.cache, cache.RoleTakersKey(meeting.ClubID, meeting.ID), func() (map[int][]int, error) {
		owners, err := s.db.GetOwnersByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, err
		}

		takers := make(map[int][]int)
		for _, owner := range owners {
			contactID := owner.OwnerMeetingRole.ContactID
			if !slices.Contains(takers[contactID], owner.RoleID) {
				takers[contactID] = append(takers[contactID], owner.RoleID)
			}
		}
		return takers, nil
	})
}
