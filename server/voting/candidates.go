package voting

import (
	"context"
	"slices"

	"github.com/topi314/clubagenda/server/database"
)

type Candidate struct {
	ContactID   int    `json:"contact_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Title       string `json:"title"`
	ProjectCode string `json:"project_code,omitempty"`
}

// Candidates lists the owners eligible for each award category. Owners of roles that require a project only
// qualify once their row has one.
func (s *Service) Candidates(ctx context.Context, q *database.Queries, meeting database.Meeting) (map[database.AwardCategory][]Candidate, error) {
	logs, err := q.GetSessionLogs(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	owners, err := q.GetOwnersByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	roles, err := q.GetRoles(ctx, meeting.ClubID)
	if err != nil {
		return nil, err
	}
	return candidates(logs, owners, roles, s.cfg.ProjectRequiredRoles), nil
}

func candidates(logs []database.SessionLogWithType, owners []database.OwnerWithContact, roles []database.Role, projectRequired []string) map[database.AwardCategory][]Candidate {
	roleByID := make(map[int]database.Role, len(roles))
	for _, role := range roles {
		roleByID[role.ID] = role
	}

	roleLogs := make(map[int][]database.SessionLogWithType)
	for _, log := range logs {
		if log.RoleID != nil {
			roleLogs[*log.RoleID] = append(roleLogs[*log.RoleID], log)
		}
	}

	result := make(map[database.AwardCategory][]Candidate)
	for _, owner := range owners {
		role, ok := roleByID[owner.RoleID]
		if !ok || !role.AwardCategory.Valid() {
			continue
		}

		log, ok := ownerLog(roleLogs[role.ID], owner)
		if !ok {
			continue
		}
		if slices.Contains(projectRequired, role.Name) && log.ProjectID == nil {
			continue
		}

		contactID := owner.OwnerMeetingRole.ContactID
		if slices.ContainsFunc(result[role.AwardCategory], func(c Candidate) bool {
			return c.ContactID == contactID
		}) {
			continue
		}
		result[role.AwardCategory] = append(result[role.AwardCategory], Candidate{
			ContactID:   contactID,
			Name:        owner.Contact.Name,
			Role:        role.Name,
			Title:       log.SessionLog.Title,
			ProjectCode: log.ProjectCode,
		})
	}
	return result
}

// ownerLog finds the row an owner holds: the bound row for single owners, the row at the owner's position otherwise.
func ownerLog(logs []database.SessionLogWithType, owner database.OwnerWithContact) (database.SessionLogWithType, bool) {
	if owner.SessionLogID != nil {
		for _, log := range logs {
			if log.SessionLog.ID == *owner.SessionLogID {
				return log, true
			}
		}
		return database.SessionLogWithType{}, false
	}
	if owner.Position < 0 || owner.Position >= len(logs) {
		return database.SessionLogWithType{}, false
	}
	return logs[owner.Position], true
}
