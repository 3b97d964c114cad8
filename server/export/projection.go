// Package export projects a meeting into a flat read model and writes it to CSV archives and spreadsheets.
package export

import (
	"fmt"
	"slices"

	"github.com/topi314/clubagenda/server/database"
)

type Header struct {
	Number    int                    `json:"number"`
	Date      string                 `json:"date"`
	StartTime string                 `json:"start_time"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Subtitle  string                 `json:"subtitle"`
	WOD       string                 `json:"wod"`
	Manager   string                 `json:"manager"`
	Status    database.MeetingStatus `json:"status"`
	GEMode    database.GEMode        `json:"ge_mode"`
	Attendees int                    `json:"attendees"`
}

type Row struct {
	SessionID   int     `json:"session_id"`
	Seq         int     `json:"seq"`
	StartTime   *string `json:"start_time"`
	Title       string  `json:"title"`
	Role        string  `json:"role,omitempty"`
	Owner       string  `json:"owner"`
	DurationMin int     `json:"duration_min"`
	DurationMax int     `json:"duration_max"`
	ProjectCode string  `json:"project_code,omitempty"`
	Pathway     string  `json:"pathway,omitempty"`
	IsSection   bool    `json:"is_section"`
}

type Speech struct {
	Speaker     string `json:"speaker"`
	Title       string `json:"title"`
	ProjectCode string `json:"project_code"`
	Duration    string `json:"duration"`
}

type RoleOwners struct {
	Role   string   `json:"role"`
	Owners []string `json:"owners"`
}

type RoleGroup struct {
	Category database.AwardCategory `json:"category"`
	Roles    []RoleOwners           `json:"roles"`
}

type Projection struct {
	Header              Header                            `json:"header"`
	Rows                []Row                             `json:"rows"`
	Speeches            []Speech                          `json:"speeches"`
	Roles               []RoleGroup                       `json:"roles"`
	Media               []string                          `json:"media"`
	Awards              map[database.AwardCategory]string `json:"awards,omitempty"`
	RecommendationScore *float64                          `json:"recommendation_score,omitempty"`
}

// Input is everything a projection reads. Contacts must hold the manager, the award winners and the ballot picks.
type Input struct {
	Meeting  database.Meeting
	Ballot   map[database.AwardCategory]int
	Logs     []database.SessionLogWithType
	Owners   []database.OwnerWithContact
	Roles    []database.Role
	Roster   []database.RosterEntryWithContact
	Contacts map[int]database.Contact
}

var categoryOrder = []database.AwardCategory{
	database.AwardCategorySpeaker,
	database.AwardCategoryEvaluator,
	database.AwardCategoryTableTopic,
	database.AwardCategoryRoleTaker,
	database.AwardCategoryNone,
}

// Project builds the read model of a meeting. Hidden rows are left out.
// Awards hold the winners of finished meetings and the viewer's own picks before that.
func Project(in Input) Projection {
	meeting := in.Meeting
	p := Projection{
		Header: Header{
			Number:    meeting.Number,
			Date:      meeting.Date,
			StartTime: meeting.StartTime,
			Type:      meeting.Type,
			Title:     meeting.Title,
			Subtitle:  meeting.Subtitle,
			WOD:       meeting.WOD,
			Status:    meeting.Status,
			GEMode:    meeting.GEMode,
		},
		Rows:     []Row{},
		Speeches: []Speech{},
		Roles:    []RoleGroup{},
		Media:    []string{},
	}
	if meeting.ManagerID != nil {
		p.Header.Manager = in.Contacts[*meeting.ManagerID].Name
	}
	for _, entry := range in.Roster {
		if entry.Ticket != database.TicketCancelled {
			p.Header.Attendees++
		}
	}
	if meeting.MediaURL != "" {
		p.Media = append(p.Media, meeting.MediaURL)
	}

	roles := make(map[int]database.Role, len(in.Roles))
	for _, role := range in.Roles {
		roles[role.ID] = role
	}

	seen := make(map[int]int)
	for _, log := range in.Logs {
		if log.IsHidden {
			continue
		}
		row := Row{
			SessionID:   log.SessionLog.ID,
			Seq:         log.Seq,
			StartTime:   log.StartTime,
			Title:       log.SessionLog.Title,
			DurationMin: log.SessionLog.DurationMin,
			DurationMax: log.SessionLog.DurationMax,
			ProjectCode: log.ProjectCode,
			Pathway:     log.Pathway,
			IsSection:   log.IsSection,
		}

		if log.RoleID != nil {
			role := roles[*log.RoleID]
			row.Role = role.Name

			k := seen[role.ID]
			seen[role.ID] = k + 1
			if owner, ok := rowOwner(in.Owners, log, role, k); ok {
				row.Owner = displayName(owner)
				if role.AwardCategory == database.AwardCategorySpeaker {
					p.Speeches = append(p.Speeches, Speech{
						Speaker:     owner.Contact.Name,
						Title:       log.SessionLog.Title,
						ProjectCode: log.ProjectCode,
						Duration:    fmt.Sprintf("%d-%d", log.SessionLog.DurationMin, log.SessionLog.DurationMax),
					})
				}
			}
		}
		p.Rows = append(p.Rows, row)
	}

	p.Roles = roleGroups(in.Owners, roles)

	if meeting.Status == database.MeetingStatusFinished {
		p.Awards = make(map[database.AwardCategory]string)
		for _, category := range database.AwardCategories {
			if contactID := meeting.BestOf(category); contactID != nil {
				p.Awards[category] = in.Contacts[*contactID].Name
			}
		}
		p.RecommendationScore = meeting.RecommendationScore
	} else if len(in.Ballot) > 0 {
		p.Awards = make(map[database.AwardCategory]string, len(in.Ballot))
		for category, contactID := range in.Ballot {
			p.Awards[category] = in.Contacts[contactID].Name
		}
	}
	return p
}

// rowOwner returns the owner shown on a row: the bound owner of single owner roles, the k-th owner of shared ones.
func rowOwner(owners []database.OwnerWithContact, log database.SessionLogWithType, role database.Role, k int) (database.OwnerWithContact, bool) {
	for _, owner := range owners {
		if owner.RoleID != role.ID {
			continue
		}
		if role.HasSingleOwner {
			if owner.SessionLogID != nil && *owner.SessionLogID == log.SessionLog.ID {
				return owner, true
			}
			continue
		}
		if owner.Position == k {
			return owner, true
		}
	}
	return database.OwnerWithContact{}, false
}

func displayName(owner database.OwnerWithContact) string {
	if owner.Credential == "" {
		return owner.Contact.Name
	}
	return owner.Contact.Name + " (" + owner.Credential + ")"
}

func roleGroups(owners []database.OwnerWithContact, roles map[int]database.Role) []RoleGroup {
	groups := make([]RoleGroup, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		var group RoleGroup
		group.Category = category
		for _, owner := range owners {
			role, ok := roles[owner.RoleID]
			if !ok || role.AwardCategory != category {
				continue
			}
			i := slices.IndexFunc(group.Roles, func(r RoleOwners) bool {
				return r.Role == role.Name
			})
			if i < 0 {
				group.Roles = append(group.Roles, RoleOwners{Role: role.Name})
				i = len(group.Roles) - 1
			}
			group.Roles[i].Owners = append(group.Roles[i].Owners, displayName(owner))
		}
		if len(group.Roles) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}
