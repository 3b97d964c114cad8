package web

import (
	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/roster"
)

type meetingView struct {
	Number              int                    `json:"meeting_number"`
	Date                string                 `json:"meeting_date"`
	StartTime           string                 `json:"start_time"`
	Type                string                 `json:"meeting_type"`
	GEMode              database.GEMode        `json:"ge_mode"`
	Title               string                 `json:"meeting_title"`
	Subtitle            string                 `json:"subtitle"`
	WOD                 string                 `json:"wod"`
	Status              database.MeetingStatus `json:"status"`
	ManagerID           *int                   `json:"manager_id"`
	MediaURL            string                 `json:"media_url"`
	RecommendationScore *float64               `json:"recommendation_score,omitempty"`
}

func newMeetingView(m database.Meeting) meetingView {
	return meetingView{
		Number:              m.Number,
		Date:                m.Date,
		StartTime:           m.StartTime,
		Type:                m.Type,
		GEMode:              m.GEMode,
		Title:               m.Title,
		Subtitle:            m.Subtitle,
		WOD:                 m.WOD,
		Status:              m.Status,
		ManagerID:           m.ManagerID,
		MediaURL:            m.MediaURL,
		RecommendationScore: m.RecommendationScore,
	}
}

type contactView struct {
	ID              int                  `json:"id"`
	Name            string               `json:"name"`
	FirstName       string               `json:"first_name"`
	LastName        string               `json:"last_name"`
	Email           string               `json:"email,omitempty"`
	Phone           string               `json:"phone,omitempty"`
	Type            database.ContactType `json:"type"`
	CurrentPathID   *int                 `json:"current_path_id"`
	CompletedPaths  []string             `json:"completed_paths"`
	IsDistinguished bool                 `json:"is_distinguished"`
	MentorID        *int                 `json:"mentor_id"`
	AvatarURL       string               `json:"avatar_url"`
}

// newContactView hides email and phone from viewers that are not admins.
func newContactView(c database.Contact, admin bool) contactView {
	view := contactView{
		ID:              c.ID,
		Name:            c.Name,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Type:            c.Type,
		CurrentPathID:   c.CurrentPathID,
		CompletedPaths:  c.CompletedPaths.V,
		IsDistinguished: c.IsDistinguished,
		MentorID:        c.MentorID,
		AvatarURL:       c.AvatarURL,
	}
	if view.CompletedPaths == nil {
		view.CompletedPaths = []string{}
	}
	if admin {
		view.Email = c.Email
		view.Phone = c.Phone
	}
	return view
}

type rosterView struct {
	ID          int             `json:"id"`
	ContactID   int             `json:"contact_id"`
	Name        string          `json:"name"`
	Ticket      database.Ticket `json:"ticket"`
	OrderNumber int             `json:"order_number"`
	RoleIDs     []int           `json:"role_ids"`
}

type planView struct {
	ID            int                 `json:"id"`
	MeetingNumber int                 `json:"meeting_number"`
	MeetingDate   string              `json:"meeting_date"`
	RoleID        int                 `json:"role_id"`
	ProjectID     *int                `json:"project_id"`
	Status        database.PlanStatus `json:"status"`
}

type achievementView struct {
	ID       int                      `json:"id"`
	Kind     database.AchievementKind `json:"kind"`
	PathName string                   `json:"path_name,omitempty"`
	Level    int                      `json:"level,omitempty"`
	IssuedAt string                   `json:"issued_at"`
}

func newAchievementViews(achievements []database.Achievement) []achievementView {
	views := make([]achievementView, 0, len(achievements))
	for _, a := range achievements {
		views = append(views, achievementView{
			ID:       a.ID,
			Kind:     a.Kind,
			PathName: a.PathName,
			Level:    a.Level,
			IssuedAt: xtime.FormatDate(a.IssuedAt),
		})
	}
	return views
}

func newRosterViews(entries []roster.Entry) []rosterView {
	views := make([]rosterView, 0, len(entries))
	for _, e := range entries {
		roleIDs := e.RoleIDs
		if roleIDs == nil {
			roleIDs = []int{}
		}
		views = append(views, rosterView{
			ID:          e.RosterEntry.ID,
			ContactID:   e.RosterEntry.ContactID,
			Name:        e.Contact.Name,
			Ticket:      e.Ticket,
			OrderNumber: e.OrderNumber,
			RoleIDs:     roleIDs,
		})
	}
	return views
}

func newPlanView(p database.PlanWithMeeting) planView {
	return planView{
		ID:            p.Plan.ID,
		MeetingNumber: p.Number,
		MeetingDate:   p.Date,
		RoleID:        p.RoleID,
		ProjectID:     p.ProjectID,
		Status:        p.Plan.Status,
	}
}
