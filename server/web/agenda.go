package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/topi314/clubagenda/internal/omit"
	"github.com/topi314/clubagenda/server/agenda"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/meeting"
)

func (h *handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meetings, err := h.Meeting.List(ctx, auth.GetPrincipal(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]meetingView, 0, len(meetings))
	for _, m := range meetings {
		views = append(views, newMeetingView(m))
	}
	ok(w, map[string]any{"meetings": views})
}

func (h *handler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	number, err := queryInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	projection, err := h.Export.Load(ctx, auth.GetPrincipal(ctx), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"agenda": projection})
}

type createAgendaRequest struct {
	MeetingNumber        int             `json:"meeting_number" validate:"required,gt=0"`
	MeetingType          string          `json:"meeting_type" validate:"required"`
	MeetingDate          string          `json:"meeting_date" validate:"required,date"`
	StartTime            string          `json:"start_time" validate:"required,clock"`
	GEMode               database.GEMode `json:"ge_mode" validate:"oneof=0 1"`
	MeetingTitle         string          `json:"meeting_title" validate:"max=200"`
	Subtitle             string          `json:"subtitle" validate:"max=200"`
	WOD                  string          `json:"wod" validate:"max=100"`
	MediaURL             string          `json:"media_url" validate:"omitempty,url"`
	IgnoreSuspiciousDate bool            `json:"ignore_suspicious_date"`
}

func (h *handler) CreateAgenda(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	if !principal.IsAdmin() {
		h.fail(w, r, forbiddenOrLogin(principal, "only admins can create meetings"))
		return
	}

	var req createAgendaRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	m, err := h.Agenda.Create(ctx, principal.ClubID, agenda.CreateParams{
		Number:               req.MeetingNumber,
		Type:                 req.MeetingType,
		Date:                 req.MeetingDate,
		StartTime:            req.StartTime,
		GEMode:               req.GEMode,
		Title:                req.MeetingTitle,
		Subtitle:             req.Subtitle,
		WOD:                  req.WOD,
		MediaURL:             req.MediaURL,
		IgnoreSuspiciousDate: req.IgnoreSuspiciousDate,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ok(w, map[string]any{
		"meeting_number": m.Number,
		"redirect_url":   fmt.Sprintf("/agenda?meeting_number=%d", m.Number),
	})
}

type updateAgendaRow struct {
	ID            *int   `json:"id"`
	SessionTypeID int    `json:"session_type_id" validate:"required,gt=0"`
	Title         string `json:"title" validate:"max=200"`
	ProjectID     *int   `json:"project_id"`
	DurationMin   int    `json:"duration_min" validate:"gte=0"`
	DurationMax   int    `json:"duration_max" validate:"gte=0"`
}

type updateAgendaRequest struct {
	MeetingNumber int                          `json:"meeting_number" validate:"required,gt=0"`
	MeetingDate   omit.Omit[string]            `json:"meeting_date"`
	StartTime     omit.Omit[string]            `json:"start_time"`
	GEMode        omit.Omit[database.GEMode]   `json:"ge_mode"`
	MeetingTitle  omit.Omit[string]            `json:"meeting_title"`
	Subtitle      omit.Omit[string]            `json:"subtitle"`
	WOD           omit.Omit[string]            `json:"wod"`
	MediaURL      omit.Omit[string]            `json:"media_url"`
	ManagerID     omit.Omit[*int]              `json:"manager_id"`
	Rows          omit.Omit[[]updateAgendaRow] `json:"rows"`
}

func (h *handler) UpdateAgenda(w http.ResponseWriter, r *http.Request) {
	var req updateAgendaRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	params := agenda.UpdateParams{
		Number:    req.MeetingNumber,
		Date:      req.MeetingDate,
		StartTime: req.StartTime,
		GEMode:    req.GEMode,
		Title:     req.MeetingTitle,
		Subtitle:  req.Subtitle,
		WOD:       req.WOD,
		MediaURL:  req.MediaURL,
		ManagerID: req.ManagerID,
	}
	if req.Rows.OK {
		rows := make([]agenda.UpdateRow, 0, len(req.Rows.Value))
		for _, row := range req.Rows.Value {
			if err := h.validateStruct(row); err != nil {
				h.fail(w, r, err)
				return
			}
			rows = append(rows, agenda.UpdateRow{
				ID:            row.ID,
				SessionTypeID: row.SessionTypeID,
				Title:         row.Title,
				ProjectID:     row.ProjectID,
				DurationMin:   row.DurationMin,
				DurationMax:   row.DurationMax,
			})
		}
		params.Rows = omit.New(rows)
	}

	ctx := r.Context()
	m, err := h.Agenda.Update(ctx, auth.GetPrincipal(ctx), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"meeting": newMeetingView(*m)})
}

type statusRequest struct {
	Action        meeting.Action `json:"action" validate:"required,oneof=advance reset delete"`
	ConfirmDelete bool           `json:"confirm_delete"`
}

func (h *handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req := statusRequest{Action: meeting.ActionAdvance}
	if r.ContentLength != 0 {
		if err = h.decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	if !principal.IsAuthenticated() {
		h.fail(w, r, forbiddenOrLogin(principal, ""))
		return
	}

	result, err := h.Meeting.Transition(ctx, principal, number, meeting.Request{
		Action:        req.Action,
		ConfirmDelete: req.ConfirmDelete,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	slog.InfoContext(ctx, "Changed meeting status", slog.Int("meeting_number", number), slog.String("status", string(result.Status)))
	ok(w, map[string]any{
		"status":       result.Status,
		"achievements": result.Achievements,
	})
}

func (h *handler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	if _, err = h.Meeting.Get(ctx, principal, number); err != nil {
		h.fail(w, r, err)
		return
	}

	rows, err := h.Agenda.ExportTemplate(ctx, principal.ClubID, number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=meeting_%d_template.csv", number))
	if err = agenda.WriteTemplate(w, rows); err != nil {
		slog.ErrorContext(ctx, "Failed to write template csv", slog.Any("err", err))
	}
}

func (h *handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	if !principal.IsAdmin() {
		h.fail(w, r, forbiddenOrLogin(principal, "only admins can manage templates"))
		return
	}

	templates, err := h.Agenda.Templates(ctx, principal.ClubID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"templates": templates})
}

// UploadTemplate stores the csv request body as the club template of a meeting type.
func (h *handler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	if !principal.IsAdmin() {
		h.fail(w, r, forbiddenOrLogin(principal, "only admins can manage templates"))
		return
	}

	rows, err := h.Agenda.UploadTemplate(ctx, principal.ClubID, r.PathValue("meeting_type"), http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"rows": rows})
}

func forbiddenOrLogin(principal auth.Principal, message string) error {
	if !principal.IsAuthenticated() {
		return apperr.New(apperr.KindUnauthorized, "login required")
	}
	if message == "" {
		message = "not allowed"
	}
	return apperr.Forbidden("%s", message)
}
