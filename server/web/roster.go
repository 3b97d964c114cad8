package web

import (
	"context"
	"net/http"

	"github.com/topi314/clubagenda/internal/xquery"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/roster"
)

// managedMeeting returns the meeting when the principal may manage it.
func (h *handler) managedMeeting(ctx context.Context, number int) (*database.Meeting, error) {
	principal := auth.GetPrincipal(ctx)
	m, err := h.Meeting.Get(ctx, principal, number)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(*m) {
		return nil, forbiddenOrLogin(principal, "only the meeting manager or admins can manage the roster")
	}
	return m, nil
}

func (h *handler) ListRoster(w http.ResponseWriter, r *http.Request) {
	number, err := queryInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	m, err := h.managedMeeting(ctx, number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.Roster.List(ctx, m.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"roster": newRosterViews(entries)})
}

type rosterRequest struct {
	MeetingNumber int             `json:"meeting_number" validate:"required,gt=0"`
	ContactID     int             `json:"contact_id" validate:"required,gt=0"`
	Ticket        database.Ticket `json:"ticket"`
}

func (h *handler) AddRosterEntry(w http.ResponseWriter, r *http.Request) {
	var req rosterRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	m, err := h.managedMeeting(ctx, req.MeetingNumber)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.Roster.Add(ctx, m.ID, req.ContactID, req.Ticket)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{
		"id":           entry.ID,
		"ticket":       entry.Ticket,
		"order_number": entry.OrderNumber,
	})
}

func (h *handler) RemoveRosterEntry(w http.ResponseWriter, r *http.Request) {
	rosterID, err := pathInt(r, "roster_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	number, err := queryInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	m, err := h.managedMeeting(ctx, number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	hard := xquery.ParseBool(r.URL.Query(), "hard", false)
	if err = h.Roster.Remove(ctx, m.ID, rosterID, hard); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, nil)
}

type luckyDrawRequest struct {
	MeetingNumber   int  `json:"meeting_number" validate:"required,gt=0"`
	Count           int  `json:"count" validate:"required,gt=0,lte=50"`
	ExcludeOfficers bool `json:"exclude_officers"`
}

func (h *handler) LuckyDraw(w http.ResponseWriter, r *http.Request) {
	var req luckyDrawRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	m, err := h.managedMeeting(ctx, req.MeetingNumber)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	winners, err := h.Roster.LuckyDraw(ctx, m.ID, req.Count, req.ExcludeOfficers)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries := make([]roster.Entry, 0, len(winners))
	for _, winner := range winners {
		entries = append(entries, roster.Entry{RosterEntryWithContact: winner})
	}
	ok(w, map[string]any{"winners": newRosterViews(entries)})
}
