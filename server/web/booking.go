package web

import (
	"net/http"

	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/booking"
)

func (h *handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	number, err := queryInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	m, err := h.Meeting.Get(ctx, auth.GetPrincipal(ctx), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.Booking.List(ctx, *m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{
		"meeting": newMeetingView(*m),
		"roles":   entries,
	})
}

type bookRequest struct {
	SessionID         int            `json:"session_id" validate:"required,gt=0"`
	Action            booking.Action `json:"action" validate:"required"`
	ContactID         *int           `json:"contact_id"`
	PreviousContactID *int           `json:"previous_contact_id"`
}

func (h *handler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	result, err := h.Booking.Do(ctx, auth.GetPrincipal(ctx), booking.Request{
		SessionID:         req.SessionID,
		Action:            req.Action,
		ContactID:         req.ContactID,
		PreviousContactID: req.PreviousContactID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"result": result})
}
