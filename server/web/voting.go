package web

import (
	"log/slog"
	"net/http"

	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/voting"
)

func (h *handler) GetVoting(w http.ResponseWriter, r *http.Request) {
	number, err := queryInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	view, err := h.Voting.View(ctx, auth.GetPrincipal(ctx), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"voting": view})
}

type voteRequest struct {
	MeetingNumber int                    `json:"meeting_number" validate:"required,gt=0"`
	Category      database.AwardCategory `json:"award_category" validate:"required"`
	ContactID     int                    `json:"contact_id" validate:"required,gt=0"`
}

func (h *handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	action, err := h.Voting.Vote(ctx, auth.GetPrincipal(ctx), voting.VoteRequest{
		MeetingNumber: req.MeetingNumber,
		Category:      req.Category,
		ContactID:     req.ContactID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"action": action})
}

type batchVoteRequest struct {
	MeetingNumber int                             `json:"meeting_number" validate:"required,gt=0"`
	Awards        map[database.AwardCategory]*int `json:"awards"`
	Answers       []voting.Answer                 `json:"answers"`
}

func (h *handler) BatchVote(w http.ResponseWriter, r *http.Request) {
	var req batchVoteRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.Voting.BatchVote(ctx, auth.GetPrincipal(ctx), voting.BatchRequest{
		MeetingNumber: req.MeetingNumber,
		Awards:        req.Awards,
		Answers:       req.Answers,
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, nil)
}

func (h *handler) VotingQRCode(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err = h.Meeting.Get(ctx, auth.GetPrincipal(ctx), number); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err = voting.WriteQRCode(w, h.cfg.PublicURL, number); err != nil {
		slog.ErrorContext(ctx, "Failed to write voting qr code", slog.Int("meeting_number", number), slog.Any("err", err))
	}
}
