package web

import (
	"log/slog"
	"net/http"

	"github.com/topi314/clubagenda/server/auth"
)

// session resolves the principal of every request. Browsers without a valid session get an anonymous one so they carry a voter token.
func (h *handler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, err := h.Sessions.Load(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if session == nil {
			if session, err = h.Sessions.Issue(ctx, nil, nil); err != nil {
				h.fail(w, r, err)
				return
			}
			http.SetCookie(w, h.Sessions.Cookie(*session))
		}

		principal, err := h.Sessions.Principal(ctx, *session)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetPrincipal(ctx, principal)))
	})
}

func (h *handler) SwitchClub(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClubID int `json:"club_id" validate:"required,gt=0"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.Sessions.SwitchClub(ctx, auth.GetPrincipal(ctx), req.ClubID); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"club_id": req.ClubID})
}

func (h *handler) SetHomeClub(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClubID int `json:"club_id" validate:"required,gt=0"`
	}
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.Sessions.SetHomeClub(ctx, auth.GetPrincipal(ctx), req.ClubID); err != nil {
		h.fail(w, r, err)
		return
	}
	slog.InfoContext(ctx, "Changed home club", slog.Int("club_id", req.ClubID))
	ok(w, map[string]any{"club_id": req.ClubID})
}

func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Sessions.Logout(ctx, auth.GetPrincipal(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, nil)
}
