package web

import (
	"net/http"
	"time"

	"github.com/topi314/clubagenda/internal/xquery"
	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/auth"
)

const topRoleTakers = 10

type quarterView struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

func (h *handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	if !principal.IsMember() {
		h.fail(w, r, forbiddenOrLogin(principal, "only members can view club statistics"))
		return
	}

	now := time.Now()
	quarter := xtime.ParseQuarter(xquery.ParseString(r.URL.Query(), "quarter", ""), now)
	from := xtime.FormatDate(quarter.Start())
	to := xtime.FormatDate(quarter.End())

	stats, err := h.DB.GetClubStats(ctx, principal.ClubID, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	top, err := h.DB.GetTopRoleTakers(ctx, principal.ClubID, from, to, topRoleTakers)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	roleTakers := make([]map[string]any, 0, len(top))
	for _, rc := range top {
		roleTakers = append(roleTakers, map[string]any{
			"contact_id": rc.ContactID,
			"name":       rc.Name,
			"count":      rc.Count,
		})
	}

	quarters := make([]quarterView, 0, 4)
	for _, q := range xtime.QuarterOf(now).Previous(4) {
		quarters = append(quarters, quarterView{Value: q.Value(), Name: q.Name()})
	}

	ok(w, map[string]any{
		"quarter":         quarterView{Value: quarter.Value(), Name: quarter.Name()},
		"quarters":        quarters,
		"from":            from,
		"to":              to,
		"meetings":        stats.Meetings,
		"filled_roles":    stats.FilledRoles,
		"attendees":       stats.Attendees,
		"top_role_takers": roleTakers,
	})
}
