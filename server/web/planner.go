package web

import (
	"net/http"

	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/planner"
)

func (h *handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := h.Planner.List(ctx, auth.GetPrincipal(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]planView, 0, len(plans))
	for _, plan := range plans {
		views = append(views, newPlanView(plan))
	}
	ok(w, map[string]any{"plans": views})
}

func (h *handler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var params planner.Params
	if err := h.decode(r, &params); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	planID, err := h.Planner.Save(ctx, auth.GetPrincipal(ctx), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"id": planID})
}

func (h *handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := pathInt(r, "plan_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if err = h.Planner.Delete(ctx, auth.GetPrincipal(ctx), planID); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, nil)
}
