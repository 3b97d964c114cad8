package web

import (
	"net/http"

	"github.com/topi314/clubagenda/internal/xquery"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/contacts"
	"github.com/topi314/clubagenda/server/database"
)

func (h *handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)

	contactType := database.ContactType(xquery.ParseString(r.URL.Query(), "type", ""))
	list, err := h.Contacts.List(ctx, principal, contactType)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]contactView, 0, len(list))
	for _, c := range list {
		views = append(views, newContactView(c, principal.IsAdmin()))
	}
	ok(w, map[string]any{"contacts": views})
}

func (h *handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var params contacts.Params
	if err := h.decode(r, &params); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	contact, err := h.Contacts.Create(ctx, auth.GetPrincipal(ctx), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"contact": newContactView(*contact, true)})
}

func (h *handler) GetContact(w http.ResponseWriter, r *http.Request) {
	contactID, err := pathInt(r, "contact_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	contact, err := h.Contacts.Get(ctx, principal, contactID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"contact": newContactView(*contact, principal.IsAdmin())})
}

func (h *handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	contactID, err := pathInt(r, "contact_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var params contacts.Params
	if err = h.decode(r, &params); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	principal := auth.GetPrincipal(ctx)
	contact, err := h.Contacts.Update(ctx, principal, contactID, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"contact": newContactView(*contact, principal.IsAdmin())})
}

// clubContact resolves the contact_id path value to a contact of the club in context.
func (h *handler) clubContact(r *http.Request) (int, error) {
	contactID, err := pathInt(r, "contact_id")
	if err != nil {
		return 0, err
	}
	ctx := r.Context()
	if _, err = h.Contacts.Get(ctx, auth.GetPrincipal(ctx), contactID); err != nil {
		return 0, err
	}
	return contactID, nil
}

func (h *handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	contactID, err := h.clubContact(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	progress, err := h.Progress.Get(r.Context(), contactID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"progress": progress})
}

func (h *handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	contactID, err := h.clubContact(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	achievements, err := h.Progress.Achievements(r.Context(), contactID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"achievements": newAchievementViews(achievements)})
}

type achievementRequest struct {
	Kind     database.AchievementKind `json:"kind" validate:"required"`
	PathName string                   `json:"path_name"`
	Level    int                      `json:"level" validate:"gte=0,lte=5"`
}

func (h *handler) RecordAchievement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !auth.GetPrincipal(ctx).IsAdmin() {
		h.fail(w, r, apperr.Forbidden("only admins can record achievements"))
		return
	}

	contactID, err := h.clubContact(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req achievementRequest
	if err = h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err = h.Progress.RecordAchievement(ctx, contactID, req.Kind, req.PathName, req.Level); err != nil {
		h.fail(w, r, err)
		return
	}

	achievements, err := h.Progress.Achievements(ctx, contactID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"achievements": newAchievementViews(achievements)})
}

func (h *handler) DeleteAchievement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !auth.GetPrincipal(ctx).IsAdmin() {
		h.fail(w, r, apperr.Forbidden("only admins can delete achievements"))
		return
	}

	contactID, err := h.clubContact(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	achievementID, err := pathInt(r, "achievement_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err = h.Progress.DeleteAchievement(ctx, contactID, achievementID); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, nil)
}
