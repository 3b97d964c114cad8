package web

import (
	"net/http"

	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/database"
)

type pathView struct {
	ID   int               `json:"id"`
	Name string            `json:"name"`
	Abbr string            `json:"abbr"`
	Type database.PathType `json:"type"`
}

func (h *handler) ListPathways(w http.ResponseWriter, r *http.Request) {
	paths, err := h.Catalog.Paths(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]pathView, 0, len(paths))
	for _, path := range paths {
		views = append(views, pathView{
			ID:   path.ID,
			Name: path.Name,
			Abbr: path.Abbr,
			Type: path.Type,
		})
	}
	ok(w, map[string]any{"pathways": views})
}

func (h *handler) ListPathwayProjects(w http.ResponseWriter, r *http.Request) {
	pathID, err := pathInt(r, "path_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	projects, err := h.Catalog.PathwayProjects(r.Context(), pathID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"projects": projects})
}

func (h *handler) ListLevelRoles(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Catalog.Levels(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"levels": levels})
}

func (h *handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]any{"tickets": catalog.Tickets()})
}

type roleView struct {
	ID             int                    `json:"id"`
	Name           string                 `json:"name"`
	Type           database.RoleType      `json:"type"`
	Icon           string                 `json:"icon"`
	AwardCategory  database.AwardCategory `json:"award_category"`
	NeedsApproval  bool                   `json:"needs_approval"`
	HasSingleOwner bool                   `json:"has_single_owner"`
	IsMemberOnly   bool                   `json:"is_member_only"`
	IsGlobal       bool                   `json:"is_global"`
}

func (h *handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roles, err := h.Catalog.Roles(ctx, auth.GetPrincipal(ctx).ClubID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]roleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, roleView{
			ID:             role.ID,
			Name:           role.Name,
			Type:           role.Type,
			Icon:           role.Icon,
			AwardCategory:  role.AwardCategory,
			NeedsApproval:  role.NeedsApproval,
			HasSingleOwner: role.HasSingleOwner,
			IsMemberOnly:   role.IsMemberOnly,
			IsGlobal:       role.ClubID == nil,
		})
	}
	ok(w, map[string]any{"roles": views})
}

type sessionTypeView struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	RoleID          *int   `json:"role_id"`
	DurationMin     int    `json:"duration_min"`
	DurationMax     int    `json:"duration_max"`
	IsSection       bool   `json:"is_section"`
	IsHidden        bool   `json:"is_hidden"`
	ValidForProject bool   `json:"valid_for_project"`
}

func (h *handler) ListSessionTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	types, err := h.Catalog.SessionTypes(ctx, auth.GetPrincipal(ctx).ClubID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]sessionTypeView, 0, len(types))
	for _, t := range types {
		views = append(views, sessionTypeView{
			ID:              t.ID,
			Title:           t.Title,
			RoleID:          t.RoleID,
			DurationMin:     t.DurationMin,
			DurationMax:     t.DurationMax,
			IsSection:       t.IsSection,
			IsHidden:        t.IsHidden,
			ValidForProject: t.ValidForProject,
		})
	}
	ok(w, map[string]any{"session_types": views})
}
