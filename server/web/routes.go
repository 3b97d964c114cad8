// Package web serves the JSON api of the club agenda.
package web

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/topi314/clubagenda/internal/middlewares"
	"github.com/topi314/clubagenda/server/agenda"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/booking"
	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/contacts"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/export"
	"github.com/topi314/clubagenda/server/meeting"
	"github.com/topi314/clubagenda/server/metrics"
	"github.com/topi314/clubagenda/server/planner"
	"github.com/topi314/clubagenda/server/progress"
	"github.com/topi314/clubagenda/server/roster"
	"github.com/topi314/clubagenda/server/voting"
)

type Config struct {
	PublicURL string
	LoginURL  string
}

// Services are the domain services behind the routes.
type Services struct {
	DB       *database.Database
	Sessions *auth.Sessions
	Agenda   *agenda.Service
	Booking  *booking.Service
	Meeting  *meeting.Service
	Voting   *voting.Service
	Export   *export.Service
	Contacts *contacts.Service
	Progress *progress.Service
	Catalog  *catalog.Catalog
	Roster   *roster.Service
	Planner  *planner.Service
	Metrics  *metrics.Metrics
}

type handler struct {
	Services
	cfg        Config
	validate   *validator.Validate
	translator ut.Translator
}

func Routes(cfg Config, services Services) http.Handler {
	validate, translator := newValidator()
	h := &handler{
		Services:   services,
		cfg:        cfg,
		validate:   validate,
		translator: translator,
	}

	catalogCache := middlewares.Cache(time.Hour)

	api := http.NewServeMux()
	api.HandleFunc("GET  /api/meetings", h.ListMeetings)

	api.HandleFunc("GET  /api/agenda", h.GetAgenda)
	api.HandleFunc("POST /api/agenda/create", h.CreateAgenda)
	api.HandleFunc("POST /api/agenda/update", h.UpdateAgenda)
	api.HandleFunc("POST /api/agenda/status/{meeting_number}", h.ChangeStatus)
	api.HandleFunc("GET  /api/agenda/{meeting_number}/template.csv", h.ExportTemplate)
	api.HandleFunc("GET  /api/agenda/{meeting_number}/export.zip", h.ExportZip)
	api.HandleFunc("GET  /api/agenda/{meeting_number}/agenda.csv", h.ExportAgendaCSV)
	api.HandleFunc("POST /api/agenda/sheets/{meeting_number}", h.ExportSheets)

	api.HandleFunc("GET  /api/templates", h.ListTemplates)
	api.HandleFunc("PUT  /api/templates/{meeting_type}", h.UploadTemplate)

	api.HandleFunc("GET  /api/booking", h.ListBookings)
	api.HandleFunc("POST /api/booking/book", h.Book)

	api.HandleFunc("GET  /api/voting", h.GetVoting)
	api.HandleFunc("POST /api/voting/vote", h.Vote)
	api.HandleFunc("POST /api/voting/batch_vote", h.BatchVote)
	api.HandleFunc("GET  /api/voting/{meeting_number}/qr.png", h.VotingQRCode)

	api.HandleFunc("GET  /api/contacts", h.ListContacts)
	api.HandleFunc("POST /api/contacts", h.CreateContact)
	api.HandleFunc("GET  /api/contacts/{contact_id}", h.GetContact)
	api.HandleFunc("PUT  /api/contacts/{contact_id}", h.UpdateContact)
	api.HandleFunc("GET  /api/contacts/{contact_id}/progress", h.GetProgress)
	api.HandleFunc("GET  /api/contacts/{contact_id}/achievements", h.ListAchievements)
	api.HandleFunc("POST /api/contacts/{contact_id}/achievements", h.RecordAchievement)
	api.HandleFunc("DELETE /api/contacts/{contact_id}/achievements/{achievement_id}", h.DeleteAchievement)

	api.Handle("GET /api/pathways", catalogCache(http.HandlerFunc(h.ListPathways)))
	api.Handle("GET /api/pathways/{path_id}/projects", catalogCache(http.HandlerFunc(h.ListPathwayProjects)))
	api.Handle("GET /api/level-roles", catalogCache(http.HandlerFunc(h.ListLevelRoles)))
	api.Handle("GET /api/tickets", catalogCache(http.HandlerFunc(h.ListTickets)))
	api.HandleFunc("GET /api/roles", h.ListRoles)
	api.HandleFunc("GET /api/session-types", h.ListSessionTypes)

	api.HandleFunc("GET    /api/roster", h.ListRoster)
	api.HandleFunc("POST   /api/roster", h.AddRosterEntry)
	api.HandleFunc("DELETE /api/roster/{roster_id}", h.RemoveRosterEntry)
	api.HandleFunc("POST   /api/roster/lucky-draw", h.LuckyDraw)

	api.HandleFunc("GET    /api/planner", h.ListPlans)
	api.HandleFunc("POST   /api/planner", h.SavePlan)
	api.HandleFunc("DELETE /api/planner/{plan_id}", h.DeletePlan)

	api.HandleFunc("GET /api/stats", h.Stats)

	api.HandleFunc("POST /api/session/club", h.SwitchClub)
	api.HandleFunc("POST /api/session/logout", h.Logout)
	api.HandleFunc("PUT  /api/users/home-club", h.SetHomeClub)

	api.HandleFunc("/", h.NotFound)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", h.Metrics.Handler())
	mux.Handle("/", h.session(api))

	return middlewares.Recover(
		middlewares.Observe(h.Metrics.Request)(
			middlewares.Logger(mux),
		),
	)
}

func (h *handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"message": "not found",
	})
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"message": "database unavailable",
		})
		return
	}
	ok(w, nil)
}
