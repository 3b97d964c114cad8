package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/topi314/clubagenda/server/agenda"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/booking"
	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/contacts"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/export"
	"github.com/topi314/clubagenda/server/meeting"
	"github.com/topi314/clubagenda/server/metrics"
	"github.com/topi314/clubagenda/server/notify"
	"github.com/topi314/clubagenda/server/planner"
	"github.com/topi314/clubagenda/server/progress"
	"github.com/topi314/clubagenda/server/roster"
	"github.com/topi314/clubagenda/server/voting"
	"github.com/topi314/clubagenda/server/web"
)

const cacheTTL = 10 * time.Minute

func New(ctx context.Context, cfg Config) (*Server, error) {
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sheets, err := export.NewSheets(ctx, cfg.Sheets)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize sheets export: %w", err)
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	m := metrics.New()
	c := cache.New(cacheTTL)
	notifier := notify.New(cfg.Notifications, httpClient)
	bookings := booking.New(cfg.Booking, db, c, m)

	handler := web.Routes(web.Config{
		PublicURL: cfg.Server.PublicURL,
		LoginURL:  cfg.Session.LoginURL,
	}, web.Services{
		DB:       db,
		Sessions: auth.NewSessions(cfg.Session, db),
		Agenda:   agenda.New(db, bookings, c),
		Booking:  bookings,
		Meeting:  meeting.New(cfg.Progress, db, c, m, notifier),
		Voting:   voting.New(cfg.Voting, db, m),
		Export:   export.New(db, sheets),
		Contacts: contacts.New(db),
		Progress: progress.New(cfg.Progress, db),
		Catalog:  catalog.New(db),
		Roster:   roster.New(db),
		Planner:  planner.New(db),
		Metrics:  m,
	})

	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		},
		database: db,
	}, nil
}

type Server struct {
	cfg      Config
	server   *http.Server
	database *database.Database
}

func (s *Server) Start() {
	go s.database.CleanupSessions()

	go func() {
		slog.Info("Server listening", slog.String("addr", s.cfg.Server.Addr), slog.String("public_url", s.cfg.Server.PublicURL))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", slog.Any("err", err))
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", slog.Any("err", err))
	}
	if err := s.database.Close(); err != nil {
		slog.Error("Failed to close database", slog.Any("err", err))
	}
}
