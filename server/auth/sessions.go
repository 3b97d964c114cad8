package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/topi314/clubagenda/internal/xrand"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/database"
)

func NewSessions(cfg Config, db *database.Database) *Sessions {
	return &Sessions{
		cfg: cfg,
		db:  db,
	}
}

// Sessions issues and resolves the server side sessions behind the session cookie.
type Sessions struct {
	cfg Config
	db  *database.Database
}

// Issue creates a session. Anonymous sessions only carry a voter token and the club in context.
func (s *Sessions) Issue(ctx context.Context, userID *int, clubID *int) (*database.Session, error) {
	now := time.Now().UTC()
	session := database.Session{
		ID:         xrand.Token(),
		UserID:     userID,
		ClubID:     clubID,
		VoterToken: xrand.Token(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(s.cfg.Lifetime)),
	}
	if err := s.db.InsertSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Principal resolves a session into the caller of a request.
func (s *Sessions) Principal(ctx context.Context, session database.Session) (Principal, error) {
	principal := Principal{
		SessionID:  session.ID,
		UserID:     session.UserID,
		ClubID:     s.cfg.DefaultClubID,
		VoterToken: session.VoterToken,
	}
	if session.ClubID != nil {
		principal.ClubID = *session.ClubID
	}
	if session.UserID == nil {
		return principal, nil
	}

	userClubs, err := s.db.GetUserClubs(ctx, *session.UserID)
	if err != nil {
		return Principal{}, err
	}
	if session.ClubID == nil {
		for _, userClub := range userClubs {
			if userClub.IsHome {
				principal.ClubID = userClub.ClubID
			}
		}
	}
	for _, userClub := range userClubs {
		if userClub.ClubID == principal.ClubID {
			principal.ContactID = userClub.ContactID
			principal.Roles = userClub.Roles
		}
	}
	return principal, nil
}

// SwitchClub moves the session to another club the user belongs to.
func (s *Sessions) SwitchClub(ctx context.Context, principal Principal, clubID int) error {
	if !principal.IsAuthenticated() {
		return apperr.New(apperr.KindUnauthorized, "login required")
	}
	if _, err := s.db.GetUserClub(ctx, *principal.UserID, clubID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Forbidden("not a member of club %d", clubID)
		}
		return err
	}
	return s.db.UpdateSessionClub(ctx, principal.SessionID, clubID)
}

func (s *Sessions) SetHomeClub(ctx context.Context, principal Principal, clubID int) error {
	if !principal.IsAuthenticated() {
		return apperr.New(apperr.KindUnauthorized, "login required")
	}
	return s.db.Tx(ctx, func(q *database.Queries) error {
		if err := q.SetHomeClub(ctx, *principal.UserID, clubID); err != nil {
			return apperr.NotFoundOr(err, "not a member of club %d", clubID)
		}
		return nil
	})
}

// Logout detaches the user from the session. The voter token survives so anonymous ballots stay attached to the browser.
func (s *Sessions) Logout(ctx context.Context, principal Principal) error {
	if principal.SessionID == "" {
		return nil
	}
	return s.db.DetachSessionUser(ctx, principal.SessionID)
}

func (s *Sessions) sign(sessionID string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SecretKey))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Cookie returns the signed session cookie.
func (s *Sessions) Cookie(session database.Session) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    session.ID + "." + s.sign(session.ID),
		Path:     "/",
		Expires:  session.ExpiresAt,
		Secure:   s.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Load returns the session of the request cookie. A missing, forged or expired cookie yields nil.
func (s *Sessions) Load(r *http.Request) (*database.Session, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sessionID, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !hmac.Equal([]byte(signature), []byte(s.sign(sessionID))) {
		slog.DebugContext(r.Context(), "Ignoring session cookie with invalid signature")
		return nil, nil
	}

	session, err := s.db.GetSession(r.Context(), sessionID)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, database.ErrSessionExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}
