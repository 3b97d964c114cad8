package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
)

func newSessions(t *testing.T) (*database.Database, *Sessions) {
	t.Helper()

	db := dbtest.Open(t)
	return db, NewSessions(Config{
		CookieName: "session",
		Lifetime:   xtime.Duration(time.Hour),
		SecretKey:  "secret",
	}, db)
}

func TestSessionCookieRoundTrip(t *testing.T) {
	_, s := newSessions(t)

	session, err := s.Issue(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, session.VoterToken, 32)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(s.Cookie(*session))

	loaded, err := s.Load(r)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, session.VoterToken, loaded.VoterToken)
}

func TestSessionRejectsForgedCookie(t *testing.T) {
	_, s := newSessions(t)

	session, err := s.Issue(context.Background(), nil, nil)
	require.NoError(t, err)

	cookie := s.Cookie(*session)
	cookie.Value = session.ID + ".deadbeef"

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)

	loaded, err := s.Load(r)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestPrincipalUsesHomeClub(t *testing.T) {
	db, s := newSessions(t)
	ctx := context.Background()

	first := dbtest.Club(t, db, "First")
	second := dbtest.Club(t, db, "Second")
	contactID := dbtest.Contact(t, db, second, "Alice", database.ContactTypeMember)

	userID, err := db.InsertUser(ctx, database.User{Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, db.InsertUserClub(ctx, database.UserClub{UserID: userID, ClubID: first, Roles: database.UserRoleMember}))
	require.NoError(t, db.InsertUserClub(ctx, database.UserClub{UserID: userID, ClubID: second, ContactID: &contactID, Roles: database.UserRoleAdmin}))

	session, err := s.Issue(ctx, &userID, nil)
	require.NoError(t, err)

	principal, err := s.Principal(ctx, *session)
	require.NoError(t, err)
	assert.Equal(t, first, principal.ClubID)
	assert.False(t, principal.IsAdmin())

	require.NoError(t, s.SetHomeClub(ctx, principal, second))
	principal, err = s.Principal(ctx, *session)
	require.NoError(t, err)
	assert.Equal(t, second, principal.ClubID)
	assert.True(t, principal.IsAdmin())
	assert.Equal(t, &contactID, principal.ContactID)

	userClubs, err := db.GetUserClubs(ctx, userID)
	require.NoError(t, err)
	var homes int
	for _, userClub := range userClubs {
		if userClub.IsHome {
			homes++
		}
	}
	assert.Equal(t, 1, homes)
}

func TestSwitchClub(t *testing.T) {
	db, s := newSessions(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Club")
	otherID := dbtest.Club(t, db, "Other")
	userID, err := db.InsertUser(ctx, database.User{Username: "bob"})
	require.NoError(t, err)
	require.NoError(t, db.InsertUserClub(ctx, database.UserClub{UserID: userID, ClubID: clubID, Roles: database.UserRoleMember}))

	session, err := s.Issue(ctx, &userID, nil)
	require.NoError(t, err)
	principal, err := s.Principal(ctx, *session)
	require.NoError(t, err)

	err = s.SwitchClub(ctx, principal, otherID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	err = s.SwitchClub(ctx, Principal{}, clubID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	require.NoError(t, s.SwitchClub(ctx, principal, clubID))
}

func TestLogoutKeepsVoterToken(t *testing.T) {
	db, s := newSessions(t)
	ctx := context.Background()

	userID, err := db.InsertUser(ctx, database.User{Username: "carl"})
	require.NoError(t, err)
	session, err := s.Issue(ctx, &userID, nil)
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, Principal{SessionID: session.ID, UserID: &userID}))

	loaded, err := db.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.UserID)
	assert.Equal(t, session.VoterToken, loaded.VoterToken)
}
