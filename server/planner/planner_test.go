package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
)

func TestPlanLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	alice := dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember)
	meeting := dbtest.Meeting(t, db, clubID, 12, "2026-04-02", database.MeetingStatusNotStarted)
	timer := dbtest.Role(t, db, "Timer")

	userID := 1
	principal := auth.Principal{UserID: &userID, ContactID: &alice, ClubID: clubID, Roles: database.UserRoleMember}
	s := New(db)

	planID, err := s.Save(ctx, principal, Params{MeetingNumber: 12, RoleID: timer.ID})
	require.NoError(t, err)

	plans, err := s.List(ctx, principal)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, database.PlanStatusPlanned, plans[0].Plan.Status)
	assert.Equal(t, meeting.ID, plans[0].Plan.MeetingID)

	logID := dbtest.SessionLog(t, db, meeting.ID, 1, "Timer")
	dbtest.Owner(t, db, meeting.ID, "Timer", alice, &logID, 0)

	_, err = s.Save(ctx, principal, Params{MeetingNumber: 12, RoleID: timer.ID})
	require.NoError(t, err)
	plans, err = s.List(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, database.PlanStatusBooked, plans[0].Plan.Status)

	other := 99
	err = s.Delete(ctx, auth.Principal{UserID: &userID, ContactID: &other, ClubID: clubID}, planID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, s.Delete(ctx, principal, planID))
	plans, err = s.List(ctx, principal)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestPlanRejectsFinishedMeetings(t *testing.T) {
	db := dbtest.Open(t)
	clubID := dbtest.Club(t, db, "Test Club")
	alice := dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember)
	dbtest.Meeting(t, db, clubID, 3, "2026-01-08", database.MeetingStatusFinished)

	userID := 1
	principal := auth.Principal{UserID: &userID, ContactID: &alice, ClubID: clubID}
	_, err := New(db).Save(context.Background(), principal, Params{MeetingNumber: 3, RoleID: dbtest.Role(t, db, "Timer").ID})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))

	_, err = New(db).List(context.Background(), auth.Principal{ClubID: clubID})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
