package export

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

func TestLoad(t *testing.T) {
	db := dbtest.Open(t)
	clubID := dbtest.Club(t, db, "Test Club")
	alice := dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember)

	meeting := dbtest.Meeting(t, db, clubID, 3, "2026-03-05", database.MeetingStatusNotStarted)
	dbtest.SessionLog(t, db, meeting.ID, 1, "Section")
	timerLog := dbtest.SessionLog(t, db, meeting.ID, 2, "Timer")
	dbtest.Owner(t, db, meeting.ID, "Timer", alice, &timerLog, 0)

	s := New(db, nil)
	p, err := s.Load(context.Background(), auth.Principal{ClubID: clubID}, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Header.Number)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, "Alice", p.Rows[1].Owner)
	assert.Nil(t, p.Awards)
}

func TestLoadShowsViewerBallotBeforeFinish(t *testing.T) {
	db := dbtest.Open(t)
	clubID := dbtest.Club(t, db, "Test Club")
	alice := dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember)
	meeting := dbtest.Meeting(t, db, clubID, 3, "2026-03-05", database.MeetingStatusRunning)

	category := database.AwardCategorySpeaker
	_, err := db.InsertVote(context.Background(), database.Vote{
		MeetingID:     meeting.ID,
		Voter:         "user_7",
		AwardCategory: &category,
		ContactID:     &alice,
	})
	require.NoError(t, err)

	s := New(db, nil)
	voter, other := 7, 8
	p, err := s.Load(context.Background(), auth.Principal{UserID: &voter, ClubID: clubID}, 3)
	require.NoError(t, err)
	assert.Equal(t, map[database.AwardCategory]string{database.AwardCategorySpeaker: "Alice"}, p.Awards)

	p, err = s.Load(context.Background(), auth.Principal{UserID: &other, ClubID: clubID}, 3)
	require.NoError(t, err)
	assert.Nil(t, p.Awards)
}

func TestLoadHidesUnpublishedMeetings(t *testing.T) {
	db := dbtest.Open(t)
	clubID := dbtest.Club(t, db, "Test Club")
	dbtest.Meeting(t, db, clubID, 3, "2026-03-05", database.MeetingStatusUnpublished)

	s := New(db, nil)
	_, err := s.Load(context.Background(), auth.Principal{ClubID: clubID}, 3)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = s.Load(context.Background(), auth.Principal{ClubID: clubID}, 4)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPushSheetRequiresConfiguration(t *testing.T) {
	s := New(dbtest.Open(t), nil)

	_, err := s.PushSheet(context.Background(), auth.Principal{Roles: database.UserRoleAdmin}, 1)
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
}
