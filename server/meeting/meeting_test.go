package meeting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
	"github.com/topi314/clubagenda/server/metrics"
	"github.com/topi314/clubagenda/server/notify"
	"github.com/topi314/clubagenda/server/progress"
)

type fixture struct {
	db      *database.Database
	service *Service
	clubID  int
}

func newFixture(t *testing.T, notifier *notify.Notifier) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	return &fixture{
		db:      db,
		service: New(progress.Config{SpeechRole: "Prepared Speaker"}, db, cache.New(time.Minute), metrics.New(), notifier),
		clubID:  dbtest.Club(t, db, "Test Club"),
	}
}

func (f *fixture) admin() auth.Principal {
	id := 1
	return auth.Principal{UserID: &id, ClubID: f.clubID, Roles: database.UserRoleAdmin}
}

func (f *fixture) transition(t *testing.T, number int, req Request) (*Result, error) {
	t.Helper()
	return f.service.Transition(context.Background(), f.admin(), number, req)
}

func (f *fixture) ballot(t *testing.T, meetingID int, voter string, contactID int, at time.Time) {
	t.Helper()
	category := database.AwardCategorySpeaker
	_, err := f.db.InsertVote(context.Background(), database.Vote{
		MeetingID:     meetingID,
		Voter:         voter,
		AwardCategory: &category,
		ContactID:     &contactID,
		CreatedAt:     at,
	})
	require.NoError(t, err)
}

func TestAdvanceThroughLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusUnpublished)

	for _, want := range []database.MeetingStatus{
		database.MeetingStatusNotStarted,
		database.MeetingStatusRunning,
		database.MeetingStatusFinished,
	} {
		result, err := f.transition(t, 1, Request{Action: ActionAdvance})
		require.NoError(t, err)
		assert.Equal(t, want, result.Status)
	}

	_, err := f.transition(t, 1, Request{Action: ActionAdvance})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
	assert.Equal(t, database.MeetingStatusFinished, apperr.From(err).Metadata["status"])

	result, err := f.transition(t, 1, Request{Action: ActionAdvance, ConfirmDelete: true})
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, result.Status)

	_, err = f.db.GetMeetingByNumber(context.Background(), f.clubID, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFinishTalliesAwards(t *testing.T) {
	f := newFixture(t, nil)
	meeting := dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusRunning)
	alice := dbtest.Contact(t, f.db, f.clubID, "Alice", database.ContactTypeMember)
	bob := dbtest.Contact(t, f.db, f.clubID, "Bob", database.ContactTypeMember)

	start := time.Date(2026, 2, 5, 20, 0, 0, 0, time.UTC)
	f.ballot(t, meeting.ID, "user_1", alice, start)
	f.ballot(t, meeting.ID, "user_2", alice, start.Add(time.Second))
	f.ballot(t, meeting.ID, "user_3", bob, start.Add(2*time.Second))

	question := "recommendation"
	score := 8
	_, err := f.db.InsertVote(context.Background(), database.Vote{MeetingID: meeting.ID, Voter: "user_1", Question: &question, Score: &score})
	require.NoError(t, err)

	result, err := f.transition(t, 1, Request{Action: ActionAdvance})
	require.NoError(t, err)
	assert.Equal(t, database.MeetingStatusFinished, result.Status)

	finished, err := f.db.GetMeeting(context.Background(), meeting.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.BestSpeakerID)
	assert.Equal(t, alice, *finished.BestSpeakerID)
	assert.Nil(t, finished.BestEvaluatorID)
	require.NotNil(t, finished.RecommendationScore)
	assert.InDelta(t, 8.0, *finished.RecommendationScore, 0.001)
}

func TestFinishRollsBackWhenProgressFails(t *testing.T) {
	f := newFixture(t, nil)
	meeting := dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusRunning)
	alice := dbtest.Contact(t, f.db, f.clubID, "Alice", database.ContactTypeMember)
	logID := dbtest.SessionLog(t, f.db, meeting.ID, 1, "Prepared Speech")
	dbtest.Owner(t, f.db, meeting.ID, "Prepared Speaker", alice, &logID, 0)
	f.ballot(t, meeting.ID, "user_1", alice, time.Date(2026, 2, 5, 20, 0, 0, 0, time.UTC))

	refreshErr := errors.New("progress unavailable")
	f.service.refresh = func(ctx context.Context, q *database.Queries, cfg progress.Config, contactIDs []int) ([]database.Achievement, error) {
		assert.Equal(t, []int{alice}, contactIDs)
		return nil, refreshErr
	}

	_, err := f.transition(t, 1, Request{Action: ActionAdvance})
	assert.ErrorIs(t, err, refreshErr)

	unchanged, err := f.db.GetMeeting(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, database.MeetingStatusRunning, unchanged.Status)
	assert.Nil(t, unchanged.BestSpeakerID)
}

func TestFinishNotifiesWinners(t *testing.T) {
	var body struct {
		Embeds []struct {
			Fields []struct {
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := newFixture(t, notify.New(notify.Config{Enabled: true, WebhookURL: srv.URL}, srv.Client()))
	meeting := dbtest.Meeting(t, f.db, f.clubID, 3, "2026-02-05", database.MeetingStatusRunning)
	alice := dbtest.Contact(t, f.db, f.clubID, "Alice", database.ContactTypeMember)
	f.ballot(t, meeting.ID, "user_1", alice, time.Now())

	_, err := f.transition(t, 3, Request{Action: ActionAdvance})
	require.NoError(t, err)

	require.Len(t, body.Embeds, 1)
	require.Len(t, body.Embeds[0].Fields, 1)
	assert.Equal(t, "Alice", body.Embeds[0].Fields[0].Value)
}

func TestResetOnlyFromNotStarted(t *testing.T) {
	f := newFixture(t, nil)
	dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	dbtest.Meeting(t, f.db, f.clubID, 2, "2026-02-12", database.MeetingStatusRunning)

	result, err := f.transition(t, 1, Request{Action: ActionReset})
	require.NoError(t, err)
	assert.Equal(t, database.MeetingStatusUnpublished, result.Status)

	_, err = f.transition(t, 2, Request{Action: ActionReset})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
	assert.Equal(t, database.MeetingStatusRunning, apperr.From(err).Metadata["status"])
}

func TestDeleteIsExplicit(t *testing.T) {
	f := newFixture(t, nil)
	dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusRunning)
	meeting := dbtest.Meeting(t, f.db, f.clubID, 2, "2026-02-12", database.MeetingStatusUnpublished)
	dbtest.SessionLog(t, f.db, meeting.ID, 1, "Timer")

	_, err := f.transition(t, 1, Request{Action: ActionDelete})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))

	result, err := f.transition(t, 2, Request{Action: ActionDelete})
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, result.Status)

	logs, err := f.db.GetSessionLogs(context.Background(), meeting.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestTransitionRequiresManager(t *testing.T) {
	f := newFixture(t, nil)
	meeting := dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	contactID := dbtest.Contact(t, f.db, f.clubID, "Manny", database.ContactTypeMember)
	userID := 7
	member := auth.Principal{UserID: &userID, ContactID: &contactID, ClubID: f.clubID, Roles: database.UserRoleMember}

	_, err := f.service.Transition(context.Background(), member, 1, Request{Action: ActionAdvance})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	meeting.ManagerID = &contactID
	require.NoError(t, f.db.UpdateMeetingAttributes(context.Background(), *meeting))

	result, err := f.service.Transition(context.Background(), member, 1, Request{Action: ActionAdvance})
	require.NoError(t, err)
	assert.Equal(t, database.MeetingStatusRunning, result.Status)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t, nil)
	dbtest.Meeting(t, f.db, f.clubID, 1, "2026-02-05", database.MeetingStatusUnpublished)
	dbtest.Meeting(t, f.db, f.clubID, 2, "2026-02-12", database.MeetingStatusNotStarted)

	anonymous := auth.Principal{ClubID: f.clubID}
	_, err := f.service.Get(context.Background(), anonymous, 1)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	userID := 9
	member := auth.Principal{UserID: &userID, ClubID: f.clubID, Roles: database.UserRoleMember}
	_, err = f.service.Get(context.Background(), member, 1)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	meetings, err := f.service.List(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, 2, meetings[0].Number)

	meetings, err = f.service.List(context.Background(), f.admin())
	require.NoError(t, err)
	assert.Len(t, meetings, 2)
}
