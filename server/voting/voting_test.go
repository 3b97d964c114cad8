package voting

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
	"github.com/topi314/clubagenda/server/metrics"
)

type fixture struct {
	db      *database.Database
	service *Service
	clubID  int
	meeting *database.Meeting
	alice   int
	bob     int
	keynote int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusRunning)

	f := &fixture{
		db: db,
		service: New(Config{
			AnonymousRate:        xtime.Duration(0),
			AnonymousBurst:       1,
			ProjectRequiredRoles: []string{"Keynote Speaker"},
		}, db, metrics.New()),
		clubID:  clubID,
		meeting: meeting,
		alice:   dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember),
		bob:     dbtest.Contact(t, db, clubID, "Bob", database.ContactTypeMember),
		keynote: dbtest.Contact(t, db, clubID, "Kim", database.ContactTypeMember),
	}

	dbtest.SessionLog(t, db, meeting.ID, 1, "Prepared Speech")
	dbtest.SessionLog(t, db, meeting.ID, 2, "Prepared Speech")
	keynoteLog := dbtest.SessionLog(t, db, meeting.ID, 3, "Keynote Speech")

	dbtest.Owner(t, db, meeting.ID, "Prepared Speaker", f.alice, nil, 0)
	dbtest.Owner(t, db, meeting.ID, "Prepared Speaker", f.bob, nil, 1)
	dbtest.Owner(t, db, meeting.ID, "Keynote Speaker", f.keynote, &keynoteLog, 0)
	return f
}

func (f *fixture) user(id int) auth.Principal {
	return auth.Principal{UserID: &id, ClubID: f.clubID, Roles: database.UserRoleMember}
}

func (f *fixture) anonymous(token string) auth.Principal {
	return auth.Principal{ClubID: f.clubID, VoterToken: token}
}

func (f *fixture) admin() auth.Principal {
	id := 1
	return auth.Principal{UserID: &id, ClubID: f.clubID, Roles: database.UserRoleAdmin}
}

func (f *fixture) vote(t *testing.T, principal auth.Principal, category database.AwardCategory, contactID int) VoteAction {
	t.Helper()
	action, err := f.service.Vote(context.Background(), principal, VoteRequest{
		MeetingNumber: f.meeting.Number,
		Category:      category,
		ContactID:     contactID,
	})
	require.NoError(t, err)
	return action
}

func TestVoteToggle(t *testing.T) {
	f := newFixture(t)
	voter := f.user(10)

	assert.Equal(t, VoteAdded, f.vote(t, voter, database.AwardCategorySpeaker, f.alice))
	assert.Equal(t, VoteChanged, f.vote(t, voter, database.AwardCategorySpeaker, f.bob))

	votes, err := f.db.GetVoterVotes(context.Background(), f.meeting.ID, "user_10")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, f.bob, *votes[0].ContactID)

	assert.Equal(t, VoteRemoved, f.vote(t, voter, database.AwardCategorySpeaker, f.bob))
	votes, err = f.db.GetVoterVotes(context.Background(), f.meeting.ID, "user_10")
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestVoteRequiresRunningMeeting(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.UpdateMeetingStatus(context.Background(), f.meeting.ID, database.MeetingStatusNotStarted))

	_, err := f.service.Vote(context.Background(), f.user(10), VoteRequest{
		MeetingNumber: f.meeting.Number,
		Category:      database.AwardCategorySpeaker,
		ContactID:     f.alice,
	})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
	assert.Equal(t, database.MeetingStatusNotStarted, apperr.From(err).Metadata["status"])
}

func TestKeynoteWithoutProjectIsNotEligible(t *testing.T) {
	f := newFixture(t)

	candidates, err := f.service.Candidates(context.Background(), f.db.Queries, *f.meeting)
	require.NoError(t, err)

	var ids []int
	for _, candidate := range candidates[database.AwardCategorySpeaker] {
		ids = append(ids, candidate.ContactID)
	}
	assert.Equal(t, []int{f.alice, f.bob}, ids)

	_, err = f.service.Vote(context.Background(), f.user(10), VoteRequest{
		MeetingNumber: f.meeting.Number,
		Category:      database.AwardCategorySpeaker,
		ContactID:     f.keynote,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDefaultConfigAllowsEvaluatorAward(t *testing.T) {
	db := dbtest.Open(t)
	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusRunning)
	evaluator := dbtest.Contact(t, db, clubID, "Eve", database.ContactTypeMember)

	evaluationLog := dbtest.SessionLog(t, db, meeting.ID, 1, "Evaluation")
	dbtest.Owner(t, db, meeting.ID, "Individual Evaluator", evaluator, &evaluationLog, 0)

	service := New(DefaultConfig(), db, metrics.New())
	candidates, err := service.Candidates(context.Background(), db.Queries, *meeting)
	require.NoError(t, err)
	require.Len(t, candidates[database.AwardCategoryEvaluator], 1)
	assert.Equal(t, evaluator, candidates[database.AwardCategoryEvaluator][0].ContactID)

	userID := 10
	action, err := service.Vote(context.Background(), auth.Principal{UserID: &userID, ClubID: clubID, Roles: database.UserRoleMember}, VoteRequest{
		MeetingNumber: meeting.Number,
		Category:      database.AwardCategoryEvaluator,
		ContactID:     evaluator,
	})
	require.NoError(t, err)
	assert.Equal(t, VoteAdded, action)
}

func TestAnonymousVotesAreThrottled(t *testing.T) {
	f := newFixture(t)
	f.service.limiter = newLimiter(time.Hour, 1)

	f.vote(t, f.anonymous("token-a"), database.AwardCategorySpeaker, f.alice)

	_, err := f.service.Vote(context.Background(), f.anonymous("token-a"), VoteRequest{
		MeetingNumber: f.meeting.Number,
		Category:      database.AwardCategorySpeaker,
		ContactID:     f.bob,
	})
	assert.True(t, apperr.Is(err, apperr.KindTooManyRequests))

	f.vote(t, f.anonymous("token-b"), database.AwardCategorySpeaker, f.alice)
}

func TestVoteWithoutSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Vote(context.Background(), auth.Principal{ClubID: f.clubID}, VoteRequest{
		MeetingNumber: f.meeting.Number,
		Category:      database.AwardCategorySpeaker,
		ContactID:     f.alice,
	})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestBatchVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := f.user(11)
	score := 9

	require.NoError(t, f.service.BatchVote(ctx, voter, BatchRequest{
		MeetingNumber: f.meeting.Number,
		Awards:        map[database.AwardCategory]*int{database.AwardCategorySpeaker: &f.alice},
		Answers:       []Answer{{Question: RecommendationQuestion, Score: &score, Comment: "great"}},
	}))

	score = 10
	require.NoError(t, f.service.BatchVote(ctx, voter, BatchRequest{
		MeetingNumber: f.meeting.Number,
		Awards:        map[database.AwardCategory]*int{database.AwardCategorySpeaker: nil},
		Answers:       []Answer{{Question: RecommendationQuestion, Score: &score}},
	}))

	view, err := f.service.View(ctx, voter, f.meeting.Number)
	require.NoError(t, err)
	assert.Empty(t, view.Ballot.Awards)
	require.Len(t, view.Ballot.Answers, 1)
	assert.Equal(t, 10, *view.Ballot.Answers[0].Score)
	assert.Empty(t, view.Ballot.Answers[0].Comment)
}

func TestBatchVoteValidatesScores(t *testing.T) {
	f := newFixture(t)
	score := 11

	err := f.service.BatchVote(context.Background(), f.user(12), BatchRequest{
		MeetingNumber: f.meeting.Number,
		Answers:       []Answer{{Question: RecommendationQuestion, Score: &score}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestViewShowsTallyToAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.vote(t, f.user(10), database.AwardCategorySpeaker, f.alice)
	f.vote(t, f.user(11), database.AwardCategorySpeaker, f.alice)

	view, err := f.service.View(ctx, f.user(10), f.meeting.Number)
	require.NoError(t, err)
	assert.True(t, view.Open)
	assert.Nil(t, view.Tally)
	assert.Equal(t, f.alice, view.Ballot.Awards[database.AwardCategorySpeaker])

	view, err = f.service.View(ctx, f.admin(), f.meeting.Number)
	require.NoError(t, err)
	assert.Equal(t, []TallyEntry{{ContactID: f.alice, Count: 2}}, view.Tally[database.AwardCategorySpeaker])
}

func TestViewHidesUnpublishedMeetings(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.UpdateMeetingStatus(context.Background(), f.meeting.ID, database.MeetingStatusUnpublished))

	_, err := f.service.View(context.Background(), f.anonymous("token"), f.meeting.Number)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestWriteQRCode(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteQRCode(buf, "https://club.example", 12))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	assert.Equal(t, "https://club.example/voting?meeting_number=12", URL("https://club.example", 12))
}
