package voting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/topi314/clubagenda/server/database"
)

func award(category database.AwardCategory, contactID int) database.Vote {
	return database.Vote{AwardCategory: &category, ContactID: &contactID}
}

func answer(question string, score int) database.Vote {
	return database.Vote{Question: &question, Score: &score}
}

func TestWinners(t *testing.T) {
	tests := []struct {
		name  string
		votes []database.Vote
		want  map[database.AwardCategory]int
	}{
		{
			name: "majority",
			votes: []database.Vote{
				award(database.AwardCategorySpeaker, 1),
				award(database.AwardCategorySpeaker, 1),
				award(database.AwardCategorySpeaker, 2),
			},
			want: map[database.AwardCategory]int{database.AwardCategorySpeaker: 1},
		},
		{
			name: "tie goes to the first to reach the maximum",
			votes: []database.Vote{
				award(database.AwardCategoryEvaluator, 2),
				award(database.AwardCategoryEvaluator, 1),
				award(database.AwardCategoryEvaluator, 1),
				award(database.AwardCategoryEvaluator, 2),
			},
			want: map[database.AwardCategory]int{database.AwardCategoryEvaluator: 1},
		},
		{
			name: "categories are independent and questions ignored",
			votes: []database.Vote{
				award(database.AwardCategoryRoleTaker, 3),
				answer(RecommendationQuestion, 9),
				award(database.AwardCategoryTableTopic, 4),
			},
			want: map[database.AwardCategory]int{
				database.AwardCategoryRoleTaker:  3,
				database.AwardCategoryTableTopic: 4,
			},
		},
		{
			name:  "no ballots",
			votes: nil,
			want:  map[database.AwardCategory]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Winners(tt.votes))
		})
	}
}

func TestCounts(t *testing.T) {
	counts := Counts([]database.Vote{
		award(database.AwardCategorySpeaker, 2),
		award(database.AwardCategorySpeaker, 1),
		award(database.AwardCategorySpeaker, 1),
	})
	assert.Equal(t, []TallyEntry{{ContactID: 2, Count: 1}, {ContactID: 1, Count: 2}}, counts[database.AwardCategorySpeaker])
}

func TestRecommendationScore(t *testing.T) {
	assert.Nil(t, RecommendationScore(nil))
	assert.Nil(t, RecommendationScore([]database.Vote{answer(RecommendationQuestion, 0)}))

	score := RecommendationScore([]database.Vote{
		answer(RecommendationQuestion, 10),
		answer(RecommendationQuestion, 7),
		answer(RecommendationQuestion, 0),
		answer("venue", 1),
	})
	if assert.NotNil(t, score) {
		assert.InDelta(t, 8.5, *score, 0.001)
	}
}

func TestApplyTally(t *testing.T) {
	var meeting database.Meeting
	ApplyTally([]database.Vote{
		award(database.AwardCategorySpeaker, 5),
		answer(RecommendationQuestion, 8),
	}, &meeting)

	if assert.NotNil(t, meeting.BestSpeakerID) {
		assert.Equal(t, 5, *meeting.BestSpeakerID)
	}
	assert.Nil(t, meeting.BestEvaluatorID)
	if assert.NotNil(t, meeting.RecommendationScore) {
		assert.InDelta(t, 8.0, *meeting.RecommendationScore, 0.001)
	}
}

func TestLimiter(t *testing.T) {
	l := newLimiter(time.Hour, 2)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))

	unlimited := newLimiter(0, 0)
	for range 10 {
		assert.True(t, unlimited.allow("a"))
	}
}
