package voting

import (
	"context"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
)

type Ballot struct {
	Awards  map[database.AwardCategory]int `json:"awards"`
	Answers []Answer                       `json:"answers"`
}

// NewBallot collects the award picks and answers of one voter.
func NewBallot(votes []database.Vote) Ballot {
	ballot := Ballot{
		Awards: make(map[database.AwardCategory]int),
	}
	for _, vote := range votes {
		switch {
		case vote.AwardCategory != nil && vote.ContactID != nil:
			ballot.Awards[*vote.AwardCategory] = *vote.ContactID
		case vote.Question != nil:
			ballot.Answers = append(ballot.Answers, Answer{
				Question: *vote.Question,
				Score:    vote.Score,
				Comment:  vote.Comment,
			})
		}
	}
	return ballot
}

type View struct {
	MeetingNumber       int                                     `json:"meeting_number"`
	Status              database.MeetingStatus                  `json:"status"`
	Open                bool                                    `json:"open"`
	Candidates          map[database.AwardCategory][]Candidate  `json:"candidates"`
	Ballot              Ballot                                  `json:"ballot"`
	Tally               map[database.AwardCategory][]TallyEntry `json:"tally,omitempty"`
	Winners             map[database.AwardCategory]int          `json:"winners,omitempty"`
	RecommendationScore *float64                                `json:"recommendation_score,omitempty"`
}

// View returns the ballot page of a meeting for the principal. Meeting admins also see the running tally.
func (s *Service) View(ctx context.Context, principal auth.Principal, number int) (*View, error) {
	meeting, err := meetingByNumber(ctx, s.db.Queries, principal.ClubID, number)
	if err != nil {
		return nil, err
	}
	admin := principal.CanManage(*meeting)
	if meeting.Status == database.MeetingStatusUnpublished && !admin {
		return nil, apperr.NotFound("meeting %d not found", number)
	}

	candidates, err := s.Candidates(ctx, s.db.Queries, *meeting)
	if err != nil {
		return nil, err
	}

	view := &View{
		MeetingNumber: meeting.Number,
		Status:        meeting.Status,
		Open:          meeting.Status == database.MeetingStatusRunning,
		Candidates:    candidates,
		Ballot: Ballot{
			Awards: make(map[database.AwardCategory]int),
		},
	}

	if voter := principal.Voter(); voter != "" {
		votes, err := s.db.GetVoterVotes(ctx, meeting.ID, voter)
		if err != nil {
			return nil, err
		}
		view.Ballot = NewBallot(votes)
	}

	switch meeting.Status {
	case database.MeetingStatusRunning:
		if admin {
			votes, err := s.db.GetVotes(ctx, meeting.ID)
			if err != nil {
				return nil, err
			}
			view.Tally = Counts(votes)
			view.RecommendationScore = RecommendationScore(votes)
		}
	case database.MeetingStatusFinished:
		view.Winners = make(map[database.AwardCategory]int)
		for _, category := range database.AwardCategories {
			if contactID := meeting.BestOf(category); contactID != nil {
				view.Winners[category] = *contactID
			}
		}
		view.RecommendationScore = meeting.RecommendationScore
	}
	return view, nil
}
