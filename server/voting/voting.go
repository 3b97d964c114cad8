// Package voting records award and question ballots of running meetings and derives the awards.
package voting

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/metrics"
)

const maxScore = 10

func New(cfg Config, db *database.Database, metrics *metrics.Metrics) *Service {
	return &Service{
		cfg:     cfg,
		db:      db,
		metrics: metrics,
		limiter: newLimiter(time.Duration(cfg.AnonymousRate), cfg.AnonymousBurst),
	}
}

type Service struct {
	cfg     Config
	db      *database.Database
	metrics *metrics.Metrics
	limiter *limiter
}

type VoteRequest struct {
	MeetingNumber int
	Category      database.AwardCategory
	ContactID     int
}

type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteChanged VoteAction = "changed"
	VoteRemoved VoteAction = "removed"
)

type Answer struct {
	Question string `json:"question"`
	Score    *int   `json:"score"`
	Comment  string `json:"comment"`
}

// BatchRequest replaces all ballots of one voter. A nil award removes the ballot of that category.
type BatchRequest struct {
	MeetingNumber int
	Awards        map[database.AwardCategory]*int
	Answers       []Answer
}

// Vote toggles an award ballot: the same nominee again removes it, another nominee replaces it.
func (s *Service) Vote(ctx context.Context, principal auth.Principal, req VoteRequest) (VoteAction, error) {
	if !req.Category.Valid() {
		return "", apperr.Validation("unknown award category %q", req.Category)
	}
	voter, err := s.voter(principal)
	if err != nil {
		return "", err
	}

	var action VoteAction
	err = s.db.Tx(ctx, func(q *database.Queries) error {
		meeting, err := openMeeting(ctx, q, principal.ClubID, req.MeetingNumber)
		if err != nil {
			return err
		}
		if err = s.checkCandidate(ctx, q, *meeting, req.Category, req.ContactID); err != nil {
			return err
		}

		existing, err := q.GetAwardVote(ctx, meeting.ID, voter, req.Category)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		switch {
		case existing == nil:
			action = VoteAdded
			_, err = q.InsertVote(ctx, database.Vote{
				MeetingID:     meeting.ID,
				Voter:         voter,
				AwardCategory: &req.Category,
				ContactID:     &req.ContactID,
			})
		case existing.ContactID != nil && *existing.ContactID == req.ContactID:
			action = VoteRemoved
			err = q.DeleteVote(ctx, existing.ID)
		default:
			action = VoteChanged
			err = q.UpdateVoteContact(ctx, existing.ID, req.ContactID, time.Now())
		}
		return err
	})
	if err != nil {
		return "", err
	}

	s.metrics.Vote("award")
	slog.DebugContext(ctx, "Recorded award ballot", slog.Int("meeting_number", req.MeetingNumber), slog.String("category", string(req.Category)), slog.String("action", string(action)))
	return action, nil
}

// BatchVote stores every ballot of one voter for a meeting in a single transaction.
func (s *Service) BatchVote(ctx context.Context, principal auth.Principal, req BatchRequest) error {
	for category := range req.Awards {
		if !category.Valid() {
			return apperr.Validation("unknown award category %q", category)
		}
	}
	for _, answer := range req.Answers {
		if strings.TrimSpace(answer.Question) == "" {
			return apperr.Validation("question is required")
		}
		if answer.Score != nil && (*answer.Score < 0 || *answer.Score > maxScore) {
			return apperr.Validation("score must be between 0 and %d", maxScore)
		}
	}
	voter, err := s.voter(principal)
	if err != nil {
		return err
	}

	err = s.db.Tx(ctx, func(q *database.Queries) error {
		meeting, err := openMeeting(ctx, q, principal.ClubID, req.MeetingNumber)
		if err != nil {
			return err
		}

		for category, contactID := range req.Awards {
			existing, err := q.GetAwardVote(ctx, meeting.ID, voter, category)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			if contactID == nil {
				if existing != nil {
					if err = q.DeleteVote(ctx, existing.ID); err != nil {
						return err
					}
				}
				continue
			}

			if err = s.checkCandidate(ctx, q, *meeting, category, *contactID); err != nil {
				return err
			}
			if existing == nil {
				if _, err = q.InsertVote(ctx, database.Vote{
					MeetingID:     meeting.ID,
					Voter:         voter,
					AwardCategory: &category,
					ContactID:     contactID,
				}); err != nil {
					return err
				}
				continue
			}
			if existing.ContactID == nil || *existing.ContactID != *contactID {
				if err = q.UpdateVoteContact(ctx, existing.ID, *contactID, time.Now()); err != nil {
					return err
				}
			}
		}

		for _, answer := range req.Answers {
			question := strings.TrimSpace(answer.Question)
			if err = q.UpsertQuestionVote(ctx, database.Vote{
				MeetingID: meeting.ID,
				Voter:     voter,
				Question:  &question,
				Score:     answer.Score,
				Comment:   answer.Comment,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.Vote("batch")
	return nil
}

// voter returns the ballot identity of the principal and throttles anonymous voters.
func (s *Service) voter(principal auth.Principal) (string, error) {
	voter := principal.Voter()
	if voter == "" {
		return "", apperr.New(apperr.KindUnauthorized, "voting requires a session")
	}
	if !principal.IsAuthenticated() && !s.limiter.allow(voter) {
		return "", apperr.New(apperr.KindTooManyRequests, "too many ballots, try again later")
	}
	return voter, nil
}

func (s *Service) checkCandidate(ctx context.Context, q *database.Queries, meeting database.Meeting, category database.AwardCategory, contactID int) error {
	candidates, err := s.Candidates(ctx, q, meeting)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(candidates[category], func(c Candidate) bool {
		return c.ContactID == contactID
	}) {
		return apperr.Validation("contact %d is not eligible for the %s award", contactID, category)
	}
	return nil
}

func meetingByNumber(ctx context.Context, q *database.Queries, clubID int, number int) (*database.Meeting, error) {
	meeting, err := q.GetMeetingByNumber(ctx, clubID, number)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "meeting %d not found", number)
	}
	return meeting, nil
}

// openMeeting returns a meeting that accepts ballots.
func openMeeting(ctx context.Context, q *database.Queries, clubID int, number int) (*database.Meeting, error) {
	meeting, err := meetingByNumber(ctx, q, clubID, number)
	if err != nil {
		return nil, err
	}
	if meeting.Status != database.MeetingStatusRunning {
		return nil, apperr.PreconditionFailed("voting is closed for meeting %d", number).With("status", meeting.Status)
	}
	return meeting, nil
}
