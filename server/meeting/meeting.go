// Package meeting drives the lifecycle of a meeting from unpublished to finished.
package meeting

import (
	"context"
	"log/slog"
	"slices"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/metrics"
	"github.com/topi314/clubagenda/server/notify"
	"github.com/topi314/clubagenda/server/progress"
	"github.com/topi314/clubagenda/server/voting"
)

type Action string

const (
	ActionAdvance Action = "advance"
	ActionReset   Action = "reset"
	ActionDelete  Action = "delete"
)

// StatusDeleted is reported once a meeting is gone.
const StatusDeleted database.MeetingStatus = "deleted"

type Request struct {
	Action        Action
	ConfirmDelete bool
}

type Result struct {
	Status       database.MeetingStatus `json:"status"`
	Achievements int                    `json:"achievements,omitempty"`
}

func New(cfg progress.Config, db *database.Database, cache *cache.Cache, metrics *metrics.Metrics, notifier *notify.Notifier) *Service {
	return &Service{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		metrics:  metrics,
		notifier: notifier,
		refresh:  progress.RefreshAll,
	}
}

type Service struct {
	cfg      progress.Config
	db       *database.Database
	cache    *cache.Cache
	metrics  *metrics.Metrics
	notifier *notify.Notifier
	refresh  func(ctx context.Context, q *database.Queries, cfg progress.Config, contactIDs []int) ([]database.Achievement, error)
}

// Get returns a meeting the principal may see. Unpublished meetings are limited to their admins.
func (s *Service) Get(ctx context.Context, principal auth.Principal, number int) (*database.Meeting, error) {
	meeting, err := s.db.GetMeetingByNumber(ctx, principal.ClubID, number)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "meeting %d not found", number)
	}
	if err = CheckVisible(principal, *meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

// CheckVisible rejects viewers of an unpublished meeting that cannot manage it.
func CheckVisible(principal auth.Principal, meeting database.Meeting) error {
	if meeting.Status != database.MeetingStatusUnpublished || principal.CanManage(meeting) {
		return nil
	}
	if !principal.IsAuthenticated() {
		return apperr.New(apperr.KindUnauthorized, "login required")
	}
	return apperr.Forbidden("meeting %d is not published yet", meeting.Number).With("status", meeting.Status)
}

// List returns the meetings of the principal's club, newest first, without unpublished ones for non admins.
func (s *Service) List(ctx context.Context, principal auth.Principal) ([]database.Meeting, error) {
	meetings, err := s.db.GetMeetings(ctx, principal.ClubID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(meetings, func(meeting database.Meeting) bool {
		return CheckVisible(principal, meeting) != nil
	}), nil
}

// Transition applies an admin state change to a meeting.
func (s *Service) Transition(ctx context.Context, principal auth.Principal, number int, req Request) (*Result, error) {
	var (
		result   *Result
		finished *database.Meeting
		winners  map[database.AwardCategory]string
	)
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		meeting, err := q.GetMeetingByNumber(ctx, principal.ClubID, number)
		if err != nil {
			return apperr.NotFoundOr(err, "meeting %d not found", number)
		}
		if !principal.CanManage(*meeting) {
			return apperr.Forbidden("you cannot change the status of meeting %d", number)
		}

		switch req.Action {
		case ActionAdvance:
			result, err = s.advance(ctx, q, meeting, req.ConfirmDelete)
		case ActionReset:
			if meeting.Status != database.MeetingStatusNotStarted {
				return notAllowed(*meeting, req.Action)
			}
			err = q.UpdateMeetingStatus(ctx, meeting.ID, database.MeetingStatusUnpublished)
			result = &Result{Status: database.MeetingStatusUnpublished}
		case ActionDelete:
			if meeting.Status != database.MeetingStatusFinished && meeting.Status != database.MeetingStatusUnpublished {
				return notAllowed(*meeting, req.Action)
			}
			err = s.delete(ctx, q, *meeting)
			result = &Result{Status: StatusDeleted}
		default:
			return apperr.Validation("unknown action %q", req.Action)
		}
		if err != nil {
			return err
		}

		if result.Status == database.MeetingStatusFinished {
			finished = meeting
			if winners, err = winnerNames(ctx, q, *meeting); err != nil {
				return err
			}
		}

		clubID, meetingID := meeting.ClubID, meeting.ID
		q.OnCommit(func() {
			s.cache.InvalidateMeeting(clubID, meetingID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(result.Status))
	s.metrics.Achievements(result.Achievements)
	slog.InfoContext(ctx, "Changed meeting status", slog.Int("club_id", principal.ClubID), slog.Int("meeting_number", number), slog.String("status", string(result.Status)))

	if finished != nil && s.notifier.Enabled() {
		if err = s.notifier.MeetingFinished(ctx, *finished, winners); err != nil {
			slog.ErrorContext(ctx, "Failed to send award notification", slog.Int("meeting_number", number), slog.Any("err", err))
		}
	}
	return result, nil
}

func (s *Service) advance(ctx context.Context, q *database.Queries, meeting *database.Meeting, confirmDelete bool) (*Result, error) {
	var next database.MeetingStatus
	switch meeting.Status {
	case database.MeetingStatusUnpublished:
		next = database.MeetingStatusNotStarted
	case database.MeetingStatusNotStarted:
		next = database.MeetingStatusRunning
	case database.MeetingStatusRunning:
		return s.finish(ctx, q, meeting)
	case database.MeetingStatusFinished:
		if !confirmDelete {
			return nil, apperr.PreconditionFailed("meeting %d is finished, advancing again deletes it and needs confirm_delete", meeting.Number).
				With("status", meeting.Status)
		}
		if err := s.delete(ctx, q, *meeting); err != nil {
			return nil, err
		}
		return &Result{Status: StatusDeleted}, nil
	default:
		return nil, notAllowed(*meeting, ActionAdvance)
	}

	if err := q.UpdateMeetingStatus(ctx, meeting.ID, next); err != nil {
		return nil, err
	}
	meeting.Status = next
	return &Result{Status: next}, nil
}

// finish closes voting, stores the awards and records the levels the owners completed with this meeting.
func (s *Service) finish(ctx context.Context, q *database.Queries, meeting *database.Meeting) (*Result, error) {
	votes, err := q.GetVotes(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	voting.ApplyTally(votes, meeting)
	if err = q.UpdateMeetingAwards(ctx, *meeting); err != nil {
		return nil, err
	}
	if err = q.UpdateMeetingStatus(ctx, meeting.ID, database.MeetingStatusFinished); err != nil {
		return nil, err
	}
	meeting.Status = database.MeetingStatusFinished

	owners, err := q.GetOwnersByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	var contactIDs []int
	for _, owner := range owners {
		if !slices.Contains(contactIDs, owner.OwnerMeetingRole.ContactID) {
			contactIDs = append(contactIDs, owner.OwnerMeetingRole.ContactID)
		}
	}

	achievements, err := s.refresh(ctx, q, s.cfg, contactIDs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:       database.MeetingStatusFinished,
		Achievements: len(achievements),
	}, nil
}

func (s *Service) delete(ctx context.Context, q *database.Queries, meeting database.Meeting) error {
	if err := q.DeleteMeeting(ctx, meeting.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Deleted meeting", slog.Int("club_id", meeting.ClubID), slog.Int("meeting_number", meeting.Number))
	return nil
}

func winnerNames(ctx context.Context, q *database.Queries, meeting database.Meeting) (map[database.AwardCategory]string, error) {
	ids := make(map[database.AwardCategory]int)
	var contactIDs []int
	for _, category := range database.AwardCategories {
		if contactID := meeting.BestOf(category); contactID != nil {
			ids[category] = *contactID
			contactIDs = append(contactIDs, *contactID)
		}
	}
	if len(contactIDs) == 0 {
		return nil, nil
	}

	contacts, err := q.GetContactsByIDs(ctx, contactIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[database.AwardCategory]string, len(ids))
	for category, contactID := range ids {
		names[category] = contacts[contactID].Name
	}
	return names, nil
}

func notAllowed(meeting database.Meeting, action Action) error {
	return apperr.PreconditionFailed("cannot %s meeting %d while it is %s", action, meeting.Number, meeting.Status).
		With("status", meeting.Status)
}
