package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/topi314/clubagenda/internal/tsync"
	"github.com/topi314/clubagenda/internal/xerrors"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/meeting"
	"github.com/topi314/clubagenda/server/voting"
)

func New(db *database.Database, sheets *Sheets) *Service {
	return &Service{
		db:     db,
		sheets: sheets,
	}
}

type Service struct {
	db     *database.Database
	sheets *Sheets
}

// Load builds the projection of a meeting visible to the principal.
func (s *Service) Load(ctx context.Context, principal auth.Principal, number int) (*Projection, error) {
	m, err := s.db.GetMeetingByNumber(ctx, principal.ClubID, number)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "meeting %d not found", number)
	}
	if err = meeting.CheckVisible(principal, *m); err != nil {
		return nil, err
	}

	in := Input{Meeting: *m}
	if voter := principal.Voter(); voter != "" && m.Status != database.MeetingStatusFinished {
		votes, err := s.db.GetVoterVotes(ctx, m.ID, voter)
		if err != nil {
			return nil, err
		}
		in.Ballot = voting.NewBallot(votes).Awards
	}

	g := tsync.NewGroup(4)
	tsync.Load(g, &in.Logs, func() ([]database.SessionLogWithType, error) {
		return s.db.GetSessionLogs(ctx, m.ID)
	})
	tsync.Load(g, &in.Owners, func() ([]database.OwnerWithContact, error) {
		return s.db.GetOwnersByMeeting(ctx, m.ID)
	})
	tsync.Load(g, &in.Roles, func() ([]database.Role, error) {
		return s.db.GetRoles(ctx, m.ClubID)
	})
	tsync.Load(g, &in.Roster, func() ([]database.RosterEntryWithContact, error) {
		return s.db.GetRoster(ctx, m.ID)
	})
	tsync.Load(g, &in.Contacts, func() (map[int]database.Contact, error) {
		return s.db.GetContactsByIDs(ctx, referencedContacts(*m, in.Ballot))
	})
	if err = g.Wait(); err != nil {
		errs := xerrors.Unwrap(err)
		for _, loadErr := range errs[1:] {
			slog.ErrorContext(ctx, "Failed to load meeting part", slog.Int("meeting_number", number), slog.Any("err", loadErr))
		}
		return nil, fmt.Errorf("failed to load meeting %d: %w", number, errs[0])
	}

	p := Project(in)
	return &p, nil
}

// PushSheet writes the projection of a meeting into its own sheet and returns the written range.
func (s *Service) PushSheet(ctx context.Context, principal auth.Principal, number int) (string, error) {
	if !s.sheets.Enabled() {
		return "", apperr.PreconditionFailed("spreadsheet export is disabled")
	}
	if !principal.IsAdmin() {
		return "", apperr.Forbidden("only admins can export to spreadsheets")
	}

	p, err := s.Load(ctx, principal, number)
	if err != nil {
		return "", err
	}

	updated, err := s.sheets.Write(ctx, *p)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Exported meeting to spreadsheet", slog.Int("meeting_number", number), slog.String("range", updated))
	return updated, nil
}

func referencedContacts(m database.Meeting, ballot map[database.AwardCategory]int) []int {
	var ids []int
	if m.ManagerID != nil {
		ids = append(ids, *m.ManagerID)
	}
	for _, category := range database.AwardCategories {
		if id := m.BestOf(category); id != nil {
			ids = append(ids, *id)
		}
		if id, ok := ballot[category]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
