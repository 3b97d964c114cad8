// Package agenda builds meetings and their ordered session rows from templates.
package agenda

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/topi314/clubagenda/internal/omit"
	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/booking"
	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/roster"
)

const genericSessionType = "Generic"

func New(db *database.Database, booking *booking.Service, cache *cache.Cache) *Service {
	return &Service{
		db:      db,
		booking: booking,
		cache:   cache,
	}
}

type Service struct {
	db      *database.Database
	booking *booking.Service
	cache   *cache.Cache
}

type CreateParams struct {
	Number               int
	Type                 string
	Date                 string
	StartTime            string
	GEMode               database.GEMode
	Title                string
	Subtitle             string
	WOD                  string
	MediaURL             string
	IgnoreSuspiciousDate bool
}

func (p CreateParams) validate() error {
	if p.Number <= 0 {
		return apperr.Validation("meeting number must be positive")
	}
	if _, err := xtime.ParseDate(p.Date); err != nil {
		return apperr.Validation("%s", err)
	}
	if _, err := xtime.ParseClock(p.StartTime); err != nil {
		return apperr.Validation("%s", err)
	}
	if p.GEMode != database.GEModeTraditional && p.GEMode != database.GEModeDistributed {
		return apperr.Validation("invalid ge mode %d", p.GEMode)
	}
	return nil
}

// Create builds a meeting from the template of its type. Creating an existing meeting number regenerates its agenda
// and keeps its other attributes.
func (s *Service) Create(ctx context.Context, clubID int, params CreateParams) (*database.Meeting, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	var meeting *database.Meeting
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		rows, err := loadTemplate(ctx, q, clubID, params.Type)
		if err != nil {
			return err
		}

		meeting, err = q.GetMeetingByNumber(ctx, clubID, params.Number)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if meeting != nil {
			if err = s.resetAgenda(ctx, q, meeting, params); err != nil {
				return err
			}
		} else {
			if meeting, err = s.insertMeeting(ctx, q, clubID, params); err != nil {
				return err
			}
		}

		if err = s.build(ctx, q, *meeting, rows); err != nil {
			return err
		}

		q.OnCommit(func() {
			s.cache.InvalidateMeeting(clubID, meeting.ID)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Created meeting agenda", slog.Int("club_id", clubID), slog.Int("meeting_number", meeting.Number), slog.String("type", meeting.Type))
	return meeting, nil
}

func (s *Service) insertMeeting(ctx context.Context, q *database.Queries, clubID int, params CreateParams) (*database.Meeting, error) {
	latest, ok, err := q.GetLatestMeetingDate(ctx, clubID, params.Number)
	if err != nil {
		return nil, err
	}
	if ok && params.Date < latest && !params.IgnoreSuspiciousDate {
		return nil, apperr.Conflict("meeting date %s is earlier than the latest meeting on %s", params.Date, latest).
			With("suspicious_date", true)
	}

	club, err := q.GetClub(ctx, clubID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "club %d not found", clubID)
	}

	meeting := database.Meeting{
		ClubID:    clubID,
		Number:    params.Number,
		Date:      params.Date,
		StartTime: params.StartTime,
		Type:      params.Type,
		GEMode:    params.GEMode,
		Title:     params.Title,
		Subtitle:  params.Subtitle,
		WOD:       params.WOD,
		Status:    database.MeetingStatusUnpublished,
		ExcommID:  club.CurrentExcommID,
		MediaURL:  params.MediaURL,
	}
	meeting.ID, err = q.InsertMeeting(ctx, meeting)
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// resetAgenda drops the rows, owners and waitlists of an existing meeting before it is rebuilt.
func (s *Service) resetAgenda(ctx context.Context, q *database.Queries, meeting *database.Meeting, params CreateParams) error {
	if meeting.Status == database.MeetingStatusFinished {
		return apperr.PreconditionFailed("meeting %d is finished", meeting.Number).With("status", meeting.Status)
	}

	owners, err := q.GetOwnersByMeeting(ctx, meeting.ID)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		contactID := owner.OwnerMeetingRole.ContactID
		if err = roster.SyncRoleAssignment(ctx, q, meeting.ID, contactID, owner.RoleID, roster.OpUnassign); err != nil {
			return err
		}
		if err = q.UpdatePlanStatus(ctx, contactID, meeting.ID, owner.RoleID, database.PlanStatusPlanned); err != nil {
			return err
		}
	}
	if err = q.DeleteSessionLogs(ctx, meeting.ID); err != nil {
		return err
	}

	meeting.Type = params.Type
	meeting.GEMode = params.GEMode
	return q.UpdateMeetingAttributes(ctx, *meeting)
}

func loadTemplate(ctx context.Context, q *database.Queries, clubID int, meetingType string) ([]TemplateRow, error) {
	template, err := q.GetMeetingTemplate(ctx, clubID, meetingType)
	if err == nil {
		rows, err := ParseTemplate(strings.NewReader(template.Content))
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "stored template is invalid", err)
		}
		return rows, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, ok, err := DefaultTemplate(meetingType)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("unknown meeting type %q", meetingType)
	}
	return rows, nil
}

// build inserts the rows of a template, seeds the roster with the current officers and binds the row owners.
func (s *Service) build(ctx context.Context, q *database.Queries, meeting database.Meeting, rows []TemplateRow) error {
	sessionTypes, err := q.GetSessionTypes(ctx, meeting.ClubID)
	if err != nil {
		return err
	}
	roles, err := q.GetRoles(ctx, meeting.ClubID)
	if err != nil {
		return err
	}
	officers, err := loadOfficers(ctx, q, meeting)
	if err != nil {
		return err
	}

	type binding struct {
		logID      int
		contactIDs []int
	}
	var bindings []binding
	sharedIndex := make(map[int]int)

	for i, row := range rows {
		sessionType := matchSessionType(sessionTypes, roles, row)
		role := roleByID(roles, sessionType.RoleID)

		minDuration, maxDuration := sessionType.DurationMin, sessionType.DurationMax
		if row.MinDuration != nil {
			minDuration = *row.MinDuration
		}
		if row.MaxDuration != nil {
			maxDuration = *row.MaxDuration
		}
		if isGEReport(row.Title) {
			minDuration, maxDuration = geReportDurations(meeting.GEMode, minDuration)
		}

		logID, err := q.InsertSessionLog(ctx, database.SessionLog{
			MeetingID:     meeting.ID,
			Seq:           i + 1,
			SessionTypeID: sessionType.ID,
			Title:         row.Title,
			DurationMin:   minDuration,
			DurationMax:   maxDuration,
		})
		if err != nil {
			return err
		}
		if role == nil {
			continue
		}

		contactID, ok, err := templateOwner(ctx, q, meeting.ClubID, row, *role, officers)
		if err != nil {
			return err
		}
		if role.HasSingleOwner {
			if ok {
				bindings = append(bindings, binding{logID: logID, contactIDs: []int{contactID}})
			}
			continue
		}

		j, seen := sharedIndex[role.ID]
		if !seen {
			j = len(bindings)
			sharedIndex[role.ID] = j
			bindings = append(bindings, binding{logID: logID})
		}
		if ok {
			bindings[j].contactIDs = append(bindings[j].contactIDs, contactID)
		}
	}

	if err = RecomputeStartTimes(ctx, q, meeting); err != nil {
		return err
	}

	officerContacts := make([]database.Contact, 0, len(officers))
	for _, office := range catalog.ExcommOffices {
		if officer, ok := officers[office]; ok {
			officerContacts = append(officerContacts, officer)
		}
	}
	if err = roster.SeedOfficers(ctx, q, meeting.ID, officerContacts); err != nil {
		return err
	}

	for _, b := range bindings {
		if len(b.contactIDs) == 0 {
			continue
		}
		if err = s.booking.SetOwners(ctx, q, b.logID, b.contactIDs); err != nil {
			if apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindValidation) || apperr.Is(err, apperr.KindCapacityExceeded) {
				slog.WarnContext(ctx, "Skipped template owner", slog.Int("session_log_id", b.logID), slog.Any("err", err))
				continue
			}
			return err
		}
	}

	return nil
}

func loadOfficers(ctx context.Context, q *database.Queries, meeting database.Meeting) (map[string]database.Contact, error) {
	officers := make(map[string]database.Contact)
	if meeting.ExcommID == nil {
		return officers, nil
	}

	rows, err := q.GetExcommOfficers(ctx, *meeting.ExcommID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		officers[row.Office] = row.Contact
	}
	return officers, nil
}

// templateOwner resolves the owner of a template row: the named contact, or the officer holding the office.
func templateOwner(ctx context.Context, q *database.Queries, clubID int, row TemplateRow, role database.Role, officers map[string]database.Contact) (int, bool, error) {
	if row.Owner != "" {
		contact, err := q.GetClubContactByName(ctx, clubID, row.Owner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				slog.WarnContext(ctx, "Template owner not found", slog.String("owner", row.Owner), slog.String("title", row.Title))
				return 0, false, nil
			}
			return 0, false, err
		}
		return contact.ID, true, nil
	}

	if catalog.IsExcommOffice(role.Name) {
		if officer, ok := officers[role.Name]; ok {
			return officer.ID, true, nil
		}
	}
	return 0, false, nil
}

// matchSessionType picks the session type of a template row: sections and hidden rows by flag, then by title,
// then by role, falling back to the generic type.
func matchSessionType(sessionTypes []database.SessionType, roles []database.Role, row TemplateRow) database.SessionType {
	var generic database.SessionType
	for _, sessionType := range sessionTypes {
		if sessionType.Title == genericSessionType && generic.ID == 0 {
			generic = sessionType
		}
		if row.IsSection() && sessionType.IsSection {
			return sessionType
		}
		if row.IsHidden() && sessionType.IsHidden {
			return sessionType
		}
	}
	if row.IsSection() || row.IsHidden() {
		return generic
	}

	for _, sessionType := range sessionTypes {
		if strings.EqualFold(sessionType.Title, row.Title) {
			return sessionType
		}
	}

	if row.Role != "" {
		for _, role := range roles {
			if !strings.EqualFold(role.Name, row.Role) {
				continue
			}
			for _, sessionType := range sessionTypes {
				if sessionType.RoleID != nil && *sessionType.RoleID == role.ID {
					return sessionType
				}
			}
		}
	}
	return generic
}

func roleByID(roles []database.Role, roleID *int) *database.Role {
	if roleID == nil {
		return nil
	}
	for _, role := range roles {
		if role.ID == *roleID {
			return &role
		}
	}
	return nil
}

// RecomputeStartTimes writes the start time of every row of a meeting.
func RecomputeStartTimes(ctx context.Context, q *database.Queries, meeting database.Meeting) error {
	start, err := xtime.ParseClock(meeting.StartTime)
	if err != nil {
		return apperr.Validation("%s", err)
	}
	logs, err := q.GetSessionLogs(ctx, meeting.ID)
	if err != nil {
		return err
	}
	roles, err := q.GetRoles(ctx, meeting.ClubID)
	if err != nil {
		return err
	}

	rows := make([]Timed, len(logs))
	for i, log := range logs {
		rows[i] = Timed{
			Untimed:     log.IsSection || log.IsHidden,
			MaxDuration: log.SessionLog.DurationMax,
			Evaluation:  catalog.IsEvaluation(log.SessionLog.Title, roleByID(roles, log.RoleID)),
		}
	}

	for i, at := range StartTimes(start, meeting.GEMode, rows) {
		var startTime *string
		if at != nil {
			value := at.String()
			startTime = &value
		}

		current := logs[i].StartTime
		if (current == nil && startTime == nil) || (current != nil && startTime != nil && *current == *startTime) {
			continue
		}
		if err = q.UpdateSessionLogStartTime(ctx, logs[i].SessionLog.ID, startTime); err != nil {
			return err
		}
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

type UpdateRow struct {
	ID            *int
	SessionTypeID int
	Title         string
	ProjectID     *int
	DurationMin   int
	DurationMax   int
}

// UpdateParams carries a bulk agenda edit. Unset fields keep their value; Rows, when set, is the complete new
// agenda in order and rows missing from it are removed.
type UpdateParams struct {
	Number    int
	Date      omit.Omit[string]
	StartTime omit.Omit[string]
	GEMode    omit.Omit[database.GEMode]
	Title     omit.Omit[string]
	Subtitle  omit.Omit[string]
	WOD       omit.Omit[string]
	MediaURL  omit.Omit[string]
	ManagerID omit.Omit[*int]
	Rows      omit.Omit[[]UpdateRow]
}

func (s *Service) Update(ctx context.Context, principal auth.Principal, params UpdateParams) (*database.Meeting, error) {
	if params.Date.OK {
		if _, err := xtime.ParseDate(params.Date.Value); err != nil {
			return nil, apperr.Validation("%s", err)
		}
	}
	if params.StartTime.OK {
		if _, err := xtime.ParseClock(params.StartTime.Value); err != nil {
			return nil, apperr.Validation("%s", err)
		}
	}
	if params.GEMode.OK && params.GEMode.Value != database.GEModeTraditional && params.GEMode.Value != database.GEModeDistributed {
		return nil, apperr.Validation("invalid ge mode %d", params.GEMode.Value)
	}

	var meeting *database.Meeting
	err := s.db.Tx(ctx, func(q *database.Queries) error {
		var err error
		meeting, err = meetingByNumber(ctx, q, principal.ClubID, params.Number)
		if err != nil {
			return err
		}
		if !principal.CanManage(*meeting) {
			return apperr.Forbidden("you cannot edit meeting %d", meeting.Number)
		}
		if meeting.Status == database.MeetingStatusFinished {
			return apperr.PreconditionFailed("meeting %d is finished", meeting.Number).With("status", meeting.Status)
		}

		meeting.Date = params.Date.Or(meeting.Date)
		meeting.StartTime = params.StartTime.Or(meeting.StartTime)
		meeting.GEMode = params.GEMode.Or(meeting.GEMode)
		meeting.Title = params.Title.Or(meeting.Title)
		meeting.Subtitle = params.Subtitle.Or(meeting.Subtitle)
		meeting.WOD = params.WOD.Or(meeting.WOD)
		meeting.MediaURL = params.MediaURL.Or(meeting.MediaURL)
		meeting.ManagerID = params.ManagerID.Or(meeting.ManagerID)
		if err = q.UpdateMeetingAttributes(ctx, *meeting); err != nil {
			return err
		}

		if params.Rows.OK {
			if err = s.updateRows(ctx, q, *meeting, params.Rows.Value); err != nil {
				return err
			}
		}

		if err = RecomputeStartTimes(ctx, q, *meeting); err != nil {
			return err
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
	return meeting, nil
}

func (s *Service) updateRows(ctx context.Context, q *database.Queries, meeting database.Meeting, rows []UpdateRow) error {
	logs, err := q.GetSessionLogs(ctx, meeting.ID)
	if err != nil {
		return err
	}
	roles, err := q.GetRoles(ctx, meeting.ClubID)
	if err != nil {
		return err
	}

	existing := make(map[int]database.SessionLogWithType, len(logs))
	for _, log := range logs {
		existing[log.SessionLog.ID] = log
	}

	kept := make(map[int]struct{})
	for _, row := range rows {
		if row.ID == nil {
			continue
		}
		if _, ok := existing[*row.ID]; !ok {
			return apperr.NotFound("session %d is not part of meeting %d", *row.ID, meeting.Number)
		}
		kept[*row.ID] = struct{}{}
	}

	// single owners are released before their row goes away so the roster follows
	for _, log := range logs {
		if _, ok := kept[log.SessionLog.ID]; ok {
			continue
		}
		if role := roleByID(roles, log.RoleID); role != nil && role.HasSingleOwner {
			if err = s.booking.SetOwners(ctx, q, log.SessionLog.ID, nil); err != nil {
				return err
			}
		}
		if err = q.DeleteSessionLog(ctx, log.SessionLog.ID); err != nil {
			return err
		}
	}

	for i, row := range rows {
		sessionType, err := q.GetSessionType(ctx, row.SessionTypeID)
		if err != nil {
			return apperr.NotFoundOr(err, "session type %d not found", row.SessionTypeID)
		}
		if sessionType.ClubID != nil && *sessionType.ClubID != meeting.ClubID {
			return apperr.NotFound("session type %d not found", row.SessionTypeID)
		}
		if row.DurationMin < 0 || row.DurationMax < 0 {
			return apperr.Validation("durations must not be negative")
		}

		log := database.SessionLog{
			MeetingID:     meeting.ID,
			Seq:           i + 1,
			SessionTypeID: sessionType.ID,
			ProjectID:     row.ProjectID,
			Title:         row.Title,
			DurationMin:   row.DurationMin,
			DurationMax:   row.DurationMax,
		}
		if log.Title == "" {
			log.Title = sessionType.Title
		}

		if row.ID == nil {
			if _, err = q.InsertSessionLog(ctx, log); err != nil {
				return err
			}
			continue
		}

		old := existing[*row.ID]
		if old.SessionTypeID != sessionType.ID {
			if role := roleByID(roles, old.RoleID); role != nil && role.HasSingleOwner {
				if err = s.booking.SetOwners(ctx, q, old.SessionLog.ID, nil); err != nil {
					return err
				}
			}
		}

		log.ID = old.SessionLog.ID
		log.Status = old.Status
		if err = q.UpdateSessionLog(ctx, log); err != nil {
			return err
		}
	}

	return s.booking.Reconcile(ctx, q, meeting)
}

type Template struct {
	Type   string        `json:"type"`
	Custom bool          `json:"custom"`
	Rows   []TemplateRow `json:"rows"`
}

// Templates lists the template of every known meeting type. Club uploads replace the built-in ones.
func (s *Service) Templates(ctx context.Context, clubID int) ([]Template, error) {
	custom, err := s.db.GetMeetingTemplates(ctx, clubID)
	if err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(MeetingTypes)+len(custom))
	seen := make(map[string]struct{})
	for _, t := range custom {
		rows, err := ParseTemplate(strings.NewReader(t.Content))
		if err != nil {
			slog.WarnContext(ctx, "Skipped invalid stored template", slog.Int("club_id", clubID), slog.String("type", t.Type), slog.Any("err", err))
			continue
		}
		templates = append(templates, Template{Type: t.Type, Custom: true, Rows: rows})
		seen[t.Type] = struct{}{}
	}

	for _, meetingType := range MeetingTypes {
		if _, ok := seen[meetingType]; ok {
			continue
		}
		rows, _, err := DefaultTemplate(meetingType)
		if err != nil {
			return nil, err
		}
		templates = append(templates, Template{Type: meetingType, Rows: rows})
	}
	return templates, nil
}

// UploadTemplate stores a club template for a meeting type after normalizing it.
func (s *Service) UploadTemplate(ctx context.Context, clubID int, meetingType string, r io.Reader) ([]TemplateRow, error) {
	meetingType = strings.TrimSpace(meetingType)
	if meetingType == "" {
		return nil, apperr.Validation("meeting type is required")
	}

	rows, err := ParseTemplate(r)
	if err != nil {
		return nil, apperr.Validation("%s", err)
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("template has no rows")
	}

	buf := &bytes.Buffer{}
	if err = WriteTemplate(buf, rows); err != nil {
		return nil, err
	}
	if err = s.db.UpsertMeetingTemplate(ctx, clubID, meetingType, buf.String()); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Uploaded meeting template", slog.Int("club_id", clubID), slog.String("type", meetingType), slog.Int("rows", len(rows)))
	return rows, nil
}

// ExportTemplate turns the agenda of a meeting back into template rows.
func (s *Service) ExportTemplate(ctx context.Context, clubID int, number int) ([]TemplateRow, error) {
	meeting, err := meetingByNumber(ctx, s.db.Queries, clubID, number)
	if err != nil {
		return nil, err
	}
	logs, err := s.db.GetSessionLogs(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	owners, err := s.db.GetOwnersByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	roles, err := s.db.GetRoles(ctx, clubID)
	if err != nil {
		return nil, err
	}

	rows := make([]TemplateRow, 0, len(logs))
	sharedSeen := make(map[int]int)
	for _, log := range logs {
		row := TemplateRow{
			Type:  "Session",
			Title: log.SessionLog.Title,
		}
		minDuration, maxDuration := log.SessionLog.DurationMin, log.SessionLog.DurationMax

		switch {
		case log.IsSection:
			row.Type = RowTypeSection
		case log.IsHidden:
			row.Type = RowTypeHidden
		}
		if (log.IsSection || log.IsHidden) && minDuration == 0 && maxDuration == 0 {
			rows = append(rows, row)
			continue
		}
		row.MinDuration = &minDuration
		row.MaxDuration = &maxDuration

		if role := roleByID(roles, log.RoleID); role != nil {
			row.Type = "Role-based"
			row.Role = role.Name
			row.Owner = exportOwner(owners, log, *role, sharedSeen)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func exportOwner(owners []database.OwnerWithContact, log database.SessionLogWithType, role database.Role, sharedSeen map[int]int) string {
	if role.HasSingleOwner {
		for _, owner := range owners {
			if owner.SessionLogID != nil && *owner.SessionLogID == log.SessionLog.ID {
				return owner.Contact.Name
			}
		}
		return ""
	}

	k := sharedSeen[role.ID]
	sharedSeen[role.ID] = k + 1
	for _, owner := range owners {
		if owner.RoleID == role.ID && owner.Position == k {
			return owner.Contact.Name
		}
	}
	return ""
}
