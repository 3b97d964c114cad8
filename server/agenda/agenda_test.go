package agenda

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/internal/omit"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/booking"
	"github.com/topi314/clubagenda/server/cache"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
	"github.com/topi314/clubagenda/server/metrics"
)

const keynoteTemplate = `Type,Title,Role,Owner,MinDuration,MaxDuration
Section,Opening,,,,
Role-based,Timer,Timer,Alice,1,2
Speech,Keynote,Keynote Speaker,,15,20
`

type fixture struct {
	db      *database.Database
	service *Service
	clubID  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.Open(t)
	c := cache.New(time.Minute)
	return &fixture{
		db:      db,
		service: New(db, booking.New(booking.Config{WaitlistCapacity: 4}, db, c, metrics.New()), c),
		clubID:  dbtest.Club(t, db, "Test Club"),
	}
}

func (f *fixture) upload(t *testing.T, meetingType string, content string) {
	t.Helper()
	_, err := f.service.UploadTemplate(context.Background(), f.clubID, meetingType, strings.NewReader(content))
	require.NoError(t, err)
}

func (f *fixture) create(t *testing.T, params CreateParams) *database.Meeting {
	t.Helper()
	meeting, err := f.service.Create(context.Background(), f.clubID, params)
	require.NoError(t, err)
	return meeting
}

func (f *fixture) admin() auth.Principal {
	userID := 1
	return auth.Principal{
		UserID: &userID,
		ClubID: f.clubID,
		Roles:  database.UserRoleAdmin,
	}
}

func (f *fixture) logs(t *testing.T, meetingID int) []database.SessionLogWithType {
	t.Helper()
	logs, err := f.db.GetSessionLogs(context.Background(), meetingID)
	require.NoError(t, err)
	return logs
}

func (f *fixture) ownerOf(t *testing.T, meetingID int, sessionLogID int) string {
	t.Helper()
	owners, err := f.db.GetOwnersByMeeting(context.Background(), meetingID)
	require.NoError(t, err)
	for _, owner := range owners {
		if owner.SessionLogID != nil && *owner.SessionLogID == sessionLogID {
			return owner.Contact.Name
		}
	}
	return ""
}

func startTimes(logs []database.SessionLogWithType) []string {
	times := make([]string, len(logs))
	for i, log := range logs {
		if log.StartTime != nil {
			times[i] = *log.StartTime
		}
	}
	return times
}

func TestCreateFromTemplate(t *testing.T) {
	f := newFixture(t)
	dbtest.Contact(t, f.db, f.clubID, "Alice", database.ContactTypeMember)
	f.upload(t, "Keynote Speech", keynoteTemplate)

	meeting := f.create(t, CreateParams{
		Number:    101,
		Type:      "Keynote Speech",
		Date:      "2026-02-05",
		StartTime: "19:00",
		GEMode:    database.GEModeTraditional,
	})
	assert.Equal(t, database.MeetingStatusUnpublished, meeting.Status)

	logs := f.logs(t, meeting.ID)
	require.Len(t, logs, 3)

	assert.True(t, logs[0].IsSection)
	assert.Nil(t, logs[0].StartTime)

	assert.Equal(t, 2, logs[1].SessionLog.Seq)
	assert.Equal(t, "Timer", logs[1].SessionLog.Title)
	assert.Equal(t, 2, logs[1].SessionLog.DurationMax)
	assert.Equal(t, "Alice", f.ownerOf(t, meeting.ID, logs[1].SessionLog.ID))

	assert.Equal(t, "Keynote", logs[2].SessionLog.Title)
	assert.Equal(t, 20, logs[2].SessionLog.DurationMax)
	assert.Empty(t, f.ownerOf(t, meeting.ID, logs[2].SessionLog.ID))

	assert.Equal(t, []string{"", "19:00", "19:03"}, startTimes(logs))
}

func TestCreateGEModeAffectsEvaluationBreaks(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "Evaluations", "Type,Title,Role,Owner,MinDuration,MaxDuration\n"+
		"Role-based,Evaluation,Individual Evaluator,,1,2\n"+
		"Role-based,Evaluation,Individual Evaluator,,1,2\n")

	distributed := f.create(t, CreateParams{
		Number:    1,
		Type:      "Evaluations",
		Date:      "2026-02-05",
		StartTime: "19:00",
		GEMode:    database.GEModeDistributed,
	})
	assert.Equal(t, []string{"19:00", "19:04"}, startTimes(f.logs(t, distributed.ID)))

	traditional := f.create(t, CreateParams{
		Number:    2,
		Type:      "Evaluations",
		Date:      "2026-02-12",
		StartTime: "19:00",
		GEMode:    database.GEModeTraditional,
	})
	assert.Equal(t, []string{"19:00", "19:03"}, startTimes(f.logs(t, traditional.ID)))
}

func TestCreateRewritesGEReport(t *testing.T) {
	f := newFixture(t)

	meeting := f.create(t, CreateParams{
		Number:    1,
		Type:      "Regular",
		Date:      "2026-02-05",
		StartTime: "19:00",
		GEMode:    database.GEModeDistributed,
	})

	var found bool
	for _, log := range f.logs(t, meeting.ID) {
		if log.SessionLog.Title == "General Evaluation Report" {
			found = true
			assert.Equal(t, 3, log.SessionLog.DurationMax)
		}
	}
	assert.True(t, found)
}

func TestCreateRewritesGEReportByTitle(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "Regular", `Type,Title,Role,Owner,MinDuration,MaxDuration
Role-based,General Evaluation Report,,,2,9
Role-based,GE Introduction,General Evaluator,,1,2
`)

	meeting := f.create(t, CreateParams{
		Number:    1,
		Type:      "Regular",
		Date:      "2026-02-05",
		StartTime: "19:00",
		GEMode:    database.GEModeTraditional,
	})

	logs := f.logs(t, meeting.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, 5, logs[0].SessionLog.DurationMax)
	assert.Equal(t, 2, logs[1].SessionLog.DurationMax)
}

func TestCreateSuspiciousDate(t *testing.T) {
	f := newFixture(t)
	f.create(t, CreateParams{Number: 10, Type: "Regular", Date: "2026-02-12", StartTime: "19:00"})

	params := CreateParams{Number: 11, Type: "Regular", Date: "2026-02-01", StartTime: "19:00"}
	_, err := f.service.Create(context.Background(), f.clubID, params)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, true, apperr.From(err).Metadata["suspicious_date"])

	params.IgnoreSuspiciousDate = true
	meeting := f.create(t, params)
	assert.Equal(t, "2026-02-01", meeting.Date)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		params CreateParams
	}{
		{name: "date", params: CreateParams{Number: 1, Type: "Regular", Date: "05.02.2026", StartTime: "19:00"}},
		{name: "time", params: CreateParams{Number: 1, Type: "Regular", Date: "2026-02-05", StartTime: "7pm"}},
		{name: "ge mode", params: CreateParams{Number: 1, Type: "Regular", Date: "2026-02-05", StartTime: "19:00", GEMode: 3}},
		{name: "type", params: CreateParams{Number: 1, Type: "Unknown", Date: "2026-02-05", StartTime: "19:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), f.clubID, tt.params)
			assert.True(t, apperr.Is(err, apperr.KindValidation), err)
		})
	}
}

func TestCreateDuplicateNumberRegenerates(t *testing.T) {
	f := newFixture(t)
	dbtest.Contact(t, f.db, f.clubID, "Alice", database.ContactTypeMember)
	f.upload(t, "Keynote Speech", keynoteTemplate)

	first := f.create(t, CreateParams{
		Number:    101,
		Type:      "Regular",
		Date:      "2026-02-05",
		StartTime: "19:00",
		Title:     "Spring Opening",
	})

	second := f.create(t, CreateParams{
		Number:    101,
		Type:      "Keynote Speech",
		Date:      "2026-02-05",
		StartTime: "19:00",
		GEMode:    database.GEModeDistributed,
		Title:     "Ignored",
	})
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Spring Opening", second.Title)
	assert.Equal(t, "Keynote Speech", second.Type)
	assert.Equal(t, database.GEModeDistributed, second.GEMode)

	logs := f.logs(t, second.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, "Alice", f.ownerOf(t, second.ID, logs[1].SessionLog.ID))

	owners, err := f.db.GetOwnersByMeeting(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestCreateRejectsFinishedMeeting(t *testing.T) {
	f := newFixture(t)
	meeting := f.create(t, CreateParams{Number: 1, Type: "Regular", Date: "2026-02-05", StartTime: "19:00"})
	require.NoError(t, f.db.UpdateMeetingStatus(context.Background(), meeting.ID, database.MeetingStatusFinished))

	_, err := f.service.Create(context.Background(), f.clubID, CreateParams{Number: 1, Type: "Regular", Date: "2026-02-05", StartTime: "19:00"})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
}

func TestCreateSeedsOfficers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := dbtest.Contact(t, f.db, f.clubID, "Bob", database.ContactTypeMember)
	_, err := f.db.InsertExcomm(ctx, f.clubID, "2026", map[string]int{"President": bob})
	require.NoError(t, err)

	meeting := f.create(t, CreateParams{Number: 1, Type: "Regular", Date: "2026-02-05", StartTime: "19:00"})

	var address int
	for _, log := range f.logs(t, meeting.ID) {
		if log.SessionLog.Title == "President's Address" {
			address = log.SessionLog.ID
		}
	}
	require.NotZero(t, address)
	assert.Equal(t, "Bob", f.ownerOf(t, meeting.ID, address))

	entry, err := f.db.GetRosterEntry(ctx, meeting.ID, bob)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, entry.OrderNumber, 1000)
	assert.Equal(t, database.TicketOfficer, entry.Ticket)
}

func TestTemplateExportRoundTrip(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		dbtest.Contact(t, f.db, f.clubID, name, database.ContactTypeMember)
	}
	rows, err := f.service.UploadTemplate(context.Background(), f.clubID, "Regular", strings.NewReader(
		"Type,Title,Role,Owner,MinDuration,MaxDuration\n"+
			"Section,Opening,,,,\n"+
			"Role-based,Timer,Timer,Alice,1,2\n"+
			"Speech,Prepared Speech,Prepared Speaker,Bob,5,7\n"+
			"Speech,Prepared Speech,Prepared Speaker,Carol,4,6\n"))
	require.NoError(t, err)

	f.create(t, CreateParams{Number: 7, Type: "Regular", Date: "2026-02-05", StartTime: "19:00"})

	exported, err := f.service.ExportTemplate(context.Background(), f.clubID, 7)
	require.NoError(t, err)
	require.Len(t, exported, len(rows))

	for i, row := range rows {
		assert.Equal(t, row.Title, exported[i].Title)
		assert.Equal(t, row.Owner, exported[i].Owner)
		assert.Equal(t, row.MinDuration, exported[i].MinDuration)
		assert.Equal(t, row.MaxDuration, exported[i].MaxDuration)
	}
}

func TestTemplatesPreferClubUploads(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "Regular", keynoteTemplate)

	templates, err := f.service.Templates(context.Background(), f.clubID)
	require.NoError(t, err)
	require.Len(t, templates, len(MeetingTypes))

	for _, template := range templates {
		if template.Type == "Regular" {
			assert.True(t, template.Custom)
			assert.Len(t, template.Rows, 3)
		}
	}
}

func TestUpdateReordersAndReleasesOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.Contact(t, f.db, f.clubID, "Alice", database.ContactTypeMember)
	f.upload(t, "Keynote Speech", keynoteTemplate)
	meeting := f.create(t, CreateParams{Number: 101, Type: "Keynote Speech", Date: "2026-02-05", StartTime: "19:00"})

	logs := f.logs(t, meeting.ID)
	timer, keynote := logs[1], logs[2]
	row := func(log database.SessionLogWithType) UpdateRow {
		id := log.SessionLog.ID
		return UpdateRow{
			ID:            &id,
			SessionTypeID: log.SessionLog.SessionTypeID,
			Title:         log.SessionLog.Title,
			DurationMin:   log.SessionLog.DurationMin,
			DurationMax:   log.SessionLog.DurationMax,
		}
	}

	_, err := f.service.Update(ctx, f.admin(), UpdateParams{
		Number:    101,
		StartTime: omit.New("18:30"),
		Rows:      omit.New([]UpdateRow{row(keynote), row(timer)}),
	})
	require.NoError(t, err)

	logs = f.logs(t, meeting.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, "Keynote", logs[0].SessionLog.Title)
	assert.Equal(t, []string{"18:30", "18:51"}, startTimes(logs))
	assert.Equal(t, "Alice", f.ownerOf(t, meeting.ID, timer.SessionLog.ID))

	_, err = f.service.Update(ctx, f.admin(), UpdateParams{
		Number: 101,
		Rows:   omit.New([]UpdateRow{row(keynote)}),
	})
	require.NoError(t, err)

	owners, err := f.db.GetOwnersByMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestUpdateRequiresManager(t *testing.T) {
	f := newFixture(t)
	meeting := f.create(t, CreateParams{Number: 1, Type: "Regular", Date: "2026-02-05", StartTime: "19:00"})

	contactID := dbtest.Contact(t, f.db, f.clubID, "Dave", database.ContactTypeMember)
	userID := 5
	member := auth.Principal{UserID: &userID, ContactID: &contactID, ClubID: f.clubID, Roles: database.UserRoleMember}

	_, err := f.service.Update(context.Background(), member, UpdateParams{Number: 1, Title: omit.New("Mine")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, f.db.UpdateMeetingStatus(context.Background(), meeting.ID, database.MeetingStatusFinished))
	_, err = f.service.Update(context.Background(), f.admin(), UpdateParams{Number: 1, Title: omit.New("Late")})
	assert.True(t, apperr.Is(err, apperr.KindPreconditionFailed))
}
