package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
)

func TestMigrationsSeedCatalog(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	paths, err := db.GetPaths(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, paths)

	pm, err := db.GetPathByName(ctx, "Presentation Mastery")
	require.NoError(t, err)
	assert.Equal(t, "PM", pm.Abbr)

	projects, err := db.GetPathwayProjects(ctx, pm.ID)
	require.NoError(t, err)
	require.NotEmpty(t, projects)
	assert.Equal(t, "PM1.1", projects[0].DisplayCode())

	speaker := dbtest.Role(t, db, "Prepared Speaker")
	assert.False(t, speaker.HasSingleOwner)
	assert.Equal(t, database.AwardCategorySpeaker, speaker.AwardCategory)
}

func TestOwnerUniquePerContactMeetingRole(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	contactID := dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember)
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	timer := dbtest.Role(t, db, "Timer")
	logID := dbtest.SessionLog(t, db, meeting.ID, 1, "Timer")

	_, err := db.InsertOwner(ctx, database.OwnerMeetingRole{
		ContactID:    contactID,
		MeetingID:    meeting.ID,
		RoleID:       timer.ID,
		SessionLogID: &logID,
	})
	require.NoError(t, err)

	_, err = db.InsertOwner(ctx, database.OwnerMeetingRole{
		ContactID:    contactID,
		MeetingID:    meeting.ID,
		RoleID:       timer.ID,
		SessionLogID: &logID,
	})
	assert.Error(t, err)

	owners, err := db.GetRoleOwners(ctx, meeting.ID, timer.ID)
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestSetHomeClub(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	first := dbtest.Club(t, db, "First")
	second := dbtest.Club(t, db, "Second")
	userID, err := db.InsertUser(ctx, database.User{Username: "alice"})
	require.NoError(t, err)

	require.NoError(t, db.InsertUserClub(ctx, database.UserClub{UserID: userID, ClubID: first, Roles: database.UserRoleMember}))
	require.NoError(t, db.InsertUserClub(ctx, database.UserClub{UserID: userID, ClubID: second, Roles: database.UserRoleMember}))

	homes := func() []int {
		clubs, err := db.GetUserClubs(ctx, userID)
		require.NoError(t, err)
		var ids []int
		for _, club := range clubs {
			if club.IsHome {
				ids = append(ids, club.ClubID)
			}
		}
		return ids
	}
	assert.Equal(t, []int{first}, homes())

	require.NoError(t, db.Tx(ctx, func(q *database.Queries) error {
		return q.SetHomeClub(ctx, userID, second)
	}))
	assert.Equal(t, []int{second}, homes())
}

func TestNextRosterOrderNumber(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)

	next, err := db.NextRosterOrderNumber(ctx, meeting.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	next, err = db.NextRosterOrderNumber(ctx, meeting.ID, true)
	require.NoError(t, err)
	assert.Equal(t, database.RosterOfficerBand, next)

	officer := dbtest.Contact(t, db, clubID, "Olivia", database.ContactTypeOfficer)
	_, err = db.InsertRosterEntry(ctx, database.RosterEntry{
		MeetingID:   meeting.ID,
		ContactID:   officer,
		Ticket:      database.TicketOfficer,
		OrderNumber: database.RosterOfficerBand,
	})
	require.NoError(t, err)

	next, err = db.NextRosterOrderNumber(ctx, meeting.ID, true)
	require.NoError(t, err)
	assert.Equal(t, database.RosterOfficerBand+1, next)

	next, err = db.NextRosterOrderNumber(ctx, meeting.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestTxRollbackSkipsHooks(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	var ran bool
	err := db.Tx(ctx, func(q *database.Queries) error {
		if _, err := q.InsertClub(ctx, "Rolled Back"); err != nil {
			return err
		}
		q.OnCommit(func() { ran = true })
		return sql.ErrTxDone
	})
	assert.ErrorIs(t, err, sql.ErrTxDone)
	assert.False(t, ran)

	clubs, err := db.GetClubs(ctx)
	require.NoError(t, err)
	assert.Empty(t, clubs)

	err = db.Tx(ctx, func(q *database.Queries) error {
		q.OnCommit(func() { ran = true })
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestInsertAchievementIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	contactID := dbtest.Contact(t, db, clubID, "Alice", database.ContactTypeMember)

	achievement := database.Achievement{
		ContactID: contactID,
		Kind:      database.AchievementKindLevel,
		PathName:  "Presentation Mastery",
		Level:     1,
		IssuedAt:  time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
	}
	created, err := db.InsertAchievement(ctx, achievement)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.InsertAchievement(ctx, achievement)
	require.NoError(t, err)
	assert.False(t, created)
}
