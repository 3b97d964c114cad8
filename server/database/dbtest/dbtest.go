// Package dbtest opens throwaway sqlite stores with the catalog seeded by the migrations.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/database"
)

func Open(t testing.TB) *database.Database {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := database.New(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		URL:    dsn,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func Club(t testing.TB, db *database.Database, name string) int {
	t.Helper()

	clubID, err := db.InsertClub(context.Background(), name)
	require.NoError(t, err)
	return clubID
}

// Contact creates a contact of the given type and adds it to the club.
func Contact(t testing.TB, db *database.Database, clubID int, name string, contactType database.ContactType) int {
	t.Helper()

	ctx := context.Background()
	contactID, err := db.InsertContact(ctx, database.Contact{
		Name: name,
		Type: contactType,
	})
	require.NoError(t, err)
	require.NoError(t, db.AddContactToClub(ctx, contactID, clubID))
	return contactID
}

// Meeting inserts a bare meeting without agenda rows.
func Meeting(t testing.TB, db *database.Database, clubID int, number int, date string, status database.MeetingStatus) *database.Meeting {
	t.Helper()

	ctx := context.Background()
	meetingID, err := db.InsertMeeting(ctx, database.Meeting{
		ClubID:    clubID,
		Number:    number,
		Date:      date,
		StartTime: "19:00",
		Type:      "Regular",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	meeting, err := db.GetMeeting(ctx, meetingID)
	require.NoError(t, err)
	return meeting
}

func SessionType(t testing.TB, db *database.Database, title string) database.SessionType {
	t.Helper()

	types, err := db.GetSessionTypes(context.Background(), 0)
	require.NoError(t, err)
	for _, sessionType := range types {
		if sessionType.Title == title {
			return sessionType
		}
	}
	t.Fatalf("session type %q not found", title)
	return database.SessionType{}
}

func Role(t testing.TB, db *database.Database, name string) database.Role {
	t.Helper()

	roles, err := db.GetRoles(context.Background(), 0)
	require.NoError(t, err)
	for _, role := range roles {
		if role.Name == name {
			return role
		}
	}
	t.Fatalf("role %q not found", name)
	return database.Role{}
}

// SessionLog appends an agenda row of the given session type to a meeting.
func SessionLog(t testing.TB, db *database.Database, meetingID int, seq int, sessionTypeTitle string) int {
	t.Helper()

	sessionType := SessionType(t, db, sessionTypeTitle)
	logID, err := db.InsertSessionLog(context.Background(), database.SessionLog{
		MeetingID:     meetingID,
		Seq:           seq,
		SessionTypeID: sessionType.ID,
		Title:         sessionType.Title,
		DurationMin:   sessionType.DurationMin,
		DurationMax:   sessionType.DurationMax,
	})
	require.NoError(t, err)
	return logID
}

// Owner binds a contact to a role of a meeting. sessionLogID is nil for shared roles, which are matched by position.
func Owner(t testing.TB, db *database.Database, meetingID int, roleName string, contactID int, sessionLogID *int, position int) {
	t.Helper()

	_, err := db.InsertOwner(context.Background(), database.OwnerMeetingRole{
		ContactID:    contactID,
		MeetingID:    meetingID,
		RoleID:       Role(t, db, roleName).ID,
		SessionLogID: sessionLogID,
		Position:     position,
	})
	require.NoError(t, err)
}
