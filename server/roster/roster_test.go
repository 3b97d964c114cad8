package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
)

func TestTicketFor(t *testing.T) {
	assert.Equal(t, database.TicketOfficer, TicketFor(database.ContactTypeOfficer, false))
	assert.Equal(t, database.TicketOfficer, TicketFor(database.ContactTypeMember, true))
	assert.Equal(t, database.TicketEarlyBirdMember, TicketFor(database.ContactTypeMember, false))
	assert.Equal(t, database.TicketEarlyBirdGuest, TicketFor(database.ContactTypeGuest, false))
	assert.Equal(t, database.TicketEarlyBirdGuest, TicketFor(database.ContactTypePastMember, false))
}

func TestSyncRoleAssignment(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	guest := dbtest.Contact(t, db, clubID, "Gary", database.ContactTypeGuest)
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	timer := dbtest.Role(t, db, "Timer")

	require.NoError(t, SyncRoleAssignment(ctx, db.Queries, meeting.ID, guest, timer.ID, OpAssign))

	entries, err := New(db).List(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, database.TicketEarlyBirdGuest, entries[0].Ticket)
	assert.Equal(t, 1, entries[0].OrderNumber)
	assert.Equal(t, []int{timer.ID}, entries[0].RoleIDs)

	require.NoError(t, SyncRoleAssignment(ctx, db.Queries, meeting.ID, guest, timer.ID, OpUnassign))

	entries, err = New(db).List(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].RoleIDs)
}

func TestSeedOfficersUsesOfficerBand(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusUnpublished)
	president := dbtest.Contact(t, db, clubID, "Paula", database.ContactTypeMember)
	vpe := dbtest.Contact(t, db, clubID, "Victor", database.ContactTypeMember)
	member := dbtest.Contact(t, db, clubID, "Mia", database.ContactTypeMember)

	contacts, err := db.GetContactsByIDs(ctx, []int{president, vpe})
	require.NoError(t, err)
	require.NoError(t, SeedOfficers(ctx, db.Queries, meeting.ID, []database.Contact{contacts[president], contacts[vpe]}))

	s := New(db)
	_, err = s.Add(ctx, meeting.ID, member, "")
	require.NoError(t, err)

	entries, err := s.List(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, member, entries[0].ContactID)
	assert.Equal(t, 1, entries[0].OrderNumber)
	assert.Equal(t, database.TicketEarlyBirdMember, entries[0].Ticket)

	assert.Equal(t, 1000, entries[1].OrderNumber)
	assert.Equal(t, 1001, entries[2].OrderNumber)
	assert.Equal(t, database.TicketOfficer, entries[1].Ticket)
}

func TestAddStopsBeforeOfficerBand(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	last := dbtest.Contact(t, db, clubID, "Lars", database.ContactTypeMember)
	late := dbtest.Contact(t, db, clubID, "Lena", database.ContactTypeMember)

	_, err := db.InsertRosterEntry(ctx, database.RosterEntry{
		MeetingID:   meeting.ID,
		ContactID:   last,
		Ticket:      database.TicketEarlyBirdMember,
		OrderNumber: database.RosterOfficerBand - 1,
	})
	require.NoError(t, err)

	_, err = New(db).Add(ctx, meeting.ID, late, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = db.GetRosterEntry(ctx, meeting.ID, late)
	assert.Error(t, err)
}

func TestAddRejectsActiveDuplicate(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	member := dbtest.Contact(t, db, clubID, "Mia", database.ContactTypeMember)

	s := New(db)
	entry, err := s.Add(ctx, meeting.ID, member, "")
	require.NoError(t, err)

	_, err = s.Add(ctx, meeting.ID, member, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, s.Remove(ctx, meeting.ID, entry.ID, false))

	readded, err := s.Add(ctx, meeting.ID, member, database.TicketRoleTaker)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, readded.ID)
	assert.Equal(t, database.TicketRoleTaker, readded.Ticket)
}

func TestRemove(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusNotStarted)
	a := dbtest.Contact(t, db, clubID, "A", database.ContactTypeMember)
	b := dbtest.Contact(t, db, clubID, "B", database.ContactTypeGuest)

	s := New(db)
	entryA, err := s.Add(ctx, meeting.ID, a, "")
	require.NoError(t, err)
	entryB, err := s.Add(ctx, meeting.ID, b, "")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, meeting.ID, entryA.ID, false))
	require.NoError(t, s.Remove(ctx, meeting.ID, entryB.ID, true))

	entries, err := s.List(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, database.TicketCancelled, entries[0].Ticket)

	err = s.Remove(ctx, meeting.ID, entryB.ID, true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLuckyDraw(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	clubID := dbtest.Club(t, db, "Test Club")
	meeting := dbtest.Meeting(t, db, clubID, 1, "2026-02-05", database.MeetingStatusRunning)
	officer := dbtest.Contact(t, db, clubID, "Olivia", database.ContactTypeOfficer)
	member := dbtest.Contact(t, db, clubID, "Mia", database.ContactTypeMember)
	cancelled := dbtest.Contact(t, db, clubID, "Carl", database.ContactTypeMember)

	s := New(db)
	for _, contactID := range []int{officer, member, cancelled} {
		_, err := s.Add(ctx, meeting.ID, contactID, "")
		require.NoError(t, err)
	}
	entry, err := db.GetRosterEntry(ctx, meeting.ID, cancelled)
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, meeting.ID, entry.ID, false))

	winners, err := s.LuckyDraw(ctx, meeting.ID, 5, true)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, member, winners[0].ContactID)

	winners, err = s.LuckyDraw(ctx, meeting.ID, 5, false)
	require.NoError(t, err)
	assert.Len(t, winners, 2)

	_, err = s.LuckyDraw(ctx, meeting.ID, 0, false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
