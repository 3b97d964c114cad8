package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/database"
)

func TestWriteZip(t *testing.T) {
	p := Project(sampleInput(database.MeetingStatusFinished))

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, p))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"agenda.csv", "speeches.csv", "roles.csv", "awards.csv"}, names)

	f, err := zr.Open("agenda.csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"2", "19:00", "Timer", "Timer", "Alice (PM2)", "1", "2", "", "false"}, records[2])
}

func TestTablesSkipAwardsForOpenMeetings(t *testing.T) {
	tables := Tables(Project(sampleInput(database.MeetingStatusRunning)))

	assert.NotContains(t, tables, "awards.csv")
	assert.Equal(t, []string{"speaker", "Prepared Speaker", "Carl, Bob"}, tables["roles.csv"][1])
}

func TestSheetValues(t *testing.T) {
	values := SheetValues(Project(sampleInput(database.MeetingStatusFinished)))

	assert.Equal(t, []any{"Meeting", 7, "Spring", ""}, values[0])
	assert.Equal(t, []any{"Word of the day", "", "Manager", "Mia"}, values[2])
	assert.Len(t, values, 4+5)
	assert.Equal(t, "Meeting 7", SheetTitle(7))
}

func TestDisabledSheets(t *testing.T) {
	sheets, err := NewSheets(t.Context(), SheetsConfig{})
	require.NoError(t, err)
	assert.False(t, sheets.Enabled())
}
