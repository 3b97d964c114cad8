package agenda

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	rows, err := ParseTemplate(strings.NewReader("Type,Title,Role,Owner,MinDuration,MaxDuration\n" +
		"Section,Opening,,,,\n" +
		",,,,,\n" +
		"Role-based,Timer,Timer,Alice,1,2\n" +
		"Speech,Keynote,Keynote Speaker\n"))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].IsSection())
	assert.Nil(t, rows[0].MinDuration)
	assert.Nil(t, rows[0].MaxDuration)

	assert.Equal(t, "Alice", rows[1].Owner)
	require.NotNil(t, rows[1].MaxDuration)
	assert.Equal(t, 2, *rows[1].MaxDuration)

	assert.Equal(t, "Keynote Speaker", rows[2].Role)
	assert.Nil(t, rows[2].MaxDuration)
}

func TestParseTemplateErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing title", input: "header\nSection,,,,,\n"},
		{name: "bad duration", input: "header\nRole-based,Timer,Timer,,one,2\n"},
		{name: "negative duration", input: "header\nRole-based,Timer,Timer,,1,-2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	rows, ok, err := DefaultTemplate("Regular")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, rows)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteTemplate(buf, rows))

	parsed, err := ParseTemplate(buf)
	require.NoError(t, err)
	assert.Equal(t, rows, parsed)
}

func TestDefaultTemplates(t *testing.T) {
	for _, meetingType := range MeetingTypes {
		rows, ok, err := DefaultTemplate(meetingType)
		require.NoError(t, err, meetingType)
		assert.True(t, ok, meetingType)
		assert.NotEmpty(t, rows, meetingType)
	}

	_, ok, err := DefaultTemplate("Unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}
