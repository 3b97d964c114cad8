package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	c, err := ParseClock("19:00")
	require.NoError(t, err)

	assert.Equal(t, "19:03", c.Add(3).String())
	assert.Equal(t, "00:10", c.Add(5*60+10).String())

	_, err = ParseClock("7pm")
	assert.Error(t, err)
}

func TestParseQuarter(t *testing.T) {
	now := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		value string
		want  Quarter
	}{
		{value: "q1-2026", want: Quarter{Year: 2026, Q: 1}},
		{value: "Q4-2025", want: Quarter{Year: 2025, Q: 4}},
		{value: "q5-2025", want: Quarter{Year: 2026, Q: 2}},
		{value: "", want: Quarter{Year: 2026, Q: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuarter(tt.value, now))
		})
	}
}

func TestQuarterRange(t *testing.T) {
	q := Quarter{Year: 2026, Q: 1}

	assert.Equal(t, "2026-01-01", FormatDate(q.Start()))
	assert.Equal(t, "2026-03-31", FormatDate(q.End()))
	assert.Equal(t, []Quarter{{2026, 1}, {2025, 4}}, q.Previous(2))
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("4380h")))
	assert.Equal(t, 4380*time.Hour, time.Duration(d))
}
