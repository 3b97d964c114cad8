package xquery

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	query := url.Values{
		"on":    {"on"},
		"off":   {"OFF"},
		"true":  {"true"},
		"bogus": {"maybe"},
	}

	assert.True(t, ParseBool(query, "on", false))
	assert.False(t, ParseBool(query, "off", true))
	assert.True(t, ParseBool(query, "true", false))
	assert.True(t, ParseBool(query, "bogus", true))
	assert.False(t, ParseBool(query, "missing", false))
}

func TestParseDate(t *testing.T) {
	query := url.Values{
		"good": {"2026-02-05"},
		"bad":  {"05.02.2026"},
	}

	assert.Equal(t, "2026-02-05", ParseDate(query, "good", ""))
	assert.Equal(t, "fallback", ParseDate(query, "bad", "fallback"))
}

func TestParseInt(t *testing.T) {
	query := url.Values{"meeting_number": {"101"}, "broken": {"x"}}

	assert.Equal(t, 101, ParseInt(query, "meeting_number", 0))
	assert.Equal(t, 7, ParseInt(query, "broken", 7))
}
