package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "meeting_roles_1_42", MeetingRolesKey(1, 42))
	assert.Equal(t, "role_takers_1_42", RoleTakersKey(1, 42))
}

func TestLoadFillsOnce(t *testing.T) {
	c := New(time.Minute)

	calls := 0
	load := func() (int, error) {
		calls++
		return 7, nil
	}

	v, err := Load(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = Load(c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)

	_, err := Load(c, "k", func() (int, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidateMeeting(t *testing.T) {
	c := New(time.Minute)
	c.Set(MeetingRolesKey(1, 2), "roles")
	c.Set(RoleTakersKey(1, 2), "takers")
	c.Set(MeetingRolesKey(1, 3), "other")

	c.InvalidateMeeting(1, 2)

	_, ok := c.Get(MeetingRolesKey(1, 2))
	assert.False(t, ok)
	_, ok = c.Get(RoleTakersKey(1, 2))
	assert.False(t, ok)
	_, ok = c.Get(MeetingRolesKey(1, 3))
	assert.True(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New(time.Nanosecond)
	c.Set("k", 1)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
