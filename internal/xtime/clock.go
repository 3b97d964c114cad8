package xtime

import (
	"fmt"
	"time"
)

const ClockLayout = "15:04"

// Clock is a wall clock time of day in minutes since midnight.
type Clock int

func ParseClock(value string) (Clock, error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// Add advances the clock, wrapping at midnight.
func (c Clock) Add(minutes int) Clock {
	return Clock(((int(c)+minutes)%(24*60) + 24*60) % (24 * 60))
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
