package xtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quarter is a calendar quarter such as "q1-2026".
type Quarter struct {
	Year int
	Q    int
}

func QuarterOf(t time.Time) Quarter {
	return Quarter{
		Year: t.Year(),
		Q:    (int(t.Month())-1)/3 + 1,
	}
}

// ParseQuarter parses values like "q1-2026". Invalid values fall back to the quarter containing now.
func ParseQuarter(value string, now time.Time) Quarter {
	quarter, year, ok := strings.Cut(strings.ToLower(value), "-")
	if !ok || len(quarter) != 2 || quarter[0] != 'q' {
		return QuarterOf(now)
	}

	q := int(quarter[1] - '0')
	y, err := strconv.Atoi(year)
	if err != nil || q < 1 || q > 4 {
		return QuarterOf(now)
	}
	return Quarter{Year: y, Q: q}
}

func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month((q.Q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the quarter.
func (q Quarter) End() time.Time {
	return q.Start().AddDate(0, 3, -1)
}

func (q Quarter) Value() string {
	return fmt.Sprintf("q%d-%d", q.Q, q.Year)
}

func (q Quarter) Name() string {
	return fmt.Sprintf("Q%d %d", q.Q, q.Year)
}

// Previous lists the n quarters before and including q, newest first.
func (q Quarter) Previous(n int) []Quarter {
	quarters := make([]Quarter, 0, n)
	for i := 0; i < n; i++ {
		quarters = append(quarters, q)
		q.Q--
		if q.Q == 0 {
			q.Q = 4
			q.Year--
		}
	}
	return quarters
}
