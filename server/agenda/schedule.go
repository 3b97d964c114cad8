package agenda

import (
	"strings"

	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/database"
)

const (
	geReportTitle          = "General Evaluation Report"
	geReportTraditionalMax = 5
	geReportDistributedMax = 3
)

// isGEReport reports whether a row is the general evaluation report, whose durations follow the GE mode.
func isGEReport(title string) bool {
	return strings.EqualFold(strings.TrimSpace(title), geReportTitle)
}

// Timed is the part of an agenda row the schedule depends on.
type Timed struct {
	Untimed     bool
	MaxDuration int
	Evaluation  bool
}

// StartTimes walks the rows from start. Untimed rows and rows without a max duration get no start time and do not
// advance the clock. Every other row is followed by a one minute break, two after evaluations in distributed mode.
func StartTimes(start xtime.Clock, mode database.GEMode, rows []Timed) []*xtime.Clock {
	times := make([]*xtime.Clock, len(rows))
	clock := start
	for i, row := range rows {
		if row.Untimed || row.MaxDuration <= 0 {
			continue
		}

		at := clock
		times[i] = &at

		breakMinutes := 1
		if row.Evaluation && mode == database.GEModeDistributed {
			breakMinutes++
		}
		clock = clock.Add(row.MaxDuration + breakMinutes)
	}
	return times
}

// geReportDurations rewrites the general evaluation report length from the evaluation mode.
func geReportDurations(mode database.GEMode, minDuration int) (int, int) {
	maxDuration := geReportTraditionalMax
	if mode == database.GEModeDistributed {
		maxDuration = geReportDistributedMax
	}
	return min(minDuration, maxDuration), maxDuration
}
