package loads

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agrilogix/crateflow-backend/pkg/enums"
)

// ClassifyOnTime compares an actual time to a scheduled one. Within the
// window on either side counts as on time; at or beyond the window early or
// late yields "early" or "delayed".
func ClassifyOnTime(scheduled, actual time.Time, window time.Duration) enums.OnTimeStatus {
	delta := actual.Sub(scheduled)
	switch {
	case delta <= -window:
		return enums.OnTimeStatusEarly
	case delta >= window:
		return enums.OnTimeStatusDelayed
	default:
		return enums.OnTimeStatusOnTime
	}
}

// OvertimeMinutes returns max(0, actual - expected) in whole minutes.
func OvertimeMinutes(expected, actual time.Time) int {
	delta := actual.Sub(expected)
	if delta <= 0 {
		return 0
	}
	return int(delta / time.Minute)
}

// CombineDateAndClock anchors an "HH:MM" clock value onto the given date in
// the date's location. Used for the fixed farm waypoint expectations.
func CombineDateAndClock(date time.Time, clock string) (time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid clock value %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in clock value %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in clock value %q", clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
