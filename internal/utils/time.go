package utils

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

const clockLayout = "15:04"

// ParseClock parses "H:MM" or "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	clock = strings.TrimSpace(clock)
	if len(clock) == 4 {
		clock = "0" + clock
	}
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid time %q, expected HH:MM", clock))
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockOnDay returns the wall-clock time on day's calendar date, in day's
// location.
func ClockOnDay(day time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, day.Location()), nil
}
