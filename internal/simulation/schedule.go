package simulation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

const clockLayout = "15:04"

// ScheduleEntry sets a factor from TimeOfDay ("HH:MM") until the next entry.
type ScheduleEntry struct {
	TimeOfDay string
	Factor    float64
}

// Schedule is a cyclic time-of-day table for ISF or CR. The zero value is an
// empty schedule, which Resolve rejects.
type Schedule struct {
	entries []ScheduleEntry
}

// NewSchedule validates and sorts entries. Times are normalized to zero-padded
// HH:MM so lexical and chronological order agree.
func NewSchedule(entries []ScheduleEntry) (Schedule, error) {
	if len(entries) == 0 {
		return Schedule{}, apperrors.ErrEmptySchedule
	}

	normalized := make([]ScheduleEntry, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		clock, err := NormalizeClock(e.TimeOfDay)
		if err != nil {
			return Schedule{}, err
		}
		if e.Factor <= 0 {
			return Schedule{}, apperrors.NewValidationError(fmt.Sprintf("schedule factor at %s must be positive, got %v", clock, e.Factor))
		}
		if seen[clock] {
			return Schedule{}, apperrors.NewValidationError(fmt.Sprintf("duplicate schedule entry at %s", clock))
		}
		seen[clock] = true
		normalized = append(normalized, ScheduleEntry{TimeOfDay: clock, Factor: e.Factor})
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].TimeOfDay < normalized[j].TimeOfDay
	})
	return Schedule{entries: normalized}, nil
}

// MustSchedule is NewSchedule for literals known to be valid.
func MustSchedule(entries ...ScheduleEntry) Schedule {
	s, err := NewSchedule(entries)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSchedule reads the "HH:MM=factor,HH:MM=factor" form used in config.
func ParseSchedule(raw string) (Schedule, error) {
	var entries []ScheduleEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clock, value, ok := strings.Cut(part, "=")
		if !ok {
			return Schedule{}, apperrors.NewValidationError(fmt.Sprintf("schedule entry %q must look like HH:MM=factor", part))
		}
		factor, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Schedule{}, apperrors.NewValidationError(fmt.Sprintf("schedule entry %q has a bad factor", part))
		}
		entries = append(entries, ScheduleEntry{TimeOfDay: strings.TrimSpace(clock), Factor: factor})
	}
	return NewSchedule(entries)
}

// NormalizeClock parses "H:MM" or "HH:MM" and returns zero-padded "HH:MM".
func NormalizeClock(clock string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("time of day %q must be HH:MM (00:00-23:59)", clock))
	}
	return t.Format(clockLayout), nil
}

// Entries returns a copy of the sorted entries.
func (s Schedule) Entries() []ScheduleEntry {
	out := make([]ScheduleEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s Schedule) Len() int {
	return len(s.entries)
}

// String renders the schedule in the ParseSchedule form.
func (s Schedule) String() string {
	parts := make([]string, len(s.entries))
	for i, e := range s.entries {
		parts[i] = fmt.Sprintf("%s=%s", e.TimeOfDay, strconv.FormatFloat(e.Factor, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

// Resolve returns the factor in effect at instant's wall-clock time in its own
// location: the last entry at or before that time, or entry 0 when the time
// precedes every entry.
func (s Schedule) Resolve(instant time.Time) (float64, error) {
	if len(s.entries) == 0 {
		return 0, apperrors.ErrEmptySchedule
	}

	clock := instant.Format(clockLayout)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TimeOfDay <= clock {
			return s.entries[i].Factor, nil
		}
	}
	return s.entries[0].Factor, nil
}
