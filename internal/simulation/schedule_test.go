package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

func at(clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2024-03-01 "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSchedule_Resolve(t *testing.T) {
	s := MustSchedule(
		ScheduleEntry{TimeOfDay: "18:00", Factor: 45},
		ScheduleEntry{TimeOfDay: "6:00", Factor: 30},
		ScheduleEntry{TimeOfDay: "12:00", Factor: 40},
	)

	tests := []struct {
		name  string
		clock string
		want  float64
	}{
		{"before every entry wraps to entry 0", "03:15", 30},
		{"midnight", "00:00", 30},
		{"exactly on an entry", "06:00", 30},
		{"exactly on a later entry", "12:00", 40},
		{"between entries takes the earlier", "11:59", 30},
		{"between later entries", "17:30", 40},
		{"after the last entry", "23:55", 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(at(tt.clock))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedule_ResolveUsesInstantLocation(t *testing.T) {
	s := MustSchedule(
		ScheduleEntry{TimeOfDay: "00:00", Factor: 50},
		ScheduleEntry{TimeOfDay: "08:00", Factor: 35},
	)
	zone := time.FixedZone("UTC+3", 3*60*60)

	// 06:00 UTC is 09:00 in UTC+3
	got, err := s.Resolve(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC).In(zone))
	require.NoError(t, err)
	assert.Equal(t, 35.0, got)
}

func TestSchedule_Empty(t *testing.T) {
	var s Schedule
	_, err := s.Resolve(at("10:00"))
	assert.True(t, errors.Is(err, apperrors.ErrEmptySchedule))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))

	_, err = NewSchedule(nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptySchedule)
}

func TestNewSchedule_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []ScheduleEntry
	}{
		{"bad clock", []ScheduleEntry{{TimeOfDay: "25:00", Factor: 1}}},
		{"not a clock", []ScheduleEntry{{TimeOfDay: "noon", Factor: 1}}},
		{"zero factor", []ScheduleEntry{{TimeOfDay: "00:00", Factor: 0}}},
		{"duplicate after normalizing", []ScheduleEntry{{TimeOfDay: "7:00", Factor: 1}, {TimeOfDay: "07:00", Factor: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(tt.entries)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule(" 12:00=40, 00:00=50 ,6:30=42.5,")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "00:00=50,06:30=42.5,12:00=40", s.String())
	assert.Equal(t, "06:30", s.Entries()[1].TimeOfDay)

	_, err = ParseSchedule("00:00")
	assert.Error(t, err)
	_, err = ParseSchedule("00:00=abc")
	assert.Error(t, err)
	_, err = ParseSchedule("")
	assert.ErrorIs(t, err, apperrors.ErrEmptySchedule)
}
