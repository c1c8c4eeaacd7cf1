package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         string
		allowProfile bool
		want         eventArgs
		wantErr      bool
	}{
		{"carbs with profile", "45 13:30 slow", true, eventArgs{Amount: 45, Clock: "13:30", Profile: "slow"}, false},
		{"carbs default profile", "20 7:05", true, eventArgs{Amount: 20, Clock: "07:05"}, false},
		{"comma decimal", "4,5 08:00", false, eventArgs{Amount: 4.5, Clock: "08:00"}, false},
		{"bolus rejects profile", "4 08:00 fast", false, eventArgs{}, true},
		{"unknown profile", "45 13:30 instant", true, eventArgs{}, true},
		{"missing time", "45", true, eventArgs{}, true},
		{"bad time", "45 25:00", true, eventArgs{}, true},
		{"zero amount", "0 10:00", true, eventArgs{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEventArgs(tt.args, tt.allowProfile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScheduleEntry(t *testing.T) {
	start, factor, err := parseScheduleEntry("6:00=45")
	require.NoError(t, err)
	assert.Equal(t, "06:00", start)
	assert.Equal(t, 45.0, factor)

	start, factor, err = parseScheduleEntry(" 18:30 12,5 ")
	require.NoError(t, err)
	assert.Equal(t, "18:30", start)
	assert.Equal(t, 12.5, factor)

	for _, bad := range []string{"", "06:00", "06:00=-1", "noon=4", "06:00 4 5"} {
		_, _, err := parseScheduleEntry(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseInsulinProfile(t *testing.T) {
	d, p, err := parseInsulinProfile("210 90")
	require.NoError(t, err)
	assert.Equal(t, 210, d)
	assert.Equal(t, 90, p)

	d, p, err = parseInsulinProfile("300/75")
	require.NoError(t, err)
	assert.Equal(t, 300, d)
	assert.Equal(t, 75, p)

	_, _, err = parseInsulinProfile("3h 90")
	assert.Error(t, err)
	_, _, err = parseInsulinProfile("210")
	assert.Error(t, err)
}

func TestParseCallback(t *testing.T) {
	prefix, arg := parseCallback("delete_entry:12")
	assert.Equal(t, "delete_entry", prefix)
	assert.Equal(t, "12", arg)

	prefix, arg = parseCallback("main_menu")
	assert.Equal(t, "main_menu", prefix)
	assert.Empty(t, arg)
}
