package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{
		"--date", "2024-03-01",
		"--step", "5",
		"--baseline", "100",
		"--isf", "00:00=50",
		"--cr", "00:00=10",
		"--insulin-duration", "210",
		"--insulin-peak", "90",
		"--curve", "triangular",
	}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestSimulate_CSV(t *testing.T) {
	out, err := execute(t, "--carbs", "12:01=20:medium", "--bolus", "18:00=1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 289)
	assert.Equal(t, "time,glucose,carbs,bolus,carb_rate,insulin_activity,insulin_on_board,isf,cr", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "00:00,100.0,,,"), lines[1])
	// 12:01 snaps to the 12:00 point
	assert.True(t, strings.HasPrefix(lines[1+144], "12:00,100.0,20,,"), lines[1+144])
	assert.True(t, strings.HasPrefix(lines[1+216], "18:00,"), lines[1+216])
	assert.Contains(t, lines[1+216], ",1,")
}

func TestSimulate_Summary(t *testing.T) {
	out, err := execute(t, "--carbs", "12:00=20", "--summary")
	require.NoError(t, err)

	assert.Contains(t, out, "day: 2024-03-01")
	assert.Contains(t, out, "points: 288")
	assert.Contains(t, out, "max: 200")
	assert.Contains(t, out, "carbs: 20 g")
	assert.Contains(t, out, "events: 1")
}

func TestSimulate_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.png")
	_, err := execute(t, "--carbs", "08:00=45:slow", "--png", path, "--summary")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestSimulate_BadInput(t *testing.T) {
	tests := [][]string{
		{"--bolus", "08:00=4:fast"},
		{"--carbs", "08:00"},
		{"--carbs", "25:00=10"},
		{"--carbs", "08:00=10:instant"},
		{"--isf", ""},
		{"--date", "yesterday"},
		{"extra-arg"},
	}
	for _, args := range tests {
		_, err := execute(t, args...)
		assert.Error(t, err, args)
	}
}
