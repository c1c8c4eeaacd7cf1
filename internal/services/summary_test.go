package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

func TestSummarize(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sim, err := simulation.NewSimulator(simulation.Config{
		StepMinutes: 5,
		Baseline:    100,
		Insulin:     simulation.DefaultInsulinProfile,
		ISF:         simulation.MustSchedule(simulation.ScheduleEntry{TimeOfDay: "00:00", Factor: 50}),
		CR:          simulation.MustSchedule(simulation.ScheduleEntry{TimeOfDay: "00:00", Factor: 10}),
	}, day)
	require.NoError(t, err)

	// +5 mg/dL per gram: 20g lifts the day to 200 by 13:00
	tl, err := sim.ApplyEvent(context.Background(), day.Add(12*time.Hour), 20, 0, simulation.CarbsMedium)
	require.NoError(t, err)

	s := Summarize(tl)
	assert.Equal(t, 288, s.Points)
	assert.Equal(t, 100.0, s.Min)
	assert.InDelta(t, 200.0, s.Max, 1e-9)
	assert.Equal(t, 100.0, s.Start)
	assert.InDelta(t, 200.0, s.End, 1e-9)
	assert.Equal(t, day, s.NadirAt)
	assert.Equal(t, 20.0, s.Carbs)
	assert.Zero(t, s.Insulin)
	assert.Equal(t, 1, s.Events)
	assert.Zero(t, s.BelowRange)
	assert.InDelta(t, 100, s.InRange+s.AboveRange, 1e-9)
	assert.Greater(t, s.AboveRange, 40.0)
	assert.Greater(t, s.Mean, 100.0)
	assert.Greater(t, s.StdDev, 0.0)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(simulation.Timeline{})
	assert.Zero(t, s.Points)
	assert.Zero(t, s.Mean)
}
