package services

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

func TestSimulationService_ApplySnapsToGridAndPersists(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.simulation.ApplyEvent(ctx, fx.user, "08:02", 40, 0, "medium")
	require.NoError(t, err)
	assert.Equal(t, "08:00", p.Timestamp.Format("15:04"))
	require.NotNil(t, p.CarbsConsumed)
	assert.Equal(t, 40.0, *p.CarbsConsumed)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	stored, err := fx.store.DataPoints.Fetch(ctx, fx.user.ID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, stored, 288)
	require.NotNil(t, stored[96].CarbsConsumed)
	assert.Equal(t, 40.0, *stored[96].CarbsConsumed)

	// all 40g absorbed by 09:00 at 5 mg/dL per gram
	tl, err := fx.simulation.Timeline(ctx, fx.user)
	require.NoError(t, err)
	assert.InDelta(t, 350, tl.At(287).Glucose, 1e-9)
}

func TestSimulationService_ApplyRejectsEmptyAndBadInput(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.simulation.ApplyEvent(ctx, fx.user, "08:00", 0, 0, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	_, err = fx.simulation.ApplyEvent(ctx, fx.user, "25:00", 10, 0, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	_, err = fx.simulation.ApplyEvent(ctx, fx.user, "08:00", 10, 0, "instant")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSimulationService_ReloadRestoresEvents(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.simulation.ApplyEvent(ctx, fx.user, "12:00", 30, 3, "medium")
	require.NoError(t, err)
	before, err := fx.simulation.Timeline(ctx, fx.user)
	require.NoError(t, err)

	fx.simulation.Invalidate(fx.user.ID)

	events, err := fx.simulation.Events(ctx, fx.user)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventlog.TypeBoth, events[0].Type)

	after, err := fx.simulation.Timeline(ctx, fx.user)
	require.NoError(t, err)
	assert.InDelta(t, before.At(287).Glucose, after.At(287).Glucose, 1e-9)
}

func TestSimulationService_UndoAndReset(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.simulation.ApplyEvent(ctx, fx.user, "07:00", 50, 0, "slow")
	require.NoError(t, err)
	_, err = fx.simulation.ApplyEvent(ctx, fx.user, "07:00", 0, 5, "")
	require.NoError(t, err)

	entry, err := fx.simulation.Undo(ctx, fx.user)
	require.NoError(t, err)
	assert.Equal(t, eventlog.TypeBolus, entry.Type)

	events, err := fx.simulation.Events(ctx, fx.user)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, fx.simulation.RemoveEvent(ctx, fx.user, events[0].ID))

	_, err = fx.simulation.Undo(ctx, fx.user)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = fx.simulation.ApplyEvent(ctx, fx.user, "09:00", 20, 0, "fast")
	require.NoError(t, err)
	require.NoError(t, fx.simulation.ResetDay(ctx, fx.user))

	events, err = fx.simulation.Events(ctx, fx.user)
	require.NoError(t, err)
	assert.Empty(t, events)
	summary, err := fx.simulation.Summary(ctx, fx.user)
	require.NoError(t, err)
	assert.Equal(t, 150.0, summary.Max)
	assert.Zero(t, summary.Carbs)
}

func TestSimulationService_RollsOverToNextDay(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.simulation.ApplyEvent(ctx, fx.user, "23:30", 0, 4, "")
	require.NoError(t, err)

	fx.clock.t = fx.clock.t.Add(24 * time.Hour)
	tl, err := fx.simulation.Timeline(ctx, fx.user)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), tl.Start())
	assert.Greater(t, tl.At(0).InsulinActivity, 0.0)

	stored, err := fx.store.DataPoints.Fetch(ctx, fx.user.ID, tl.Start(), tl.Start().AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, stored, 288)
}

func TestSimulationService_ReconfigureRestampsSchedules(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.simulation.Timeline(ctx, fx.user)
	require.NoError(t, err)

	require.NoError(t, fx.schedules.ReplaceSchedule(ctx, fx.user.ID, database.ScheduleISF, "00:00=40,12:00=30"))
	require.NoError(t, fx.store.Users.UpdateBaselineGlucose(ctx, fx.user.ID, 110))
	fx.user.BaselineGlucose = 110
	require.NoError(t, fx.simulation.Reconfigure(ctx, fx.user))

	tl, err := fx.simulation.Timeline(ctx, fx.user)
	require.NoError(t, err)
	assert.Equal(t, 40.0, tl.At(0).InsulinSensitivityFactor)
	assert.Equal(t, 30.0, tl.At(200).InsulinSensitivityFactor)
	assert.Equal(t, 110.0, tl.At(0).Glucose)

	_, err = fx.simulation.ApplyEvent(ctx, fx.user, "13:30", 45, 0, "slow")
	require.NoError(t, err)
	sess := fx.simulation.sessions[fx.user.ID]
	require.NotNil(t, sess)
	meal := sess.sim.CarbEvents()

	require.NoError(t, fx.users.SetInsulinProfile(ctx, fx.user, 240, 75))
	require.NoError(t, fx.simulation.Reconfigure(ctx, fx.user))
	require.Same(t, sess, fx.simulation.sessions[fx.user.ID])
	assert.Equal(t, 240.0, sess.sim.Config().Insulin.ActionDuration)
	assert.Equal(t, meal, sess.sim.CarbEvents())
	assert.Equal(t, simulation.CarbsSlow, sess.sim.CarbEvents()[0].Profile)

	require.NoError(t, fx.users.SetCarbCurve(ctx, fx.user, simulation.CurveExponential))
	require.NoError(t, fx.simulation.Reconfigure(ctx, fx.user))
	assert.Equal(t, simulation.CurveExponential, sess.sim.Config().CarbCurve.Name())
	require.Len(t, sess.sim.CarbEvents(), 1)
	assert.Equal(t, 45.0, sess.sim.CarbEvents()[0].Amount)
	assert.Equal(t, simulation.CarbsSlow, sess.sim.CarbEvents()[0].Profile)
}

func TestSimulationService_ClockTimesFollowDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	fx := newFixture(t)
	sim := NewSimulationService(fx.store.DataPoints, fx.users, fx.schedules, 5, loc)
	// clocks jump from 02:00 to 03:00 on this day
	sim.now = func() time.Time { return time.Date(2024, 3, 31, 18, 0, 0, 0, loc) }
	ctx := context.Background()

	p, err := sim.PointAt(ctx, fx.user, "14:00")
	require.NoError(t, err)
	assert.Equal(t, "14:00", p.Timestamp.In(loc).Format("15:04"))

	p, err = sim.ApplyEvent(ctx, fx.user, "20:00", 10, 0, "fast")
	require.NoError(t, err)
	assert.Equal(t, "20:00", p.Timestamp.In(loc).Format("15:04"))
	require.NotNil(t, p.CarbsConsumed)
}

func TestSimulationService_PointAtAndChart(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.simulation.PointAt(ctx, fx.user, "13:58")
	require.NoError(t, err)
	assert.Equal(t, "14:00", p.Timestamp.Format("15:04"))

	data, err := fx.simulation.Chart(ctx, fx.user)
	require.NoError(t, err)
	_, err = png.DecodeConfig(bytes.NewReader(data))
	assert.NoError(t, err)
}
