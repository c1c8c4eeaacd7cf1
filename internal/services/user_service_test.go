package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

func TestUserService_Profiles(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, simulation.InsulinProfile{ActionDuration: 210, Peak: 90}, fx.users.InsulinProfile(fx.user))
	assert.Equal(t, 150.0, fx.users.BaselineGlucose(fx.user))
	assert.Equal(t, simulation.CurveTriangular, fx.users.CarbCurve(fx.user).Name())

	assert.Error(t, fx.users.SetInsulinProfile(ctx, fx.user, 180, 200))
	assert.Error(t, fx.users.SetInsulinProfile(ctx, fx.user, 900, 90))
	require.NoError(t, fx.users.SetInsulinProfile(ctx, fx.user, 300, 75))
	require.NoError(t, fx.users.SetCarbCurve(ctx, fx.user, "Exponential"))
	assert.Error(t, fx.users.SetCarbCurve(ctx, fx.user, "sigmoid"))

	stored, err := fx.users.GetUserByTelegramID(ctx, fx.user.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, simulation.InsulinProfile{ActionDuration: 300, Peak: 75}, fx.users.InsulinProfile(stored))
	assert.Equal(t, simulation.CurveExponential, fx.users.CarbCurve(stored).Name())

	// a stored duration shorter than the default peak is ignored
	broken := &database.User{ActiveInsulinTime: 60}
	assert.Equal(t, simulation.InsulinProfile{ActionDuration: 210, Peak: 90}, fx.users.InsulinProfile(broken))
}

func TestBloodSugarService_AddReadingSetsBaseline(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := NewBloodSugarService(fx.store.Records, fx.store.Users)

	_, err := svc.AddReading(ctx, fx.user.ID, 0.5)
	assert.Error(t, err)

	mgdl, err := svc.AddReading(ctx, fx.user.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 126.0, mgdl)

	readings, err := svc.GetRecentReadings(ctx, fx.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 126.0, readings[0].Value)

	stored, err := fx.users.GetUserByTelegramID(ctx, fx.user.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, 126.0, fx.users.BaselineGlucose(stored))
}
