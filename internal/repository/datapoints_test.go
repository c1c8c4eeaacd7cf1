package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

func testDay(t *testing.T) []simulation.DataPoint {
	t.Helper()
	tl, err := simulation.GenerateTimeline(noon, 5, 150)
	require.NoError(t, err)
	tl, err = simulation.ApplyFactors(tl,
		simulation.MustSchedule(simulation.ScheduleEntry{TimeOfDay: "00:00", Factor: 50}),
		simulation.MustSchedule(simulation.ScheduleEntry{TimeOfDay: "00:00", Factor: 10}))
	require.NoError(t, err)
	return tl.Points()
}

func TestDataPointRepository_UpsertAndFetch(t *testing.T) {
	repo := NewDataPointRepository(newTestDB(t))
	ctx := context.Background()
	points := testDay(t)
	points[96].CarbsConsumed = f(40)
	points[96].BolusAmount = f(4.5)
	points[97].CarbsOnBoard = 0.22

	n, err := repo.Upsert(ctx, 1, points)
	require.NoError(t, err)
	assert.EqualValues(t, 288, n)

	start := points[0].Timestamp
	got, err := repo.Fetch(ctx, 1, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 288)
	assert.True(t, got[96].Timestamp.Equal(points[96].Timestamp))
	assert.Equal(t, 40.0, *got[96].CarbsConsumed)
	assert.Equal(t, 4.5, *got[96].BolusAmount)
	assert.Equal(t, 0.22, got[97].CarbsOnBoard)
	assert.Equal(t, 50.0, got[10].InsulinSensitivityFactor)
	assert.Nil(t, got[10].BolusAmount)

	// another user's day is separate
	other, err := repo.Fetch(ctx, 2, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDataPointRepository_UpsertUpdatesByTimestamp(t *testing.T) {
	repo := NewDataPointRepository(newTestDB(t))
	ctx := context.Background()
	points := testDay(t)[:12]

	_, err := repo.Upsert(ctx, 1, points)
	require.NoError(t, err)

	// fresh points without ids at the same timestamps replace the stored rows
	edited := testDay(t)[:12]
	edited[3].Glucose = 99
	n, err := repo.Upsert(ctx, 1, edited)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)

	got, err := repo.Fetch(ctx, 1, points[0].Timestamp, points[11].Timestamp.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, 99.0, got[3].Glucose)
}

func TestDataPointRepository_UpsertValidatesBeforeWriting(t *testing.T) {
	repo := NewDataPointRepository(newTestDB(t))
	ctx := context.Background()
	points := testDay(t)[:4]
	points[2].Glucose = -3

	_, err := repo.Upsert(ctx, 1, points)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	got, err := repo.Fetch(ctx, 1, points[0].Timestamp, points[3].Timestamp.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := repo.Upsert(ctx, 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDataPointRepository_FetchRejectsInvertedRange(t *testing.T) {
	repo := NewDataPointRepository(newTestDB(t))
	_, err := repo.Fetch(context.Background(), 1, noon, noon)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDataPointRepository_CancelledContextIsTransient(t *testing.T) {
	repo := NewDataPointRepository(newTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Fetch(ctx, 1, noon, noon.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransient))
}

func TestDataPointRepository_DeleteRange(t *testing.T) {
	repo := NewDataPointRepository(newTestDB(t))
	ctx := context.Background()
	points := testDay(t)

	_, err := repo.Upsert(ctx, 1, points)
	require.NoError(t, err)

	start := points[0].Timestamp
	n, err := repo.DeleteRange(ctx, 1, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)

	got, err := repo.Fetch(ctx, 1, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 276)
}
