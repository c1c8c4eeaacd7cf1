package eventlog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

var noon = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTypeFor(t *testing.T) {
	tests := []struct {
		carbs, bolus bool
		want         Type
		ok           bool
	}{
		{true, true, TypeBoth, true},
		{true, false, TypeCarb, true},
		{false, true, TypeBolus, true},
		{false, false, "", false},
	}
	for _, tt := range tests {
		got, ok := TypeFor(tt.carbs, tt.bolus)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestLog_AddUpdateRemove(t *testing.T) {
	log := New()
	carbID := uuid.New()

	first := log.Add(TypeCarb, noon, 144, &carbID, nil)
	second := log.Add(TypeBolus, noon.Add(time.Hour), 156, nil, nil)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, 2, log.Len())

	updated, err := log.Update(first.ID, noon.Add(-5*time.Minute), 143)
	require.NoError(t, err)
	assert.Equal(t, 143, updated.PointIndex)

	got, ok := log.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, noon.Add(-5*time.Minute), got.Time)
	assert.Equal(t, carbID, *got.CarbEventID)

	removed, err := log.Remove(second.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeBolus, removed.Type)

	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, first.ID, last.ID)

	// ids are never reused
	third := log.Add(TypeBoth, noon, 144, nil, nil)
	assert.Equal(t, int64(3), third.ID)
}

func TestLog_MissingEntry(t *testing.T) {
	log := New()

	_, err := log.Remove(42)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = log.Update(42, noon, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, ok := log.Last()
	assert.False(t, ok)
}

func TestLog_ObserversNotifiedInOrder(t *testing.T) {
	log := New()
	var calls []string

	unsubA := log.Subscribe(ObserverFunc(func(c Change) {
		calls = append(calls, "a:"+string(c.Kind))
	}))
	log.Subscribe(ObserverFunc(func(c Change) {
		calls = append(calls, "b:"+string(c.Kind))
		// the change is already applied when observers run
		if c.Kind == ChangeAdded {
			assert.Len(t, c.Entries, 1)
			assert.Equal(t, 1, log.Len())
		}
	}))

	e := log.Add(TypeCarb, noon, 0, nil, nil)
	assert.Equal(t, []string{"a:added", "b:added"}, calls)

	unsubA()
	unsubA()
	calls = nil
	_, err := log.Remove(e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b:removed"}, calls)
}

func TestLog_EntriesIsACopy(t *testing.T) {
	log := New()
	log.Add(TypeCarb, noon, 0, nil, nil)

	entries := log.Entries()
	entries[0].Type = TypeBolus

	got, _ := log.Get(1)
	assert.Equal(t, TypeCarb, got.Type)

	log.Clear()
	assert.Zero(t, log.Len())
}

func TestBatch_HoldsNotificationsUntilFlush(t *testing.T) {
	log := New()
	first := log.Add(TypeCarb, noon, 0, nil, nil)

	var kinds []ChangeKind
	log.Subscribe(ObserverFunc(func(c Change) {
		kinds = append(kinds, c.Kind)
	}))

	b := log.Batch()
	added := b.Add(TypeBolus, noon.Add(time.Hour), 12, nil, nil)
	_, err := b.Update(added.ID, noon.Add(2*time.Hour), 24)
	require.NoError(t, err)
	_, err = b.Remove(first.ID)
	require.NoError(t, err)
	_, err = b.Remove(first.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	// applied at once, delivered later
	assert.Empty(t, kinds)
	require.Equal(t, 1, log.Len())
	got, ok := log.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, 24, got.PointIndex)

	b.Flush()
	assert.Equal(t, []ChangeKind{ChangeAdded, ChangeUpdated, ChangeRemoved}, kinds)

	b.Flush()
	assert.Len(t, kinds, 3)
}
