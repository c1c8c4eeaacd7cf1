package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ StateManager = (*Manager)(nil)
var _ StateManager = (*RedisManager)(nil)

func TestManager_States(t *testing.T) {
	m := NewManager()
	assert.Equal(t, None, m.GetUserState(1))

	m.SetUserState(1, WaitingForScheduleEntry)
	assert.Equal(t, WaitingForScheduleEntry, m.GetUserState(1))
	assert.Equal(t, None, m.GetUserState(2))

	m.ClearUserState(1)
	assert.Equal(t, None, m.GetUserState(1))
}

func TestManager_TempData(t *testing.T) {
	m := NewManager()
	_, ok := m.GetTempData(1, KeyScheduleKind)
	assert.False(t, ok)

	m.SetTempData(1, KeyScheduleKind, "isf")
	m.SetTempData(1, KeyEventCarbs, "40")
	v, ok := m.GetTempData(1, KeyScheduleKind)
	assert.True(t, ok)
	assert.Equal(t, "isf", v)

	m.ClearTempData(1)
	_, ok = m.GetTempData(1, KeyEventCarbs)
	assert.False(t, ok)
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetUserState(id, AnalyzingFood)
			m.SetTempData(id, KeyAnalysisID, "7")
			_ = m.GetUserState(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, AnalyzingFood, m.GetUserState(19))
}
