package simulation

import (
	"time"

	"github.com/google/uuid"
)

// InsulinModel tracks bolus events. Unlike carbs, every bolus shares the one
// profile the model was built with.
type InsulinModel struct {
	profile InsulinProfile
	curve   ActivityCurve
	events  ledger[BolusEvent]
}

// NewInsulinModel validates the profile and returns an empty model.
// Insulin always follows the triangular curve.
func NewInsulinModel(profile InsulinProfile) (*InsulinModel, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &InsulinModel{
		profile: profile,
		curve:   TriangularCurve{},
		events: newLedger(
			func(e BolusEvent) uuid.UUID { return e.ID },
			func(e BolusEvent) time.Time { return e.Timestamp },
		),
	}, nil
}

// Profile returns the action profile shared by all boluses.
func (m *InsulinModel) Profile() InsulinProfile {
	return m.profile
}

// Add records amount units injected at ts. Non-positive amounts are ignored
// and reported with false.
func (m *InsulinModel) Add(ts time.Time, amount float64) (BolusEvent, bool) {
	if !(amount > 0) {
		return BolusEvent{}, false
	}
	e := BolusEvent{ID: uuid.New(), Timestamp: ts, Amount: amount}
	m.events.insert(e)
	return e, true
}

func (m *InsulinModel) Remove(id uuid.UUID) bool {
	_, ok := m.events.remove(id)
	return ok
}

// SetAmount changes a bolus. A non-positive amount removes it.
func (m *InsulinModel) SetAmount(id uuid.UUID, amount float64) bool {
	if !(amount > 0) {
		return m.Remove(id)
	}
	return m.events.update(id, func(e *BolusEvent) { e.Amount = amount })
}

func (m *InsulinModel) Get(id uuid.UUID) (BolusEvent, bool) {
	return m.events.get(id)
}

func (m *InsulinModel) Events() []BolusEvent {
	return m.events.all()
}

func (m *InsulinModel) EventsAt(ts time.Time) []BolusEvent {
	return m.events.at(ts)
}

func (m *InsulinModel) Len() int {
	return len(m.events.items)
}

// Activity is the action rate of one bolus at instant, in U/min.
func (m *InsulinModel) Activity(e BolusEvent, instant time.Time) float64 {
	return m.curve.Rate(e.Amount, minutesBetween(e.Timestamp, instant), m.profile.ActionDuration, m.profile.Peak)
}

// TotalActivity sums the action rate of every bolus at instant.
func (m *InsulinModel) TotalActivity(instant time.Time) float64 {
	var total float64
	for _, e := range m.events.items {
		total += m.Activity(e, instant)
	}
	return total
}

// OnBoard returns the units injected before instant that have not acted yet.
func (m *InsulinModel) OnBoard(instant time.Time) float64 {
	var total float64
	for _, e := range m.events.items {
		elapsed := minutesBetween(e.Timestamp, instant)
		if elapsed < 0 || elapsed >= m.profile.ActionDuration {
			continue
		}
		total += e.Amount - m.curve.Absorbed(e.Amount, elapsed, m.profile.ActionDuration, m.profile.Peak)
	}
	return total
}

// EvictExpired drops boluses that finished acting before instant.
func (m *InsulinModel) EvictExpired(instant time.Time) int {
	return m.events.filter(func(e BolusEvent) bool {
		return minutesBetween(e.Timestamp, instant) <= m.profile.ActionDuration
	})
}

func (m *InsulinModel) Clone() *InsulinModel {
	c := *m
	c.events = m.events.clone()
	return &c
}

// WithProfile returns a copy tracking the same boluses under another action
// profile.
func (m *InsulinModel) WithProfile(profile InsulinProfile) (*InsulinModel, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	c := m.Clone()
	c.profile = profile
	return c, nil
}
