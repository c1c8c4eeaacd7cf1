package simulation

import (
	"time"

	"github.com/google/uuid"
)

// CarbModel tracks carbohydrate events and sums their absorption rates.
// Every event picks its own absorption profile; the curve shape is fixed per
// model so one run never mixes strategies.
type CarbModel struct {
	curve  ActivityCurve
	events ledger[CarbEvent]
}

// NewCarbModel returns an empty model. A nil curve means TriangularCurve.
func NewCarbModel(curve ActivityCurve) *CarbModel {
	if curve == nil {
		curve = TriangularCurve{}
	}
	return &CarbModel{
		curve: curve,
		events: newLedger(
			func(e CarbEvent) uuid.UUID { return e.ID },
			func(e CarbEvent) time.Time { return e.Timestamp },
		),
	}
}

// Curve returns the model's activity strategy.
func (m *CarbModel) Curve() ActivityCurve {
	return m.curve
}

// Add records amount grams eaten at ts. It returns false and records nothing
// when amount is not positive or the profile shape is invalid.
func (m *CarbModel) Add(ts time.Time, amount float64, profile CarbProfile) (CarbEvent, bool) {
	if !(amount > 0) || validateShape(profile.AbsorptionDuration, profile.Peak) != nil {
		return CarbEvent{}, false
	}
	e := CarbEvent{
		ID:        uuid.New(),
		Timestamp: ts,
		Amount:    amount,
		Profile:   profile,
	}
	m.events.insert(e)
	return e, true
}

// Remove drops the event with the given id.
func (m *CarbModel) Remove(id uuid.UUID) bool {
	_, ok := m.events.remove(id)
	return ok
}

// SetAmount changes an event's amount. A non-positive amount removes it.
func (m *CarbModel) SetAmount(id uuid.UUID, amount float64) bool {
	if !(amount > 0) {
		return m.Remove(id)
	}
	return m.events.update(id, func(e *CarbEvent) { e.Amount = amount })
}

// Get looks up one event.
func (m *CarbModel) Get(id uuid.UUID) (CarbEvent, bool) {
	return m.events.get(id)
}

// Events returns every tracked event ordered by timestamp.
func (m *CarbModel) Events() []CarbEvent {
	return m.events.all()
}

// EventsAt returns the events recorded at exactly ts.
func (m *CarbModel) EventsAt(ts time.Time) []CarbEvent {
	return m.events.at(ts)
}

// Len returns the number of tracked events.
func (m *CarbModel) Len() int {
	return len(m.events.items)
}

// Activity is the absorption rate of a single event at instant, in g/min.
func (m *CarbModel) Activity(e CarbEvent, instant time.Time) float64 {
	return m.curve.Rate(e.Amount, minutesBetween(e.Timestamp, instant), e.Profile.AbsorptionDuration, e.Profile.Peak)
}

// TotalActivity sums the absorption rate of every event at instant.
func (m *CarbModel) TotalActivity(instant time.Time) float64 {
	var total float64
	for _, e := range m.events.items {
		total += m.Activity(e, instant)
	}
	return total
}

// Remaining returns the grams not yet absorbed at instant, counting only
// events already eaten.
func (m *CarbModel) Remaining(instant time.Time) float64 {
	var total float64
	for _, e := range m.events.items {
		elapsed := minutesBetween(e.Timestamp, instant)
		if elapsed < 0 || elapsed >= e.Profile.AbsorptionDuration {
			continue
		}
		total += e.Amount - m.curve.Absorbed(e.Amount, elapsed, e.Profile.AbsorptionDuration, e.Profile.Peak)
	}
	return total
}

// EvictAbsorbed drops events whose absorption window closed before instant
// and returns how many were dropped.
func (m *CarbModel) EvictAbsorbed(instant time.Time) int {
	return m.events.filter(func(e CarbEvent) bool {
		return minutesBetween(e.Timestamp, instant) <= e.Profile.AbsorptionDuration
	})
}

// Clone returns an independent copy.
func (m *CarbModel) Clone() *CarbModel {
	return &CarbModel{curve: m.curve, events: m.events.clone()}
}

// WithCurve returns a copy tracking the same events under another curve.
// Every event keeps its own profile. A nil curve means TriangularCurve.
func (m *CarbModel) WithCurve(curve ActivityCurve) *CarbModel {
	if curve == nil {
		curve = TriangularCurve{}
	}
	return &CarbModel{curve: curve, events: m.events.clone()}
}

func minutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}
