// Package simulation implements the glucose what-if engine: a fixed-step day
// timeline, time-of-day ISF/CR schedules, carbohydrate and insulin activity
// models and the forward evaluator that integrates their effect on glucose.
//
// Nothing in this package reads the wall clock. Every instant is an argument,
// so evaluating the same inputs always yields the same timeline.
package simulation

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLevel is the physical activity marker carried by a point.
// The evaluator does not use it.
type ActivityLevel string

const (
	ActivityNone     ActivityLevel = "NONE"
	ActivityLow      ActivityLevel = "LOW"
	ActivityModerate ActivityLevel = "MODERATE"
	ActivityHigh     ActivityLevel = "HIGH"
)

// MaxActivityLevelLength is the width of the persisted activity level column.
const MaxActivityLevelLength = 50

// DataPoint is one simulation sample.
type DataPoint struct {
	ID        *uuid.UUID
	Timestamp time.Time

	Glucose float64 // mg/dL

	// Set only where the user recorded an event.
	CarbsConsumed *float64
	BolusAmount   *float64

	// Derived on every evaluation.
	CarbsOnBoard    float64 // carb absorption rate, g/min
	InsulinActivity float64 // insulin activity rate, U/min
	InsulinOnBoard  float64 // insulin not yet acted, U

	BasalRate     float64
	ActivityLevel ActivityLevel

	InsulinSensitivityFactor float64
	CarbohydrateRatio        float64

	// SimulationDuration is the step to the previous point, in minutes.
	SimulationDuration int
}

// HasEvent reports whether a carb or bolus amount is recorded on the point.
func (p DataPoint) HasEvent() bool {
	return (p.CarbsConsumed != nil && *p.CarbsConsumed > 0) ||
		(p.BolusAmount != nil && *p.BolusAmount > 0)
}

// clone copies the point, detaching its pointer fields.
func (p DataPoint) clone() DataPoint {
	if p.ID != nil {
		id := *p.ID
		p.ID = &id
	}
	if p.CarbsConsumed != nil {
		v := *p.CarbsConsumed
		p.CarbsConsumed = &v
	}
	if p.BolusAmount != nil {
		v := *p.BolusAmount
		p.BolusAmount = &v
	}
	return p
}

func floatPtr(v float64) *float64 {
	return &v
}
