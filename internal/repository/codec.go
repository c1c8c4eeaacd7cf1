package repository

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// fixedPlaces is the fractional precision of the decimal(10,2) columns.
const fixedPlaces = 2

// maxFixed is the largest magnitude a decimal(10,2) column holds.
var maxFixed = decimal.New(1, 8)

// ToRecord converts a point to its persisted shape. Points without an ID get
// a fresh one. Values are rounded half away from zero to column precision.
func ToRecord(userID uint, p simulation.DataPoint) (database.DataPointRecord, error) {
	if err := validatePoint(p); err != nil {
		return database.DataPointRecord{}, err
	}

	id := uuid.New()
	if p.ID != nil {
		id = *p.ID
	}

	rec := database.DataPointRecord{
		ID:                       id,
		UserID:                   userID,
		Glucose:                  roundInt(p.Glucose),
		Timestamp:                p.Timestamp.UTC(),
		ActivityLevel:            string(p.ActivityLevel),
		InsulinSensitivityFactor: roundInt(p.InsulinSensitivityFactor),
		CarbohydrateRatio:        roundInt(p.CarbohydrateRatio),
		SimulationDuration:       p.SimulationDuration,
	}
	if p.CarbsConsumed != nil {
		v := roundInt(*p.CarbsConsumed)
		rec.CarbsConsumed = &v
	}

	fields := []struct {
		name string
		in   float64
		out  *decimal.Decimal
	}{
		{"carbsOnBoard", p.CarbsOnBoard, &rec.CarbsOnBoard},
		{"insulinOnBoard", p.InsulinOnBoard, &rec.InsulinOnBoard},
		{"insulinActivity", p.InsulinActivity, &rec.InsulinActivity},
		{"basalRate", p.BasalRate, &rec.BasalRate},
	}
	for _, f := range fields {
		d, err := toFixed(f.name, f.in)
		if err != nil {
			return database.DataPointRecord{}, err
		}
		*f.out = d
	}
	if p.BolusAmount != nil {
		d, err := toFixed("bolusAmount", *p.BolusAmount)
		if err != nil {
			return database.DataPointRecord{}, err
		}
		rec.BolusAmount = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	return rec, nil
}

// FromRecord converts a persisted row back to a point.
func FromRecord(rec database.DataPointRecord) simulation.DataPoint {
	id := rec.ID
	p := simulation.DataPoint{
		ID:                       &id,
		Timestamp:                rec.Timestamp.UTC(),
		Glucose:                  float64(rec.Glucose),
		CarbsOnBoard:             rec.CarbsOnBoard.InexactFloat64(),
		InsulinOnBoard:           rec.InsulinOnBoard.InexactFloat64(),
		InsulinActivity:          rec.InsulinActivity.InexactFloat64(),
		BasalRate:                rec.BasalRate.InexactFloat64(),
		ActivityLevel:            simulation.ActivityLevel(rec.ActivityLevel),
		InsulinSensitivityFactor: float64(rec.InsulinSensitivityFactor),
		CarbohydrateRatio:        float64(rec.CarbohydrateRatio),
		SimulationDuration:       rec.SimulationDuration,
	}
	if p.ActivityLevel == "" {
		p.ActivityLevel = simulation.ActivityNone
	}
	if rec.CarbsConsumed != nil {
		v := float64(*rec.CarbsConsumed)
		p.CarbsConsumed = &v
	}
	if rec.BolusAmount.Valid {
		v := rec.BolusAmount.Decimal.InexactFloat64()
		p.BolusAmount = &v
	}
	return p
}

func validatePoint(p simulation.DataPoint) error {
	switch {
	case p.Timestamp.IsZero():
		return apperrors.NewValidationError("data point has no timestamp")
	case math.IsNaN(p.Glucose) || math.IsInf(p.Glucose, 0) || p.Glucose < 0:
		return invalidField(p, "glucose", p.Glucose)
	case len(p.ActivityLevel) > simulation.MaxActivityLevelLength:
		return apperrors.NewValidationError(fmt.Sprintf("activity level longer than %d characters", simulation.MaxActivityLevelLength)).
			WithContext("timestamp", p.Timestamp)
	case p.CarbsConsumed != nil && !finiteNonNegative(*p.CarbsConsumed):
		return invalidField(p, "carbsConsumed", *p.CarbsConsumed)
	case p.BolusAmount != nil && !finiteNonNegative(*p.BolusAmount):
		return invalidField(p, "bolusAmount", *p.BolusAmount)
	case p.SimulationDuration < 0:
		return invalidField(p, "simulationDuration", float64(p.SimulationDuration))
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func invalidField(p simulation.DataPoint, field string, v float64) error {
	return apperrors.NewValidationError(fmt.Sprintf("invalid %s %v", field, v)).
		WithContext("timestamp", p.Timestamp).
		WithContext("field", field)
}

func toFixed(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, apperrors.NewValidationError(fmt.Sprintf("%s is not a finite number", field))
	}
	d := decimal.NewFromFloat(v).Round(fixedPlaces)
	if d.Abs().GreaterThanOrEqual(maxFixed) {
		return decimal.Decimal{}, apperrors.NewValidationError(fmt.Sprintf("%s %v does not fit decimal(10,2)", field, v))
	}
	return d, nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
