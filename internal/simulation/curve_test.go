package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

func integrateRate(c ActivityCurve, amount, duration, peak float64) float64 {
	const samples = 20001
	x := floats.Span(make([]float64, samples), 0, duration)
	f := make([]float64, samples)
	for i, elapsed := range x {
		f[i] = c.Rate(amount, elapsed, duration, peak)
	}
	return integrate.Trapezoidal(x, f)
}

func TestTriangularCurve_IntegratesToAmount(t *testing.T) {
	tests := []struct {
		name                   string
		amount, duration, peak float64
	}{
		{"fast carbs", 15, 30, 15},
		{"medium carbs", 40, 60, 30},
		{"slow carbs", 75, 120, 60},
		{"rapid insulin", 5, 210, 90},
		{"early peak", 3.5, 180, 5},
		{"late peak", 120, 240, 235},
	}

	curve := TriangularCurve{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := integrateRate(curve, tt.amount, tt.duration, tt.peak)
			assert.InEpsilon(t, tt.amount, got, 1e-3)
			assert.InEpsilon(t, tt.amount, curve.Absorbed(tt.amount, tt.duration, tt.duration, tt.peak), 1e-12)
		})
	}
}

func TestTriangularCurve_ZeroOutsideSupport(t *testing.T) {
	curve := TriangularCurve{}
	for _, elapsed := range []float64{-30, -0.001, 0, 60, 60.001, 500} {
		assert.Zero(t, curve.Rate(40, elapsed, 60, 30), "elapsed=%v", elapsed)
	}
	assert.Zero(t, curve.Absorbed(40, -5, 60, 30))
	assert.Equal(t, 40.0, curve.Absorbed(40, 90, 60, 30))
}

func TestTriangularCurve_AbsorbedMatchesIntegral(t *testing.T) {
	curve := TriangularCurve{}
	for _, elapsed := range []float64{10, 30, 45, 59} {
		const samples = 10001
		x := floats.Span(make([]float64, samples), 0, elapsed)
		f := make([]float64, samples)
		for i := range x {
			f[i] = curve.Rate(40, x[i], 60, 30)
		}
		assert.InEpsilon(t, integrate.Trapezoidal(x, f), curve.Absorbed(40, elapsed, 60, 30), 1e-3, "elapsed=%v", elapsed)
	}
}

func TestTriangularCurve_MediumCarbProfile(t *testing.T) {
	curve := TriangularCurve{}

	assert.InDelta(t, 2*(40.0/60.0), curve.Rate(40, 30, CarbsMedium.AbsorptionDuration, CarbsMedium.Peak), 1e-12)
	assert.InDelta(t, 1.333, curve.Rate(40, 30, 60, 30), 1e-3)
	assert.Zero(t, curve.Rate(40, 0, 60, 30))
	assert.Zero(t, curve.Rate(40, 60, 60, 30))
}

func TestTriangularCurve_DefaultBolus(t *testing.T) {
	curve := TriangularCurve{}
	p := DefaultInsulinProfile

	assert.InDelta(t, 2*(5.0/210.0), curve.Rate(5, 90, p.ActionDuration, p.Peak), 1e-12)
	assert.InDelta(t, 0.0476, curve.Rate(5, 90, p.ActionDuration, p.Peak), 1e-4)
	assert.Zero(t, curve.Rate(5, 0, p.ActionDuration, p.Peak))
	assert.Zero(t, curve.Rate(5, 210, p.ActionDuration, p.Peak))
}

func TestExponentialCurve(t *testing.T) {
	curve := ExponentialCurve{}

	assert.Zero(t, curve.Rate(40, -1, 60, 30))
	assert.Zero(t, curve.Rate(40, 61, 60, 30))
	assert.Greater(t, curve.Rate(40, 0, 60, 30), curve.Rate(40, 30, 60, 30))

	// cut off at duration, so roughly 95% of the dose is absorbed
	got := integrateRate(curve, 40, 60, 30)
	assert.InEpsilon(t, curve.Absorbed(40, 60, 60, 30), got, 1e-3)
	assert.InDelta(t, 0.95, got/40, 0.01)
}

func TestCurveByName(t *testing.T) {
	c, err := CurveByName("")
	require.NoError(t, err)
	assert.Equal(t, CurveTriangular, c.Name())

	c, err = CurveByName(" Exponential ")
	require.NoError(t, err)
	assert.Equal(t, CurveExponential, c.Name())

	_, err = CurveByName("sigmoid")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestValidateShape(t *testing.T) {
	assert.NoError(t, validateShape(60, 30))
	assert.Error(t, validateShape(0, 0))
	assert.Error(t, validateShape(60, 0))
	assert.Error(t, validateShape(60, 60))
	assert.NoError(t, DefaultInsulinProfile.Validate())
}
