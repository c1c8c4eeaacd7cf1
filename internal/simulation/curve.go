package simulation

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

// ActivityCurve turns a dose into a rate over time. Rate is the instantaneous
// activity (amount per minute) elapsed minutes after the dose; Absorbed is its
// integral from 0 to elapsed. Both are zero before the dose.
type ActivityCurve interface {
	Name() string
	Rate(amount, elapsed, duration, peak float64) float64
	Absorbed(amount, elapsed, duration, peak float64) float64
}

// Curve names accepted by CurveByName.
const (
	CurveTriangular  = "triangular"
	CurveExponential = "exponential"
)

// CurveByName selects a strategy from configuration.
func CurveByName(name string) (ActivityCurve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CurveTriangular:
		return TriangularCurve{}, nil
	case CurveExponential:
		return ExponentialCurve{}, nil
	default:
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown activity curve %q", name))
	}
}

// TriangularCurve rises linearly from zero to a peak and falls linearly back
// to zero at duration. The area under Rate over [0, duration] equals amount.
type TriangularCurve struct{}

func (TriangularCurve) Name() string { return CurveTriangular }

func (TriangularCurve) Rate(amount, elapsed, duration, peak float64) float64 {
	if elapsed < 0 || elapsed > duration {
		return 0
	}

	x := elapsed / duration
	peakRatio := peak / duration

	var shape float64
	if x <= peakRatio {
		shape = x / peakRatio
	} else {
		shape = 1 - (x-peakRatio)/(1-peakRatio)
	}

	// The unit triangle has area 0.5; doubling makes it 1, amount/duration
	// restores units per minute.
	return shape * 2.0 * (amount / duration)
}

func (TriangularCurve) Absorbed(amount, elapsed, duration, peak float64) float64 {
	switch {
	case elapsed <= 0:
		return 0
	case elapsed >= duration:
		return amount
	}

	x := elapsed / duration
	p := peak / duration
	if x <= p {
		return amount * x * x / p
	}
	d := x - p
	return amount * (p + 2*(d-d*d/(2*(1-p))))
}

// ExponentialCurve is the memoryless absorption model: the rate decays with
// time constant duration/3 from the moment of the dose and is cut off at
// duration, where about 95% of the amount has been absorbed. peak is ignored.
type ExponentialCurve struct{}

func (ExponentialCurve) Name() string { return CurveExponential }

func (ExponentialCurve) Rate(amount, elapsed, duration, _ float64) float64 {
	if elapsed < 0 || elapsed > duration {
		return 0
	}
	k := 3 / duration
	return amount * k * math.Exp(-k*elapsed)
}

func (ExponentialCurve) Absorbed(amount, elapsed, duration, _ float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	elapsed = math.Min(elapsed, duration)
	return amount * (1 - math.Exp(-3*elapsed/duration))
}

func validateShape(duration, peak float64) error {
	if !(duration > 0) {
		return apperrors.NewValidationError(fmt.Sprintf("activity duration must be positive, got %v", duration))
	}
	if !(peak > 0 && peak < duration) {
		return apperrors.NewValidationError(fmt.Sprintf("activity peak must lie strictly inside (0, %v), got %v", duration, peak))
	}
	return nil
}
