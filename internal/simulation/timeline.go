package simulation

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

const minutesPerDay = 24 * 60

// Timeline is an ordered, fixed-step sequence of points. It is immutable:
// every edit returns a new Timeline, so a snapshot handed to a reader never
// changes underneath it.
type Timeline struct {
	points []DataPoint
}

// GenerateTimeline builds ceil(1440/stepMinutes) points starting at midnight of
// startOfDay's date in its location. Every point carries the baseline glucose
// and no events.
func GenerateTimeline(startOfDay time.Time, stepMinutes int, baseline float64) (Timeline, error) {
	if stepMinutes <= 0 {
		return Timeline{}, apperrors.NewValidationError(fmt.Sprintf("step must be positive, got %d minutes", stepMinutes))
	}
	if baseline < 0 || math.IsNaN(baseline) {
		return Timeline{}, apperrors.NewValidationError(fmt.Sprintf("baseline glucose must be non-negative, got %v", baseline))
	}

	start := StartOfDay(startOfDay)
	count := (minutesPerDay + stepMinutes - 1) / stepMinutes
	points := make([]DataPoint, count)
	for i := range points {
		points[i] = DataPoint{
			Timestamp:          start.Add(time.Duration(i*stepMinutes) * time.Minute),
			Glucose:            baseline,
			ActivityLevel:      ActivityNone,
			SimulationDuration: stepMinutes,
		}
	}
	return Timeline{points: points}, nil
}

// StartOfDay truncates t to 00:00:00 in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NewTimeline wraps imported points after checking that timestamps strictly
// increase. The points are copied.
func NewTimeline(points []DataPoint) (Timeline, error) {
	out := make([]DataPoint, len(points))
	for i, p := range points {
		if i > 0 && !p.Timestamp.After(points[i-1].Timestamp) {
			return Timeline{}, apperrors.NewValidationError(fmt.Sprintf("timestamps must strictly increase: point %d at %s follows %s",
				i, p.Timestamp.Format(time.RFC3339), points[i-1].Timestamp.Format(time.RFC3339)))
		}
		if p.Glucose < 0 {
			return Timeline{}, apperrors.NewValidationError(fmt.Sprintf("point %d has negative glucose", i))
		}
		out[i] = p.clone()
	}
	return Timeline{points: out}, nil
}

// ApplyFactors stamps every point with the ISF and CR in effect at its time.
func ApplyFactors(tl Timeline, isf, cr Schedule) (Timeline, error) {
	out := tl.copyPoints()
	for i := range out {
		sens, err := isf.Resolve(out[i].Timestamp)
		if err != nil {
			return Timeline{}, fmt.Errorf("resolve ISF: %w", err)
		}
		ratio, err := cr.Resolve(out[i].Timestamp)
		if err != nil {
			return Timeline{}, fmt.Errorf("resolve CR: %w", err)
		}
		out[i].InsulinSensitivityFactor = sens
		out[i].CarbohydrateRatio = ratio
	}
	return Timeline{points: out}, nil
}

// Len returns the number of points.
func (t Timeline) Len() int {
	return len(t.points)
}

// At returns a copy of point i.
func (t Timeline) At(i int) DataPoint {
	return t.points[i].clone()
}

// Points returns a copy of all points.
func (t Timeline) Points() []DataPoint {
	return t.copyPoints()
}

// Start returns the first timestamp, or the zero time for an empty timeline.
func (t Timeline) Start() time.Time {
	if len(t.points) == 0 {
		return time.Time{}
	}
	return t.points[0].Timestamp
}

// IndexOf returns the index of the point at exactly ts.
func (t Timeline) IndexOf(ts time.Time) (int, bool) {
	i := sort.Search(len(t.points), func(i int) bool {
		return !t.points[i].Timestamp.Before(ts)
	})
	if i < len(t.points) && t.points[i].Timestamp.Equal(ts) {
		return i, true
	}
	return -1, false
}

// Nearest returns the index of the point closest to minutes after the first
// point. Out-of-range values clamp to the first or last point; ties resolve
// to the earlier point.
func (t Timeline) Nearest(minutesFromStart float64) (int, error) {
	if len(t.points) == 0 {
		return -1, apperrors.ErrNoMatchingPoint
	}
	if math.IsNaN(minutesFromStart) {
		return -1, apperrors.NewValidationError("minutes from start is NaN")
	}

	first := t.points[0].Timestamp
	span := t.points[len(t.points)-1].Timestamp.Sub(first).Minutes()
	minutesFromStart = math.Max(0, math.Min(minutesFromStart, span))
	return t.NearestTo(first.Add(time.Duration(minutesFromStart * float64(time.Minute))))
}

// NearestTo returns the index of the point closest to ts, clamping to the
// ends of the timeline; ties resolve to the earlier point.
func (t Timeline) NearestTo(ts time.Time) (int, error) {
	if len(t.points) == 0 {
		return -1, apperrors.ErrNoMatchingPoint
	}
	i := sort.Search(len(t.points), func(i int) bool {
		return !t.points[i].Timestamp.Before(ts)
	})
	switch {
	case i == 0:
		return 0, nil
	case i == len(t.points):
		return len(t.points) - 1, nil
	}
	if ts.Sub(t.points[i-1].Timestamp) <= t.points[i].Timestamp.Sub(ts) {
		return i - 1, nil
	}
	return i, nil
}

// Replace returns a new timeline with point i swapped for p. The timestamp
// cannot change, which keeps the fixed grid intact.
func (t Timeline) Replace(i int, p DataPoint) (Timeline, error) {
	if i < 0 || i >= len(t.points) {
		return Timeline{}, apperrors.NewValidationError(fmt.Sprintf("point index %d out of range [0,%d)", i, len(t.points)))
	}
	if !p.Timestamp.Equal(t.points[i].Timestamp) {
		return Timeline{}, apperrors.NewValidationError("replacement point must keep the original timestamp")
	}
	out := t.copyPoints()
	out[i] = p.clone()
	return Timeline{points: out}, nil
}

func (t Timeline) copyPoints() []DataPoint {
	out := make([]DataPoint, len(t.points))
	for i, p := range t.points {
		out[i] = p.clone()
	}
	return out
}
