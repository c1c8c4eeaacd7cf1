package simulation

import (
	"context"
	"math"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

// cancelCheckInterval is how many points are evaluated between context checks.
const cancelCheckInterval = 64

// Evaluator integrates carb and insulin activity into glucose with a
// forward-Euler step per point.
type Evaluator struct {
	Carbs   *CarbModel
	Insulin *InsulinModel
}

// NewEvaluator pairs the two activity models.
func NewEvaluator(carbs *CarbModel, insulin *InsulinModel) *Evaluator {
	return &Evaluator{Carbs: carbs, Insulin: insulin}
}

// Evaluate returns a new timeline with activity and glucose recomputed for
// every point after the first. Each glucose value derives only from the
// previous point and the event history, so repeated calls on the same inputs
// produce identical output. The first point keeps its glucose; its activity
// fields are filled in for display.
//
// ctx is checked periodically; a cancelled evaluation returns ErrSuperseded.
func (e *Evaluator) Evaluate(ctx context.Context, tl Timeline) (Timeline, error) {
	points := tl.copyPoints()
	if len(points) == 0 {
		return Timeline{points: points}, nil
	}

	e.fillActivity(&points[0])
	for i := 1; i < len(points); i++ {
		if i%cancelCheckInterval == 0 && ctx.Err() != nil {
			return Timeline{}, superseded(ctx)
		}

		prev, cur := &points[i-1], &points[i]
		e.fillActivity(cur)

		step := float64(cur.SimulationDuration)
		insulinEffect := cur.InsulinActivity * step * prev.InsulinSensitivityFactor
		var carbEffect float64
		if prev.CarbohydrateRatio != 0 {
			carbEffect = cur.CarbsOnBoard * step * (prev.InsulinSensitivityFactor / prev.CarbohydrateRatio)
		}
		cur.Glucose = math.Max(0, prev.Glucose+carbEffect-insulinEffect)
	}
	return Timeline{points: points}, nil
}

func (e *Evaluator) fillActivity(p *DataPoint) {
	p.InsulinActivity = e.Insulin.TotalActivity(p.Timestamp)
	p.InsulinOnBoard = e.Insulin.OnBoard(p.Timestamp)
	p.CarbsOnBoard = e.Carbs.TotalActivity(p.Timestamp)
}

func superseded(ctx context.Context) error {
	return apperrors.NewSupersededError(ctx.Err())
}
