package services

import (
	"github.com/vladimiradmaev/sugraph/internal/domain"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes glucose statistics over the whole timeline.
func Summarize(tl simulation.Timeline) domain.DaySummary {
	summary := domain.DaySummary{Day: tl.Start(), Points: tl.Len()}
	if tl.Len() == 0 {
		return summary
	}

	glucose := make([]float64, tl.Len())
	var below, above int
	for i, p := range tl.Points() {
		glucose[i] = p.Glucose
		switch {
		case p.Glucose < domain.TargetLow:
			below++
		case p.Glucose > domain.TargetHigh:
			above++
		}
		if p.CarbsConsumed != nil {
			summary.Carbs += *p.CarbsConsumed
		}
		if p.BolusAmount != nil {
			summary.Insulin += *p.BolusAmount
		}
		if p.HasEvent() {
			summary.Events++
		}
	}

	summary.Min = floats.Min(glucose)
	summary.Max = floats.Max(glucose)
	summary.NadirAt = tl.At(floats.MinIdx(glucose)).Timestamp
	summary.PeakAt = tl.At(floats.MaxIdx(glucose)).Timestamp
	summary.Mean, summary.StdDev = stat.MeanStdDev(glucose, nil)
	summary.Start = glucose[0]
	summary.End = glucose[len(glucose)-1]

	n := float64(len(glucose))
	summary.BelowRange = 100 * float64(below) / n
	summary.AboveRange = 100 * float64(above) / n
	summary.InRange = 100 - summary.BelowRange - summary.AboveRange
	return summary
}
