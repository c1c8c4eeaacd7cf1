package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vladimiradmaev/sugraph/internal/config"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	"github.com/vladimiradmaev/sugraph/internal/render"
	"github.com/vladimiradmaev/sugraph/internal/services"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"github.com/vladimiradmaev/sugraph/internal/utils"
)

type options struct {
	date            string
	step            int
	baseline        float64
	isf             string
	cr              string
	insulinDuration int
	insulinPeak     int
	curve           string
	carbs           []string
	boluses         []string
	png             string
	summary         bool
}

func newRootCmd() *cobra.Command {
	defaults := config.SimulationConfig{
		StepMinutes:           5,
		BaselineGlucose:       280,
		InsulinActionDuration: 210,
		InsulinPeak:           90,
		CarbCurve:             simulation.CurveTriangular,
		DefaultISFSchedule:    "00:00=50",
		DefaultCRSchedule:     "00:00=10",
	}
	if cfg, err := config.Load(); err == nil {
		defaults = cfg.Simulation
	}

	opts := &options{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a day of blood glucose from carbs and insulin",
		Long: "simulate builds a day at a fixed step, applies the given carb and bolus events\n" +
			"and prints every point as CSV. Events snap to the nearest point.",
		Example: "  simulate --carbs 08:00=45:slow --bolus 07:50=4 --png day.png",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "Day YYYY-MM-DD (default today, UTC)")
	f.IntVar(&opts.step, "step", defaults.StepMinutes, "Minutes between points")
	f.Float64Var(&opts.baseline, "baseline", defaults.BaselineGlucose, "Glucose at 00:00, mg/dL")
	f.StringVar(&opts.isf, "isf", defaults.DefaultISFSchedule, "ISF schedule HH:MM=mg/dL per unit,...")
	f.StringVar(&opts.cr, "cr", defaults.DefaultCRSchedule, "CR schedule HH:MM=grams per unit,...")
	f.IntVar(&opts.insulinDuration, "insulin-duration", defaults.InsulinActionDuration, "Insulin action duration, minutes")
	f.IntVar(&opts.insulinPeak, "insulin-peak", defaults.InsulinPeak, "Insulin activity peak, minutes")
	f.StringVar(&opts.curve, "curve", defaults.CarbCurve, "Carb absorption curve: triangular or exponential")
	f.StringArrayVar(&opts.carbs, "carbs", nil, "Carbs HH:MM=grams[:fast|medium|slow], repeatable")
	f.StringArrayVar(&opts.boluses, "bolus", nil, "Bolus HH:MM=units, repeatable")
	f.StringVar(&opts.png, "png", "", "Also write the chart to this PNG file")
	f.BoolVar(&opts.summary, "summary", false, "Print the day summary instead of CSV")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, day, err := opts.simulatorConfig()
	if err != nil {
		return err
	}
	sim, err := simulation.NewSimulator(cfg, day)
	if err != nil {
		return err
	}

	for _, raw := range opts.carbs {
		if err := applyFlag(ctx, sim, raw, true); err != nil {
			return fmt.Errorf("--carbs %s: %w", raw, err)
		}
	}
	for _, raw := range opts.boluses {
		if err := applyFlag(ctx, sim, raw, false); err != nil {
			return fmt.Errorf("--bolus %s: %w", raw, err)
		}
	}

	tl := sim.Timeline()
	if opts.png != "" {
		png, err := render.Chart(tl, render.Options{
			TargetLow:  domain.TargetLow,
			TargetHigh: domain.TargetHigh,
			Title:      day.Format(time.DateOnly),
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.png, png, 0o644); err != nil {
			return err
		}
	}

	if opts.summary {
		return writeSummary(out, services.Summarize(tl))
	}
	return writeCSV(out, tl)
}

func (o *options) simulatorConfig() (simulation.Config, time.Time, error) {
	day := time.Now().UTC()
	if o.date != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, o.date, time.UTC)
		if err != nil {
			return simulation.Config{}, time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", o.date)
		}
		day = parsed
	}

	isf, err := simulation.ParseSchedule(o.isf)
	if err != nil {
		return simulation.Config{}, time.Time{}, fmt.Errorf("--isf: %w", err)
	}
	cr, err := simulation.ParseSchedule(o.cr)
	if err != nil {
		return simulation.Config{}, time.Time{}, fmt.Errorf("--cr: %w", err)
	}
	curve, err := simulation.CurveByName(o.curve)
	if err != nil {
		return simulation.Config{}, time.Time{}, err
	}

	return simulation.Config{
		StepMinutes: o.step,
		Baseline:    o.baseline,
		Insulin: simulation.InsulinProfile{
			ActionDuration: float64(o.insulinDuration),
			Peak:           float64(o.insulinPeak),
		},
		CarbCurve: curve,
		ISF:       isf,
		CR:        cr,
	}, simulation.StartOfDay(day), nil
}

// applyFlag reads "HH:MM=amount" with an optional ":profile" for carbs.
func applyFlag(ctx context.Context, sim *simulation.Simulator, raw string, isCarbs bool) error {
	clock, rest, ok := strings.Cut(raw, "=")
	if !ok {
		return fmt.Errorf("expected HH:MM=amount")
	}
	amountText, profileName, _ := strings.Cut(rest, ":")
	if !isCarbs && profileName != "" {
		return fmt.Errorf("a bolus takes no absorption profile")
	}

	amount, err := strconv.ParseFloat(amountText, 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("amount %q must be a positive number", amountText)
	}
	profile, err := simulation.CarbProfileByName(profileName)
	if err != nil {
		return err
	}
	minutes, err := utils.ParseClock(clock)
	if err != nil {
		return err
	}
	point, err := sim.TimestampAt(float64(minutes))
	if err != nil {
		return err
	}

	if isCarbs {
		_, err = sim.ApplyEvent(ctx, point.Timestamp, amount, 0, profile)
	} else {
		_, err = sim.ApplyEvent(ctx, point.Timestamp, 0, amount, profile)
	}
	return err
}

func writeCSV(out io.Writer, tl simulation.Timeline) error {
	w := csv.NewWriter(out)
	_ = w.Write([]string{"time", "glucose", "carbs", "bolus", "carb_rate", "insulin_activity", "insulin_on_board", "isf", "cr"})
	for _, p := range tl.Points() {
		_ = w.Write([]string{
			p.Timestamp.Format("15:04"),
			formatFloat(p.Glucose, 1),
			optional(p.CarbsConsumed),
			optional(p.BolusAmount),
			formatFloat(p.CarbsOnBoard, 4),
			formatFloat(p.InsulinActivity, 5),
			formatFloat(p.InsulinOnBoard, 3),
			formatFloat(p.InsulinSensitivityFactor, -1),
			formatFloat(p.CarbohydrateRatio, -1),
		})
	}
	w.Flush()
	return w.Error()
}

func writeSummary(out io.Writer, s domain.DaySummary) error {
	_, err := fmt.Fprintf(out,
		"day: %s\npoints: %d\nstart: %.0f\nend: %.0f\nmin: %.0f at %s\nmax: %.0f at %s\nmean: %.1f\nstddev: %.1f\n"+
			"below: %.1f%%\nin range: %.1f%%\nabove: %.1f%%\ncarbs: %g g\ninsulin: %g U\nevents: %d\n",
		s.Day.Format(time.DateOnly), s.Points, s.Start, s.End,
		s.Min, s.NadirAt.Format("15:04"), s.Max, s.PeakAt.Format("15:04"),
		s.Mean, s.StdDev, s.BelowRange, s.InRange, s.AboveRange, s.Carbs, s.Insulin, s.Events)
	return err
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v, -1)
}
