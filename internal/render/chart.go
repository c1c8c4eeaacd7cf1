// Package render draws simulated days as PNG charts.
package render

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"golang.org/x/image/font/gofont/goregular"
)

// Options controls the chart layout. Zero values take the defaults.
type Options struct {
	Width, Height int
	// Y axis range in mg/dL; widened to fit the data.
	MinGlucose, MaxGlucose float64
	TargetLow, TargetHigh  float64
	Title                  string
}

// DefaultOptions fits a phone screen.
var DefaultOptions = Options{
	Width:      1024,
	Height:     600,
	MinGlucose: 40,
	MaxGlucose: 300,
	TargetLow:  70,
	TargetHigh: 180,
}

const (
	marginLeft   = 64.0
	marginRight  = 24.0
	marginTop    = 48.0
	marginBottom = 56.0
)

var (
	fontOnce sync.Once
	fontData *truetype.Font
	fontErr  error
)

func (o Options) withDefaults() Options {
	d := DefaultOptions
	if o.Width > 0 {
		d.Width = o.Width
	}
	if o.Height > 0 {
		d.Height = o.Height
	}
	if o.MaxGlucose > o.MinGlucose {
		d.MinGlucose, d.MaxGlucose = o.MinGlucose, o.MaxGlucose
	}
	if o.TargetHigh > o.TargetLow {
		d.TargetLow, d.TargetHigh = o.TargetLow, o.TargetHigh
	}
	d.Title = o.Title
	return d
}

// Chart renders the glucose curve with the target band, carb markers above
// the curve and bolus markers below it.
func Chart(tl simulation.Timeline, opts Options) ([]byte, error) {
	if tl.Len() < 2 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("timeline needs at least 2 points, got %d", tl.Len()))
	}
	o := opts.withDefaults()
	points := tl.Points()

	lo, hi := o.MinGlucose, o.MaxGlucose
	for _, p := range points {
		lo = math.Min(lo, p.Glucose)
		hi = math.Max(hi, p.Glucose)
	}
	hi = math.Ceil(hi/20) * 20

	w, h := float64(o.Width), float64(o.Height)
	plotW := w - marginLeft - marginRight
	plotH := h - marginTop - marginBottom
	x := func(i int) float64 { return marginLeft + plotW*float64(i)/float64(len(points)-1) }
	y := func(g float64) float64 { return marginTop + plotH*(1-(g-lo)/(hi-lo)) }

	dc := gg.NewContext(o.Width, o.Height)
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	if err := loadFont(dc, 14); err != nil {
		return nil, err
	}

	// target band
	dc.SetRGBA255(76, 175, 80, 40)
	dc.DrawRectangle(marginLeft, y(o.TargetHigh), plotW, y(o.TargetLow)-y(o.TargetHigh))
	dc.Fill()

	drawGrid(dc, points, lo, hi, x, y, plotW)

	// glucose curve
	dc.SetRGB255(33, 102, 172)
	dc.SetLineWidth(2.5)
	dc.MoveTo(x(0), y(points[0].Glucose))
	for i := 1; i < len(points); i++ {
		dc.LineTo(x(i), y(points[i].Glucose))
	}
	dc.Stroke()

	for i, p := range points {
		if p.CarbsConsumed != nil && *p.CarbsConsumed > 0 {
			cx, cy := x(i), y(p.Glucose)-18
			dc.SetRGB255(255, 152, 0)
			dc.DrawCircle(cx, cy, 6)
			dc.Fill()
			dc.SetRGB255(60, 60, 60)
			dc.DrawStringAnchored(fmt.Sprintf("%.0fg", *p.CarbsConsumed), cx, cy-14, 0.5, 0.5)
		}
		if p.BolusAmount != nil && *p.BolusAmount > 0 {
			bx, by := x(i), y(p.Glucose)+18
			dc.SetRGB255(156, 39, 176)
			dc.NewSubPath()
			dc.MoveTo(bx, by+7)
			dc.LineTo(bx-6, by-5)
			dc.LineTo(bx+6, by-5)
			dc.ClosePath()
			dc.Fill()
			dc.SetRGB255(60, 60, 60)
			dc.DrawStringAnchored(fmt.Sprintf("%.1fU", *p.BolusAmount), bx, by+18, 0.5, 0.5)
		}
	}

	if o.Title != "" {
		dc.SetRGB255(30, 30, 30)
		dc.DrawStringAnchored(o.Title, w/2, marginTop/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to encode chart: %w", err))
	}
	return buf.Bytes(), nil
}

func drawGrid(dc *gg.Context, points []simulation.DataPoint, lo, hi float64, x func(int) float64, y func(float64) float64, plotW float64) {
	dc.SetLineWidth(1)
	for g := math.Ceil(lo/50) * 50; g <= hi; g += 50 {
		dc.SetRGB255(225, 225, 225)
		dc.DrawLine(marginLeft, y(g), marginLeft+plotW, y(g))
		dc.Stroke()
		dc.SetRGB255(90, 90, 90)
		dc.DrawStringAnchored(fmt.Sprintf("%.0f", g), marginLeft-8, y(g), 1, 0.5)
	}

	start := points[0].Timestamp
	for i, p := range points {
		elapsed := p.Timestamp.Sub(start)
		if elapsed.Minutes() != math.Trunc(elapsed.Hours())*60 || int(elapsed.Hours())%3 != 0 {
			continue
		}
		dc.SetRGB255(225, 225, 225)
		dc.DrawLine(x(i), y(hi), x(i), y(lo))
		dc.Stroke()
		dc.SetRGB255(90, 90, 90)
		dc.DrawStringAnchored(p.Timestamp.Format("15:04"), x(i), y(lo)+18, 0.5, 0.5)
	}
}

func loadFont(dc *gg.Context, size float64) error {
	fontOnce.Do(func() {
		fontData, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return apperrors.NewInternalError(fmt.Errorf("failed to parse font: %w", fontErr))
	}
	dc.SetFontFace(truetype.NewFace(fontData, &truetype.Options{Size: size}))
	return nil
}
