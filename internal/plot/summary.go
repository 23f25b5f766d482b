package plot

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"

	"github.com/verte-zerg/rfpick/internal/logging"
	"github.com/verte-zerg/rfpick/internal/model"
)

const (
	summarySuffix   = "_R.ps"
	pageWidth       = 8.5 * vg.Inch
	minPageHeight   = 5 * vg.Inch
	rowHeight       = 0.22 * vg.Inch
	tracePanelShare = 0.74
	fillAlpha       = 0x4c
	timeTickStep    = 10.0
	bazTickStep     = 60.0
)

var (
	positiveFill = color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: fillAlpha}
	negativeFill = color.NRGBA{R: 0x1f, G: 0x4e, B: 0xc8, A: fillAlpha}
)

// SummaryRenderer draws the kept traces of a station as a PostScript figure:
// the stacked waveforms on the left and their backazimuths on the right.
type SummaryRenderer struct {
	Dir     string
	Scale   float64
	TimeMin float64
	TimeMax float64
	Logger  *slog.Logger
}

// NewSummaryRenderer returns a renderer configured from cfg.
func NewSummaryRenderer(cfg model.ReviewConfig, logger *slog.Logger) *SummaryRenderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SummaryRenderer{
		Dir:     cfg.ImagePath,
		Scale:   cfg.Scale,
		TimeMin: cfg.TimeMin,
		TimeMax: cfg.TimeMax,
		Logger:  logger,
	}
}

// SummaryPath returns the artifact path of station inside dir.
func SummaryPath(dir, station string) string {
	return filepath.Join(dir, station+summarySuffix)
}

// RenderSummary writes <Dir>/<station>_R.ps and returns its path.
func (r *SummaryRenderer) RenderSummary(ctx context.Context, station model.Station, records []model.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.Dir == "" {
		return "", fmt.Errorf("%w: image path is not configured", model.ErrInvalidInput)
	}
	if r.TimeMax <= r.TimeMin {
		return "", fmt.Errorf("%w: time window [%g, %g]", model.ErrInvalidInput, r.TimeMin, r.TimeMax)
	}
	traces, err := r.tracePanel(station, records)
	if err != nil {
		return "", err
	}
	bazs, err := backazimuthPanel(records)
	if err != nil {
		return "", err
	}

	height := rowHeight * vg.Length(len(records)+2)
	if height < minPageHeight {
		height = minPageHeight
	}
	canvas := vgeps.NewTitle(pageWidth, height, station.Name)
	dc := draw.New(canvas)
	split := pageWidth * tracePanelShare
	traces.Draw(draw.Crop(dc, 0, split-pageWidth, 0, 0))
	bazs.Draw(draw.Crop(dc, split, 0, 0, 0))

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := SummaryPath(r.Dir, station.Name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	if _, err := canvas.WriteTo(f); err != nil {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
		return "", fmt.Errorf("write summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close summary: %w", err)
	}
	r.Logger.Info("summary written", slog.String("path", path), slog.Int("traces", len(records)))
	return path, nil
}

func (r *SummaryRenderer) tracePanel(station model.Station, records []model.Record) (*gplot.Plot, error) {
	p := gplot.New()
	p.Title.Text = fmt.Sprintf("%s (Latitude: %.2f°, Longitude: %.2f°)", station.Name, station.Lat, station.Lon)
	p.X.Label.Text = "Time after P (s)"
	p.X.Min, p.X.Max = r.TimeMin, r.TimeMax
	p.Y.Min, p.Y.Max = 0, float64(len(records)+1)
	p.X.Tick.Marker = gplot.ConstantTicks(stepTicks(r.TimeMin, r.TimeMax, timeTickStep))
	p.Y.Tick.Marker = gplot.ConstantTicks(rowTicks(records, func(rec model.Record) string {
		return rec.Identifier
	}))

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: p.Y.Min}, {X: 0, Y: p.Y.Max}})
	if err != nil {
		return nil, err
	}
	zero.LineStyle.Width = vg.Points(0.4)
	p.Add(zero)

	for i, rec := range records {
		offset := float64(i + 1)
		wave := windowed(rec.Trace, r.TimeMin, r.TimeMax, r.Scale, offset)
		if len(wave) < 2 {
			continue
		}
		pos, err := lobe(wave, offset, math.Max)
		if err != nil {
			return nil, err
		}
		pos.Color = positiveFill
		pos.LineStyle.Width = 0
		neg, err := lobe(wave, offset, math.Min)
		if err != nil {
			return nil, err
		}
		neg.Color = negativeFill
		neg.LineStyle.Width = 0
		line, err := plotter.NewLine(wave)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", rec.Identifier, err)
		}
		line.LineStyle.Width = vg.Points(0.3)
		line.LineStyle.Color = color.Black
		p.Add(pos, neg, line)
	}
	return p, nil
}

func backazimuthPanel(records []model.Record) (*gplot.Plot, error) {
	p := gplot.New()
	p.X.Label.Text = "Backazimuth (°)"
	p.X.Min, p.X.Max = 0, 360
	p.Y.Min, p.Y.Max = 0, float64(len(records)+1)
	p.X.Tick.Marker = gplot.ConstantTicks(stepTicks(0, 360, bazTickStep))
	p.Y.Tick.Marker = gplot.ConstantTicks(rowTicks(records, func(rec model.Record) string {
		return fmt.Sprintf("%5.2f", rec.Trace.Backazimuth)
	}))
	pts := make(plotter.XYs, len(records))
	for i, rec := range records {
		pts[i] = plotter.XY{X: rec.Trace.Backazimuth, Y: float64(i + 1)}
	}
	if len(pts) == 0 {
		return p, nil
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Color = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(scatter)
	return p, nil
}

// windowed returns the trace points within [tmin, tmax], amplitudes scaled
// and shifted to offset.
func windowed(tr model.Trace, tmin, tmax, scale, offset float64) plotter.XYs {
	out := make(plotter.XYs, 0, len(tr.Samples))
	for i, v := range tr.Samples {
		t := tr.Begin + float64(i)*tr.Delta
		if t < tmin || t > tmax {
			continue
		}
		out = append(out, plotter.XY{X: t, Y: v*scale + offset})
	}
	return out
}

// lobe builds the polygon between the baseline at offset and the wave,
// clipped by pick to one side of it.
func lobe(wave plotter.XYs, offset float64, pick func(a, b float64) float64) (*plotter.Polygon, error) {
	pts := make(plotter.XYs, 0, len(wave)+2)
	pts = append(pts, plotter.XY{X: wave[0].X, Y: offset})
	for _, pt := range wave {
		pts = append(pts, plotter.XY{X: pt.X, Y: pick(pt.Y, offset)})
	}
	pts = append(pts, plotter.XY{X: wave[len(wave)-1].X, Y: offset})
	return plotter.NewPolygon(pts)
}

func rowTicks(records []model.Record, label func(model.Record) string) []gplot.Tick {
	ticks := make([]gplot.Tick, len(records))
	for i, rec := range records {
		ticks[i] = gplot.Tick{Value: float64(i + 1), Label: label(rec)}
	}
	return ticks
}

func stepTicks(lo, hi, step float64) []gplot.Tick {
	var ticks []gplot.Tick
	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		ticks = append(ticks, gplot.Tick{Value: v, Label: fmt.Sprintf("%g", v)})
	}
	return ticks
}
