// Package plot renders receiver-function traces: braille text for the
// terminal and an EPS summary figure for print.
package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is a named data series for a text plot.
type Series struct {
	Name   string
	Values []float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	waveformRows        = 4
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var colorPalette = []ansiColor{
	{name: "green", code: "\x1b[32m"},
	{name: "red", code: "\x1b[31m"},
	{name: "cyan", code: "\x1b[36m"},
	{name: "yellow", code: "\x1b[33m"},
}

// Waveform renders samples within [tmin, tmax] as a single line of width
// braille cells. Amplitudes are multiplied by scale; a scaled value of +1 or
// -1 reaches the top or bottom dot row. Times outside the trace leave the
// cell blank.
func Waveform(samples []float64, begin, delta, tmin, tmax float64, width int, scale float64) string {
	if width <= 0 {
		return ""
	}
	cells := makeCells(1, width)
	if len(samples) == 0 || delta <= 0 || tmax <= tmin {
		return renderRow(cells[0])
	}
	cols := width * 2
	span := (tmax - tmin) / float64(cols)
	prevX, prevY := -1, -1
	for x := 0; x < cols; x++ {
		lo := tmin + float64(x)*span
		v, ok := peakIn(samples, begin, delta, lo, lo+span)
		if !ok {
			prevX, prevY = -1, -1
			continue
		}
		y := amplitudeRow(v * scale)
		if prevX >= 0 {
			drawLine(prevX, prevY, x, y, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, x, y)
		}
		prevX, prevY = x, y
	}
	return renderRow(cells[0])
}

// peakIn returns the sample of largest magnitude whose time falls in
// [lo, hi). When no sample falls inside, the nearest sample is used as long
// as the interval overlaps the trace.
func peakIn(samples []float64, begin, delta, lo, hi float64) (float64, bool) {
	end := begin + float64(len(samples)-1)*delta
	if hi <= begin || lo > end {
		return 0, false
	}
	first := int(math.Ceil((lo - begin) / delta))
	last := int(math.Ceil((hi-begin)/delta)) - 1
	if first < 0 {
		first = 0
	}
	if last >= len(samples) {
		last = len(samples) - 1
	}
	if first > last {
		idx := int(math.Round((lo + (hi-lo)/2 - begin) / delta))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		return samples[idx], true
	}
	peak := samples[first]
	for _, v := range samples[first+1 : last+1] {
		if math.Abs(v) > math.Abs(peak) {
			peak = v
		}
	}
	return peak, true
}

func amplitudeRow(v float64) int {
	mid := float64(waveformRows-1) / 2
	row := int(math.Round(mid - v*mid))
	if row < 0 {
		row = 0
	}
	if row >= waveformRows {
		row = waveformRows - 1
	}
	return row
}

func renderRow(cells []uint8) string {
	var b strings.Builder
	for _, mask := range cells {
		b.WriteRune(brailleFromMask(mask))
	}
	return b.String()
}

// PlotSeries renders a multi-line braille plot of series sharing one value
// axis between lo and hi. When lo equals hi the range is taken from the data.
func PlotSeries(w io.Writer, title string, series []Series, lo, hi float64, width, height int) error {
	return plotSeries(w, title, series, lo, hi, width, height, false)
}

// PlotSeriesWithColor is PlotSeries with forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, lo, hi float64, width, height int) error {
	return plotSeries(w, title, series, lo, hi, width, height, true)
}

func plotSeries(w io.Writer, title string, series []Series, lo, hi float64, width, height int, forceColor bool) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	if lo == hi {
		lo, hi = seriesMinMax(series)
	}
	if math.Abs(hi-lo) < 1e-9 {
		lo--
		hi++
	}

	seriesCells := make([][][]uint8, len(series))
	for si, s := range series {
		seriesCells[si] = makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		values := resampleSeries(s.Values, width)
		prevX, prevY := -1, -1
		for x, v := range values {
			px := x * 2
			py := valueToRow(v, lo, hi, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(seriesCells[si], dx, dy)
					}
				})
			} else {
				setBrailleDot(seriesCells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, forceColor)
	labels := makeAxisLabels(height, lo, hi)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", axisLabelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(seriesCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if len(series) > 1 {
		if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
			return err
		}
	}
	return nil
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// PlotWidthFor returns the plot width that fits totalWidth columns including
// the value axis.
func PlotWidthFor(totalWidth int) int {
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	return terminalWidth()
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatAxis(hi)
	if height > 2 {
		labels[height/2] = formatAxis(hi - (hi-lo)*float64(height/2)/float64(height-1))
	}
	if height > 1 {
		labels[height-1] = formatAxis(lo)
	}
	return labels
}

func formatAxis(v float64) string {
	if math.Abs(v) >= 100 || v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) >= width {
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	if len(values) == 1 || width == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func seriesMinMax(series []Series) (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func valueToRow(v, lo, hi float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	if row < 0 {
		row = 0
	}
	if row >= rows {
		row = rows - 1
	}
	return row
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, lineStyles[i%len(lineStyles)].name)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

// drawLine walks a Bresenham line from (x0, y0) to (x1, y1).
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot inside a 2x4 cell to its Unicode braille bit.
func brailleDotMask(x, y int) uint8 {
	if x == 0 {
		return [4]uint8{0x01, 0x02, 0x04, 0x40}[y]
	}
	return [4]uint8{0x08, 0x10, 0x20, 0x80}[y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
