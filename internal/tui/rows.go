package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/rfpick/internal/plot"
	"github.com/verte-zerg/rfpick/internal/review"
)

const (
	cursorWidth     = 2
	markerWidth     = 4
	identifierWidth = 17
	labelWidth      = 6
	minWaveWidth    = 10
)

// waveWidth returns the waveform column width that fits a row into width.
func waveWidth(width int) int {
	w := width - cursorWidth - markerWidth - identifierWidth - labelWidth - 2
	if w < minWaveWidth {
		return minWaveWidth
	}
	return w
}

func columnHeader(width int) string {
	line := strings.Repeat(" ", cursorWidth+markerWidth) +
		runewidth.FillRight("Event", identifierWidth) + " " +
		runewidth.FillRight("R component", waveWidth(width)) + " " +
		runewidth.FillLeft("BAZ", labelWidth)
	return headerStyle.Render(fitWidth(line, width))
}

func (m *Model) renderRow(row review.Row, selected bool) string {
	cfg := m.session.Config()
	cursor := "  "
	if selected {
		cursor = "> "
	}
	marker := "[x] "
	style := keptStyle
	waveStyle := keptWaveStyle
	if !row.Kept {
		marker = "[ ] "
		style = rejectedStyle
		waveStyle = rejectedStyle
	}
	wave := ""
	if rec, ok := m.session.Record(row.Index); ok {
		tr := rec.Trace
		wave = plot.Waveform(tr.Samples, tr.Begin, tr.Delta, cfg.TimeMin, cfg.TimeMax, waveWidth(m.width), cfg.Scale)
	}
	line := style.Render(cursor+marker+runewidth.FillRight(runewidth.Truncate(row.Identifier, identifierWidth, ""), identifierWidth)) +
		" " + waveStyle.Render(wave) + " " +
		style.Render(runewidth.FillLeft(row.BackazimuthLabel, labelWidth))
	if selected {
		line = selectedStyle.Render(line)
	}
	return line
}

// fitWidth truncates or pads s to exactly width cells.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := lipgloss.Width(s)
	if w > width {
		return runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-w)
}
