package historyui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/rfpick/internal/history"
)

const detailTimeLayout = "2006-01-02 15:04"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8FC8"))
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0B0B0")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
	rejectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle      = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := fitLines(m.headerView(), m.width, m.headerHeight())
	body := fitLines(m.bodyView(), m.width, m.bodyHeight())
	footer := fitLines(m.footerView(), m.width, m.footerHeight())
	return header + "\n" + body + "\n" + footer
}

func (m *Model) headerHeight() int {
	return lipgloss.Height(activeTabStyle.Render("x")) + 1
}

func (m *Model) footerHeight() int {
	if m.errMsg != "" && !m.form.active {
		return 2
	}
	return 1
}

func (m *Model) bodyHeight() int {
	return maxInt(1, m.height-m.headerHeight()-m.footerHeight())
}

func (m *Model) headerView() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		style := tabStyle
		if tab(i) == m.active {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(name))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return bar + "\n" + mutedStyle.Render(truncateLine("Filter: "+describeFilter(m.filter), m.width))
}

func (m *Model) bodyView() string {
	if m.form.active {
		return m.form.view()
	}
	if m.detail != nil {
		return m.detailView()
	}
	if m.active == tabOverview {
		return m.overview.View()
	}
	if len(m.report.Reviews) == 0 {
		return "No reviews found."
	}
	return m.focusedTable().View()
}

func (m *Model) detailView() string {
	r := m.detail.Review
	title := fmt.Sprintf("%s  %s  %d of %d kept (%.1f%%)",
		r.Station, r.EndedAt.Local().Format(detailTimeLayout), r.Kept, r.Total,
		history.AcceptanceRate(r.Kept, r.Total))
	if len(m.detail.Decisions) == 0 {
		return titleStyle.Render(title) + "\n\nNo decisions recorded."
	}
	return titleStyle.Render(truncateLine(title, m.width)) + "\n" + m.decisions.View()
}

func (m *Model) footerView() string {
	if m.form.active {
		return mutedStyle.Render("tab: next field  shift+tab: previous field")
	}
	footer := m.help.View(m.keys)
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return footer
}

func (m *Model) renderOverview() {
	if len(m.report.Reviews) == 0 {
		m.overview.SetContent("No reviews found.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	content := summaryCards(history.Summarize(m.report.Reviews), width)
	if curve := history.RenderCurve(m.report.Reviews, width); curve != "" {
		content += "\n\n" + curve
	}
	m.overview.SetContent(content)
}

func summaryCards(t history.Totals, width int) string {
	rejected := cardStyle.Render(cardLabelStyle.Render("Rejected") + "\n" + rejectedStyle.Bold(true).Render(fmt.Sprintf("%d", t.Rejected)))
	cards := []string{
		card("Reviews", fmt.Sprintf("%d", t.Reviews)),
		card("Stations", fmt.Sprintf("%d", t.Stations)),
		card("Traces", fmt.Sprintf("%d", t.Traces)),
		card("Kept", fmt.Sprintf("%d", t.Kept)),
		rejected,
		card("Accepted", fmt.Sprintf("%.1f%%", history.AcceptanceRate(t.Kept, t.Traces))),
	}
	if width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...),
		lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...),
	)
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func newTable() table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1, 0, 0)
	styles.Cell = styles.Cell.Padding(0, 1, 0, 0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	t := table.New(table.WithHeight(1))
	t.SetStyles(styles)
	return t
}

// setTableData replaces the columns and rows of t, sizing each column to its
// widest cell.
func setTableData(t *table.Model, headers []string, rows [][]string) {
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: lipgloss.Width(h)}
	}
	tableRows := make([]table.Row, len(rows))
	for r, row := range rows {
		for i := range cols {
			if i < len(row) {
				cols[i].Width = maxInt(cols[i].Width, lipgloss.Width(row[i]))
			}
		}
		tableRows[r] = table.Row(row)
	}
	// Rows must be cleared first: SetColumns renders the current rows.
	t.SetRows(nil)
	t.SetColumns(cols)
	t.SetRows(tableRows)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// fitLines pads or cuts s to exactly height lines of width columns.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
