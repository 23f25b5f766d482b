// Package historyui is the interactive browser for finished reviews.
package historyui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/rfpick/internal/history"
	"github.com/verte-zerg/rfpick/internal/model"
)

type tab int

const (
	tabOverview tab = iota
	tabReviews
	tabSectors
	tabCount
)

var tabNames = [tabCount]string{"Overview", "Reviews", "Backazimuth"}

// Model implements tea.Model for the history browser.
type Model struct {
	src    history.Source
	filter model.HistoryFilter
	keys   keyMap
	help   help.Model

	report history.Report
	// newestFirst mirrors the row order of the reviews table.
	newestFirst []model.ReviewAggregate
	detail      *history.Detail
	errMsg      string

	active    tab
	overview  viewport.Model
	reviews   table.Model
	sectors   table.Model
	decisions table.Model

	form filterForm

	width  int
	height int
}

// NewModel loads the reviews matching filter from src.
func NewModel(src history.Source, filter model.HistoryFilter) *Model {
	m := &Model{
		src:       src,
		filter:    filter,
		keys:      defaultKeyMap(),
		help:      help.New(),
		overview:  viewport.New(0, 0),
		reviews:   newTable(),
		sectors:   newTable(),
		decisions: newTable(),
		form:      newFilterForm(),
	}
	m.keys.setTab(m.active, false)
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if m.form.active {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			filter, applied, cmd := m.form.update(msg)
			if applied {
				m.filter = filter
				m.detail = nil
				m.reload()
				m.resize()
			}
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.closeDetail()
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
		return m, tea.ClearScreen
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
		return m, tea.ClearScreen
	case key.Matches(msg, m.keys.Open):
		m.openDetail()
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.closeDetail()
		m.form.setWidth(m.width)
		return m, m.form.open(m.filter)
	case key.Matches(msg, m.keys.Top):
		if t := m.focusedTable(); t != nil {
			t.GotoTop()
		} else {
			m.overview.GotoTop()
		}
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		if t := m.focusedTable(); t != nil {
			t.GotoBottom()
		} else {
			m.overview.GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	if t := m.focusedTable(); t != nil {
		*t, cmd = t.Update(msg)
		return m, cmd
	}
	m.overview, cmd = m.overview.Update(msg)
	return m, cmd
}

// focusedTable returns the table receiving scroll keys, or nil on the
// overview.
func (m *Model) focusedTable() *table.Model {
	if m.detail != nil {
		return &m.decisions
	}
	switch m.active {
	case tabReviews:
		return &m.reviews
	case tabSectors:
		return &m.sectors
	default:
		return nil
	}
}

func (m *Model) switchTab(delta int) {
	m.active = tab((int(m.active) + delta + int(tabCount)) % int(tabCount))
	m.reviews.Blur()
	m.sectors.Blur()
	if t := m.focusedTable(); t != nil {
		t.Focus()
	}
	m.keys.setTab(m.active, false)
}

func (m *Model) openDetail() {
	cursor := m.reviews.Cursor()
	if cursor < 0 || cursor >= len(m.newestFirst) {
		return
	}
	detail, err := history.LoadDetail(context.Background(), m.src, m.newestFirst[cursor])
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load decisions: %v", err)
		return
	}
	m.errMsg = ""
	m.detail = &detail
	headers, rows := history.DecisionRows(detail.Decisions)
	setTableData(&m.decisions, headers, rows)
	m.decisions.GotoTop()
	m.decisions.Focus()
	m.keys.setTab(m.active, true)
}

func (m *Model) closeDetail() {
	if m.detail == nil {
		return
	}
	m.detail = nil
	m.decisions.Blur()
	m.keys.setTab(m.active, false)
}

func (m *Model) reload() {
	report, err := history.BuildReport(context.Background(), m.src, m.filter)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to load history: %v", err)
		m.report = history.Report{}
		m.newestFirst = nil
		m.overview.SetContent("")
		return
	}
	m.errMsg = ""
	m.report = report
	m.newestFirst = make([]model.ReviewAggregate, len(report.Reviews))
	for i, r := range report.Reviews {
		m.newestFirst[len(report.Reviews)-1-i] = r
	}
	headers, rows := history.ReviewRows(report.Reviews)
	setTableData(&m.reviews, headers, rows)
	headers, rows = history.SectorRows(report.Sectors)
	setTableData(&m.sectors, headers, rows)
	m.renderOverview()
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	body := m.bodyHeight()
	m.overview.Width = m.width
	m.overview.Height = body
	for _, t := range []*table.Model{&m.reviews, &m.sectors} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, body-1))
	}
	m.decisions.SetWidth(m.width)
	m.decisions.SetHeight(maxInt(1, body-2))
	m.form.setWidth(m.width)
}
