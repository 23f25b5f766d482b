// Package tui provides the Bubble Tea trace review interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/rfpick/internal/logging"
	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/review"
)

// headerHeight is the number of lines above the first trace row.
const headerHeight = 3

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	keptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	keptWaveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C8553A"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#2A2A2A"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Recorder stores finalized reviews.
type Recorder interface {
	InsertReview(ctx context.Context, summary model.ReviewSummary, decisions []model.Decision) (int64, error)
}

// Options configures the review UI.
type Options struct {
	Context  context.Context
	Session  *review.Session
	Recorder Recorder
	Logger   *slog.Logger
	ReviewID string
}

// Result is the outcome of a finished review UI.
type Result struct {
	Finalized bool
	Aborted   bool
	Report    review.FinalizeReport
	Err       error
}

// Model implements the Bubble Tea review UI.
type Model struct {
	ctx       context.Context
	session   *review.Session
	recorder  Recorder
	logger    *slog.Logger
	reviewID  string
	startedAt time.Time

	keys keyMap
	help help.Model

	width  int
	height int

	cursor int
	// offset is the first page row drawn when the page is taller than the
	// window.
	offset     int
	confirming bool
	status     string
	statusErr  bool

	result Result
}

// NewModel constructs a review UI model.
func NewModel(opts Options) *Model {
	m := &Model{
		ctx:       opts.Context,
		session:   opts.Session,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		reviewID:  opts.ReviewID,
		startedAt: time.Now(),
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	return m
}

// Result returns the outcome once the program has exited.
func (m *Model) Result() Result {
	return m.result
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.confirming = false
		pos := msg.Y - headerHeight
		if pos < 0 || pos >= m.visibleRows() {
			return m, nil
		}
		pos += m.offset
		if pos >= len(m.session.View().Rows) {
			return m, nil
		}
		m.cursor = pos
		m.dispatch(review.Event{Type: review.EventSelect, Position: pos})
		return m, nil
	case tea.KeyMsg:
		next, cmd := m.handleKey(msg)
		m.scrollToCursor()
		return next, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		m.confirming = false
		if key.Matches(msg, m.keys.Confirm) {
			return m.finalize()
		}
		m.setStatus("Finish canceled.", false)
		if !key.Matches(msg, m.keys.Quit) {
			return m, nil
		}
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.dispatch(review.Event{Type: review.EventAbort})
		m.result.Aborted = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.session.View().Rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.dispatch(review.Event{Type: review.EventSelect, Position: m.cursor})
	case key.Matches(msg, m.keys.Next):
		m.dispatch(review.Event{Type: review.EventNextPage})
		m.clampCursor()
	case key.Matches(msg, m.keys.Prev):
		m.dispatch(review.Event{Type: review.EventPreviousPage})
		m.clampCursor()
	case key.Matches(msg, m.keys.Render):
		out, err := m.dispatch(review.Event{Type: review.EventRenderSummary})
		if err == nil && out.Summary != nil {
			m.reportSummary(*out.Summary)
		}
	case key.Matches(msg, m.keys.Finalize):
		m.confirming = true
		rejected := m.session.Len() - m.session.KeptCount()
		m.setStatus(fmt.Sprintf("Finish review: delete %d rejected traces and write the catalog? (y/N)", rejected), false)
	}
	return m, nil
}

func (m *Model) dispatch(ev review.Event) (review.Outcome, error) {
	out, err := m.session.Dispatch(m.ctx, ev)
	switch {
	case err == nil:
		if out.Toggle != nil {
			verb := "Rejected"
			if out.Toggle.Kept {
				verb = "Kept"
			}
			m.setStatus(fmt.Sprintf("%s %s", verb, out.Toggle.Identifier), false)
		} else if ev.Type == review.EventNextPage || ev.Type == review.EventPreviousPage {
			m.setStatus("", false)
		}
	case errors.Is(err, model.ErrOutOfRange):
		m.setStatus("No trace on that row.", true)
	default:
		m.setStatus(err.Error(), true)
	}
	return out, err
}

func (m *Model) reportSummary(s review.SummaryResult) {
	switch {
	case s.Opened:
		m.setStatus(fmt.Sprintf("Plotted %d traces to %s", s.Traces, s.Path), false)
	case errors.Is(s.ViewerErr, model.ErrMissingViewer):
		m.setStatus(fmt.Sprintf("Plotted %d traces to %s (no viewer available)", s.Traces, s.Path), false)
	default:
		m.setStatus(fmt.Sprintf("Plotted %d traces to %s (viewer failed: %v)", s.Traces, s.Path, s.ViewerErr), true)
	}
}

func (m *Model) finalize() (tea.Model, tea.Cmd) {
	out, err := m.dispatch(review.Event{Type: review.EventFinalize})
	if out.Report == nil {
		return m, nil
	}
	m.result.Finalized = true
	m.result.Report = *out.Report
	m.result.Err = err
	m.record(*out.Report)
	return m, tea.Quit
}

func (m *Model) record(report review.FinalizeReport) {
	if m.recorder == nil {
		return
	}
	summary := model.ReviewSummary{
		ReviewID:    m.reviewID,
		Station:     m.session.Station().Name,
		StartedAt:   m.startedAt,
		EndedAt:     time.Now(),
		Total:       report.Total,
		Kept:        report.Kept,
		Rejected:    report.Rejected,
		CatalogPath: report.CatalogPath,
	}
	if _, err := m.recorder.InsertReview(context.WithoutCancel(m.ctx), summary, m.session.Decisions()); err != nil {
		m.logger.Warn("failed to record review history", slog.String("review_id", m.reviewID), logging.Error(err))
	}
}

func (m *Model) clampCursor() {
	rows := len(m.session.View().Rows)
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// visibleRows is the number of trace rows that fit between the header and
// the footer.
func (m *Model) visibleRows() int {
	return maxInt(1, m.height-headerHeight-lipgloss.Height(m.renderFooter()))
}

// scrollToCursor moves offset so the cursor row is drawn.
func (m *Model) scrollToCursor() {
	if m.height == 0 {
		return
	}
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if last := len(m.session.View().Rows) - visible; m.offset > last {
		m.offset = maxInt(0, last)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	view := m.session.View()
	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderTitle(), m.renderPageInfo(view), columnHeader(m.width))
	end := min(len(view.Rows), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(view.Rows[i], i == m.cursor))
	}
	footer := m.renderFooter()
	footerHeight := lipgloss.Height(footer)
	for len(lines) < m.height-footerHeight {
		lines = append(lines, "")
	}
	if len(lines) > m.height-footerHeight {
		lines = lines[:maxInt(0, m.height-footerHeight)]
	}
	return strings.Join(lines, "\n") + "\n" + footer
}

func (m *Model) renderTitle() string {
	st := m.session.Station()
	title := fmt.Sprintf("%s (Latitude: %.2f°, Longitude: %.2f°)", st.Name, st.Lat, st.Lon)
	return titleStyle.Render(fitWidth(title, m.width))
}

func (m *Model) renderPageInfo(view review.PageView) string {
	info := fmt.Sprintf("Page %d/%d  Traces %d-%d of %d  Kept %d  Rejected %d",
		view.Page+1, view.PageCount, view.Range.Start+1, view.Range.End, m.session.Len(),
		m.session.KeptCount(), m.session.Len()-m.session.KeptCount())
	if visible := m.visibleRows(); len(view.Rows) > visible {
		first := view.Range.Start + m.offset
		info += fmt.Sprintf("  Showing %d-%d", first+1, first+min(visible, len(view.Rows)-m.offset))
	}
	return headerStyle.Render(fitWidth(info, m.width))
}

func (m *Model) renderFooter() string {
	status := fitWidth(m.status, m.width)
	if m.statusErr {
		status = errorStyle.Render(status)
	} else {
		status = statusStyle.Render(status)
	}
	return status + "\n" + m.help.View(m.keys)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
