package historyui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/rfpick/internal/model"
	"github.com/verte-zerg/rfpick/internal/store"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rfpick.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	end := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	for i, station := range []string{"TST", "ABC"} {
		_, err := st.InsertReview(context.Background(), model.ReviewSummary{
			ReviewID: station,
			Station:  station,
			EndedAt:  end.Add(time.Duration(i) * time.Hour),
			Total:    4,
			Kept:     3 - i,
			Rejected: 1 + i,
		}, []model.Decision{
			{Identifier: station + "-2024.150.01.00.00", Backazimuth: 100, Kept: true},
			{Identifier: station + "-2024.150.02.00.00", Backazimuth: 250, Kept: false},
		})
		if err != nil {
			t.Fatalf("insert review: %v", err)
		}
	}
	m := NewModel(st, model.HistoryFilter{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		case "esc":
			m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		case "tab":
			m.Update(tea.KeyMsg{Type: tea.KeyTab})
		case "right":
			m.Update(tea.KeyMsg{Type: tea.KeyRight})
		case "left":
			m.Update(tea.KeyMsg{Type: tea.KeyLeft})
		default:
			m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

func TestOverviewShowsTotals(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, "Reviews") || !strings.Contains(view, "62.5%") {
		t.Fatalf("expected summary cards in view:\n%s", view)
	}
	if lines := strings.Split(view, "\n"); len(lines) != 30 {
		t.Fatalf("expected view to fill 30 lines, got %d", len(lines))
	}
}

func TestTabsCycle(t *testing.T) {
	m := newTestModel(t)
	press(m, "right")
	if m.active != tabReviews {
		t.Fatalf("expected reviews tab, got %d", m.active)
	}
	if !strings.Contains(m.View(), "ABC") {
		t.Fatalf("expected review rows in view")
	}
	press(m, "left", "left")
	if m.active != tabSectors {
		t.Fatalf("expected wrap to last tab, got %d", m.active)
	}
}

func TestOpenReviewDecisions(t *testing.T) {
	m := newTestModel(t)
	press(m, "enter")
	if m.detail != nil {
		t.Fatalf("enter on the overview must not open a review")
	}
	press(m, "right", "enter")
	if m.detail == nil {
		t.Fatalf("expected review detail")
	}
	if m.detail.Review.Station != "ABC" {
		t.Fatalf("expected newest review first, got %s", m.detail.Review.Station)
	}
	view := m.View()
	if !strings.Contains(view, "ABC-2024.150.02.00.00") || !strings.Contains(view, "rejected") {
		t.Fatalf("expected decisions in view:\n%s", view)
	}
	press(m, "right")
	if m.active != tabReviews {
		t.Fatalf("tabs must not change while a review is open")
	}
	press(m, "esc")
	if m.detail != nil {
		t.Fatalf("expected esc to close the review")
	}
}

func TestFilterByStation(t *testing.T) {
	m := newTestModel(t)
	press(m, "/")
	if !m.form.active {
		t.Fatalf("expected filter form")
	}
	press(m, "T", "S", "T", "q")
	if !m.form.active {
		t.Fatalf("q must be typed into the form, not quit")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	press(m, "enter")
	if m.form.active || m.filter.Station != "TST" {
		t.Fatalf("expected station filter applied, got %+v", m.filter)
	}
	if len(m.report.Reviews) != 1 || m.report.Reviews[0].Station != "TST" {
		t.Fatalf("unexpected filtered reviews %+v", m.report.Reviews)
	}
	if !strings.Contains(m.View(), "station TST") {
		t.Fatalf("expected filter summary in header")
	}
}

func TestFilterRejectsBadDate(t *testing.T) {
	m := newTestModel(t)
	press(m, "/", "tab", "J", "u", "n", "e", "enter")
	if !m.form.active || m.form.err == "" {
		t.Fatalf("expected filter error")
	}
	press(m, "esc")
	if m.form.active || m.filter.Since != nil {
		t.Fatalf("expected form closed with filter unchanged, got %+v", m.filter)
	}
}
