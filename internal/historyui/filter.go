package historyui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/rfpick/internal/model"
)

const dateLayout = "2006-01-02"

const (
	fieldStation = iota
	fieldSince
	fieldLast
	fieldCount
)

// filterForm edits a history filter in place of the tab body.
type filterForm struct {
	active bool
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newFilterForm() filterForm {
	var f filterForm
	prompts := [fieldCount]string{"Station: ", "Since (YYYY-MM-DD): ", "Last N reviews: "}
	for i, prompt := range prompts {
		in := textinput.New()
		in.Prompt = prompt
		in.Cursor.SetMode(cursor.CursorBlink)
		f.inputs[i] = in
	}
	return f
}

// open fills the inputs from filter and focuses the first one.
func (f *filterForm) open(filter model.HistoryFilter) tea.Cmd {
	f.active = true
	f.err = ""
	f.inputs[fieldStation].SetValue(filter.Station)
	f.inputs[fieldSince].SetValue("")
	if filter.Since != nil {
		f.inputs[fieldSince].SetValue(filter.Since.Format(dateLayout))
	}
	f.inputs[fieldLast].SetValue("")
	if filter.Last > 0 {
		f.inputs[fieldLast].SetValue(strconv.Itoa(filter.Last))
	}
	return f.focusField(fieldStation)
}

func (f *filterForm) close() {
	f.active = false
	f.err = ""
}

func (f *filterForm) focusField(idx int) tea.Cmd {
	f.focus = (idx + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

// update handles a key while the form is open. It returns the parsed filter
// and true when the user applied it.
func (f *filterForm) update(msg tea.KeyMsg) (model.HistoryFilter, bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.close()
		return model.HistoryFilter{}, false, nil
	case tea.KeyEnter:
		filter, err := f.parse()
		if err != nil {
			f.err = err.Error()
			return model.HistoryFilter{}, false, nil
		}
		f.close()
		return filter, true, nil
	case tea.KeyTab, tea.KeyDown:
		return model.HistoryFilter{}, false, f.focusField(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return model.HistoryFilter{}, false, f.focusField(f.focus - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return model.HistoryFilter{}, false, cmd
}

func (f *filterForm) parse() (model.HistoryFilter, error) {
	filter := model.HistoryFilter{Station: strings.TrimSpace(f.inputs[fieldStation].Value())}
	if raw := strings.TrimSpace(f.inputs[fieldSince].Value()); raw != "" {
		since, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return model.HistoryFilter{}, errors.New("since must be a date like 2024-06-01")
		}
		filter.Since = &since
	}
	if raw := strings.TrimSpace(f.inputs[fieldLast].Value()); raw != "" {
		last, err := strconv.Atoi(raw)
		if err != nil || last < 0 {
			return model.HistoryFilter{}, errors.New("last must be 0 or a positive number")
		}
		filter.Last = last
	}
	return filter, nil
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = maxInt(10, width-len(f.inputs[i].Prompt)-2)
	}
}

func (f *filterForm) view() string {
	lines := []string{"Filter reviews (enter to apply, esc to cancel)", ""}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func describeFilter(filter model.HistoryFilter) string {
	station := "any"
	if filter.Station != "" {
		station = filter.Station
	}
	since := "any"
	if filter.Since != nil {
		since = filter.Since.Format(dateLayout)
	}
	last := "all"
	if filter.Last > 0 {
		last = strconv.Itoa(filter.Last)
	}
	return "station " + station + " · since " + since + " · last " + last
}
