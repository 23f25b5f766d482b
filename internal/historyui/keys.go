package historyui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevTab key.Binding
	NextTab key.Binding
	Open    key.Binding
	Back    key.Binding
	Filter  key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevTab: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next tab"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "decisions"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevTab, k.NextTab, k.Open, k.Back, k.Filter, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevTab, k.NextTab, k.Open, k.Back},
		{k.Top, k.Bottom, k.Filter, k.Quit},
	}
}

// setTab enables the bindings that apply on tab t.
func (k *keyMap) setTab(t tab, inDetail bool) {
	k.Open.SetEnabled(t == tabReviews && !inDetail)
	k.Back.SetEnabled(inDetail)
	k.PrevTab.SetEnabled(!inDetail)
	k.NextTab.SetEnabled(!inDetail)
}
