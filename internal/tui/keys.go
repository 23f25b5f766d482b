package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Render   key.Binding
	Finalize key.Binding
	Confirm  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter", "x"),
			key.WithHelp("space", "keep/reject"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l", "n", "pgdown"),
			key.WithHelp("→/n", "next page"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h", "p", "pgup"),
			key.WithHelp("←/p", "prev page"),
		),
		Render: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "plot kept"),
		),
		Finalize: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "finish"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit without saving"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Next, k.Prev, k.Render, k.Finalize, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Next, k.Prev},
		{k.Render, k.Finalize, k.Quit},
	}
}
