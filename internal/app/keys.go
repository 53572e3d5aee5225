package app

import "github.com/charmbracelet/bubbles/key"

// watchKeys are the receive screen bindings.
type watchKeys struct {
	Start key.Binding
	Stop  key.Binding
	Drop  key.Binding
	Quit  key.Binding
}

func newWatchKeys(demo bool) watchKeys {
	k := watchKeys{
		Start: key.NewBinding(
			key.WithKeys("s", "S"),
			key.WithHelp("s", "tart"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x", "X"),
			key.WithHelp("x", " stop"),
		),
		Drop: key.NewBinding(
			key.WithKeys("d", "D"),
			key.WithHelp("d", "rop link"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "uit"),
		),
	}
	k.Drop.SetEnabled(demo)
	return k
}

func (k watchKeys) bar() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Drop, k.Quit}
}

// pairKeys are the pairing screen bindings.
type pairKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Yes    key.Binding
	No     key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

func newPairKeys() pairKeys {
	return pairKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", " up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", " down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", " pair"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "es"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "o"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r", "R"),
			key.WithHelp("r", "escan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "uit"),
		),
	}
}
