package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keys understood by the confirmation prompt.
type KeyMap struct {
	Yes   key.Binding
	No    key.Binding
	Enter key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default keybindings for the prompt.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "install"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N"),
			key.WithHelp("n", "not now"),
		),
		// Enter takes the default answer, which is no.
		Enter: key.NewBinding(
			key.WithKeys("enter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
		),
	}
}
