package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings shared by the wizards.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Back     key.Binding
	Quit     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
	}
}

// ReviewHelpText returns the help line of a wizard's review step.
func (k KeyMap) ReviewHelpText(target string) string {
	return "enter save to " + target + " • esc back • ctrl+c quit"
}

// InputHelpText returns help text for input steps.
func (k KeyMap) InputHelpText() string {
	return "tab next field • enter continue • esc back"
}

// SelectHelpText returns the help line of a selection step.
func (k KeyMap) SelectHelpText() string {
	return "↑/↓ navigate • enter select • esc back • ctrl+c quit"
}
