package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keymap struct {
	quit, forceQuit, showHelp key.Binding
}

func newKeymap() keymap {
	return keymap{
		quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "stop"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "stop"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit, k.showHelp}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.quit, k.forceQuit, k.showHelp}}
}
