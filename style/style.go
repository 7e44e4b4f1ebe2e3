// Package style composes lipgloss styles for the CLI and the dashboard.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tubedl-cli/tubedl/color"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a function coloring its argument with c.
func Fg(c lipgloss.Color) func(string) string {
	s := New().Foreground(c)
	return func(text string) string { return s.Render(text) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders s as a padded banner.
func Title(s string) string {
	return New().Foreground(color.New("230")).Background(AccentColor).Bold(true).Padding(0, 1).Render(s)
}
