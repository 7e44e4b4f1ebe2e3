package style

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha colors.
var (
	Text   = lipgloss.Color("#cdd6f4")
	Mauve  = lipgloss.Color("#cba6f7")
	Red    = lipgloss.Color("#f38ba8")
	Yellow = lipgloss.Color("#f9e2af")
	Green  = lipgloss.Color("#a6e3a1")
	Blue   = lipgloss.Color("#89b4fa")
)

// Semantic roles.
var (
	AccentColor  = Mauve
	SuccessColor = Green
	WarningColor = Yellow
	ErrorColor   = Red
	HiRed        = Red
)
