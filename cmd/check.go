package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/style"
)

// warnMissingProcessor explains that downloads continue without ffmpeg, and how to get it.
// Nothing is printed when processing was turned off on purpose.
func warnMissingProcessor(out io.Writer) {
	if !viper.GetBool(key.ProcessorEnable) {
		return
	}

	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install ffmpeg"
	case constant.Linux:
		installCmd = "sudo apt install ffmpeg"
	case constant.Windows:
		installCmd = "scoop install ffmpeg"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.WarningColor).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.WarningColor).Render(fmt.Sprintf("%s Warning: ffmpeg not found", icon.Get(icon.Warn)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf(
		"'%s' was not found in your PATH.\nOnly formats that need no merging or conversion will be downloaded.",
		viper.GetString(key.ProcessorPath),
	))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	_, _ = fmt.Fprintln(out, box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
