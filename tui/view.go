package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/util"
)

const nameWidth = 40

func (m *model) View() string {
	var b strings.Builder

	title := m.options.Title
	if title == "" {
		title = "Downloading"
	}

	b.WriteString(style.Title(title))
	if m.batch.Total > 0 {
		b.WriteString(" " + style.Faint(fmt.Sprintf("%d/%d", m.batch.Completed, m.batch.Total)))
	}
	b.WriteString("\n\n")

	for _, id := range m.visible() {
		b.WriteString(m.row(m.items[id]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.interrupts {
	case 0:
		b.WriteString(m.help.View(m.keymap))
	case 1:
		b.WriteString(style.Fg(style.WarningColor)("Stopping, waiting for running items. Press again to abandon them."))
	default:
		b.WriteString(style.Fg(style.ErrorColor)("Abandoning running items..."))
	}
	b.WriteString("\n")

	return b.String()
}

// visible keeps active rows and as many of the latest finished ones as fit.
func (m *model) visible() []string {
	limit := len(m.order)
	if m.height > 6 {
		limit = m.height - 6
	}

	if len(m.order) <= limit {
		return m.order
	}

	active := lo.Filter(m.order, func(id string, _ int) bool {
		return !progress.IsTerminal(m.items[id].state)
	})
	if len(active) >= limit {
		return active[:limit]
	}

	finished := lo.Filter(m.order, func(id string, _ int) bool {
		return progress.IsTerminal(m.items[id].state)
	})
	return append(finished[len(finished)-(limit-len(active)):], active...)
}

func (m *model) row(it *item) string {
	name := fmt.Sprintf("%-*s", nameWidth, truncate.StringWithTail(it.name, nameWidth, "…"))

	switch s := it.state.(type) {
	case progress.Downloading:
		m.bar.Width = max(m.width-nameWidth-30, 10)
		return fmt.Sprintf("%s %s %s %s", m.spinner.View(), name, m.bar.ViewAs(s.Fraction()),
			style.Faint(fmt.Sprintf("%s %s", util.Bytes(s.Total), util.Speed(s.Speed))))
	case progress.Merging:
		return fmt.Sprintf("%s %s %s", m.spinner.View(), name, style.Faint("merging into "+s.Extension))
	case progress.Processing:
		return fmt.Sprintf("%s %s %s", m.spinner.View(), name, style.Faint(fmt.Sprintf("%s %s", s.Step, s.Status)))
	case progress.Completed:
		if s.WithErrors {
			return fmt.Sprintf("%s %s %s", icon.Get(icon.Warn), name,
				style.Fg(style.WarningColor)(util.Quantify(len(s.Failures), "step failed", "steps failed")))
		}
		return fmt.Sprintf("%s %s %s", icon.Get(icon.Success), name, style.Fg(style.SuccessColor)("done"))
	case progress.Skipped:
		return fmt.Sprintf("%s %s %s", icon.Get(icon.Skip), name, style.Faint("already downloaded"))
	case progress.Error:
		return fmt.Sprintf("%s %s %s", icon.Get(icon.Fail), name, style.Fg(style.ErrorColor)(s.Message))
	default:
		return fmt.Sprintf("%s %s %s", m.spinner.View(), name, style.Faint(it.state.Phase().String()))
	}
}
