package tui

import (
	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tubedl-cli/tubedl/batch"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/style"
)

// item is one row of the dashboard.
type item struct {
	name  string
	state progress.State
}

type model struct {
	options Options

	keymap  keymap
	help    help.Model
	spinner spinner.Model
	bar     bar.Model

	order []string
	items map[string]*item
	batch progress.BatchProgress

	interrupts int
	width      int
	height     int

	done    bool
	summary *batch.Summary
	err     error
}

func newModel(options Options) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style.New().Foreground(style.AccentColor)

	return &model{
		options: options,
		keymap:  newKeymap(),
		help:    help.New(),
		spinner: s,
		bar:     bar.New(bar.WithGradient(string(style.Mauve), string(style.Blue)), bar.WithoutPercentage()),
		items:   make(map[string]*item),
		width:   80,
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.quit, m.keymap.forceQuit):
			m.interrupt()
		case key.Matches(msg, m.keymap.showHelp):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil
	case itemMsg:
		m.track(msg.state)
		return m, nil
	case batchMsg:
		m.batch = msg.progress
		return m, nil
	case doneMsg:
		m.done = true
		m.summary, m.err = msg.summary, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// interrupt escalates: the first call stops scheduling, the second abandons running items.
func (m *model) interrupt() {
	m.interrupts++

	switch m.interrupts {
	case 1:
		if m.options.Cancel != nil {
			m.options.Cancel()
		}
	case 2:
		if m.options.Abandon != nil {
			m.options.Abandon()
		}
	}
}

func (m *model) track(s progress.State) {
	id := s.ItemID()

	it, ok := m.items[id]
	if !ok {
		it = &item{name: id}
		m.items[id] = it
		m.order = append(m.order, id)
	}

	switch s := s.(type) {
	case progress.Resolving:
		if s.Placeholder != "" {
			it.name = s.Placeholder
		}
	case progress.Resolved:
		it.name = s.Title
	}

	it.state = s
}
