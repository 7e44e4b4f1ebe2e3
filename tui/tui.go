// Package tui renders a live dashboard of a running batch.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tubedl-cli/tubedl/batch"
	"github.com/tubedl-cli/tubedl/progress"
)

// Options configure the dashboard.
type Options struct {
	Title string
	// Cancel is called on the first quit key, Abandon on the second.
	Cancel  func()
	Abandon func()
}

type (
	itemMsg  struct{ state progress.State }
	batchMsg struct{ progress progress.BatchProgress }
	doneMsg  struct {
		summary *batch.Summary
		err     error
	}
)

// Dashboard is a progress.Observer that draws what it observes.
type Dashboard struct {
	program *tea.Program
}

// New prepares a dashboard. Nothing is drawn before Run.
func New(options Options) *Dashboard {
	return &Dashboard{program: tea.NewProgram(newModel(options))}
}

// ItemChanged implements progress.Observer.
func (d *Dashboard) ItemChanged(s progress.State) {
	d.program.Send(itemMsg{state: s})
}

// BatchChanged implements progress.Observer.
func (d *Dashboard) BatchChanged(b progress.BatchProgress) {
	d.program.Send(batchMsg{progress: b})
}

// Run draws the dashboard while run executes and returns what run returned.
func (d *Dashboard) Run(run func() (*batch.Summary, error)) (*batch.Summary, error) {
	go func() {
		summary, err := run()
		d.program.Send(doneMsg{summary: summary, err: err})
	}()

	final, err := d.program.Run()
	if err != nil {
		return nil, err
	}

	result := final.(*model)
	return result.summary, result.err
}
