// Package inline reports download progress without a TUI: human readable lines or JSON lines for scripts.
package inline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/util"
)

// Options configure a Reporter.
type Options struct {
	Out io.Writer
	// JSON switches to one JSON object per line.
	JSON bool
	// Quiet drops everything but terminal states.
	Quiet bool
	// Interval throttles plain download lines per item.
	Interval time.Duration
}

// Reporter is a progress.Observer writing to Out. It is safe for concurrent use.
type Reporter struct {
	opts Options

	mu     sync.Mutex
	enc    *json.Encoder
	titles map[string]string
	last   map[string]time.Time
}

// New returns a Reporter. A nil Out means stdout.
func New(opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}

	return &Reporter{
		opts:   opts,
		enc:    json.NewEncoder(opts.Out),
		titles: make(map[string]string),
		last:   make(map[string]time.Time),
	}
}

func (r *Reporter) write(e Event) {
	if err := r.enc.Encode(e); err != nil {
		log.Warnf("writing event: %s", err)
	}
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.opts.Out, format+"\n", args...)
}

// ItemChanged implements progress.Observer.
func (r *Reporter) ItemChanged(s progress.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.JSON {
		r.write(itemEvent(s))
		return
	}

	id := s.ItemID()
	switch s := s.(type) {
	case progress.Resolving:
		r.titles[id] = s.Placeholder
	case progress.Resolved:
		r.titles[id] = s.Title
	}

	name := r.titles[id]
	if name == "" {
		name = id
	}

	if r.opts.Quiet && !progress.IsTerminal(s) {
		return
	}

	switch s := s.(type) {
	case progress.Resolved:
		r.printf("%s %s", icon.Get(icon.Link), name)
	case progress.Downloading:
		if time.Since(r.last[id]) < r.opts.Interval {
			return
		}
		r.last[id] = time.Now()
		r.printf("%s %s %.0f%% of %s at %s", icon.Get(icon.Download), name, s.Fraction()*100, util.Bytes(s.Total), util.Speed(s.Speed))
	case progress.Merging:
		r.printf("%s %s merging into %s", icon.Get(icon.Merge), name, s.Extension)
	case progress.Processing:
		switch s.Status {
		case progress.StepStarted:
			r.printf("%s %s %s", icon.Get(icon.Process), name, s.Step)
		case progress.StepFailed:
			r.printf("%s %s %s failed: %s", icon.Get(icon.Warn), name, s.Step, s.Error)
		}
	case progress.Completed:
		mark := icon.Success
		if s.WithErrors {
			mark = icon.Warn
		}
		r.printf("%s %s", icon.Get(mark), s.Path)
		delete(r.last, id)
	case progress.Skipped:
		r.printf("%s %s already exists", icon.Get(icon.Skip), s.Path)
	case progress.Error:
		r.printf("%s %s: %s", icon.Get(icon.Fail), name, s.Message)
		delete(r.last, id)
	}
}

// BatchChanged implements progress.Observer.
func (r *Reporter) BatchChanged(b progress.BatchProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.JSON {
		r.write(Event{Event: "batch", Time: time.Now(), Batch: &b})
		return
	}

	if !r.opts.Quiet {
		r.printf("%s %d/%d", icon.Get(icon.Progress), b.Completed, b.Total)
	}
}

// Summary writes the final summary event. Plain mode leaves the summary to the caller.
func (r *Reporter) Summary(s *Summary) {
	if !r.opts.JSON {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(Event{Event: "summary", Time: time.Now(), Summary: s})
}
