// Package batch schedules many pipeline runs over a bounded worker pool and handles interrupts.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/output"
	"github.com/tubedl-cli/tubedl/pipeline"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/source"
)

// Options tune an Orchestrator.
type Options struct {
	// Workers is the number of items downloaded in parallel. Values below 1 mean 1.
	Workers int
	// GracePeriod is how long started items may keep running after an interrupt.
	GracePeriod time.Duration
	Observer    progress.Observer
	// Extractor expands playlist inputs. Defaults to the pipeline extractor.
	Extractor source.Extractor
}

// OptionsFromViper reads the download.workers and download.grace_period keys.
func OptionsFromViper() Options {
	return Options{
		Workers:     viper.GetInt(key.DownloadWorkers),
		GracePeriod: time.Duration(viper.GetInt(key.DownloadGracePeriod)) * time.Second,
	}
}

// Input is what a batch downloads.
type Input struct {
	refs     []source.Reference
	playlist string
}

// Single is a batch of one reference.
func Single(ref source.Reference) Input {
	return Input{refs: []source.Reference{ref}}
}

// List is a batch of independent references.
func List(refs []source.Reference) Input {
	return Input{refs: refs}
}

// PlaylistURL is a batch of every entry of the playlist at url.
func PlaylistURL(url string) Input {
	return Input{playlist: url}
}

// Orchestrator runs batches. A single Orchestrator runs one batch at a time.
type Orchestrator struct {
	deps    pipeline.Deps
	cfg     format.Config
	opts    Options
	tracker progress.Tracker

	mu      sync.Mutex
	abandon context.CancelFunc
}

// New returns an Orchestrator running pipelines built from deps and cfg.
func New(deps pipeline.Deps, cfg format.Config, opts Options) *Orchestrator {
	opts.Workers = max(opts.Workers, 1)

	if opts.Observer == nil {
		opts.Observer = progress.Discard{}
	}

	if opts.Extractor == nil {
		opts.Extractor = deps.Extractor
	}

	return &Orchestrator{deps: deps, cfg: cfg, opts: opts}
}

// Tracker exposes the current state of every item.
func (o *Orchestrator) Tracker() *progress.Tracker {
	return &o.tracker
}

// Abandon cancels the items still running. It is the second interrupt and is a no-op outside of Run.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.abandon != nil {
		log.Warn("abandoning running items")
		o.abandon()
	}
}

func (o *Orchestrator) emit(s progress.State) {
	if o.tracker.Set(s) {
		o.opts.Observer.ItemChanged(s)
	}
}

// expand turns input into references. A playlist contributes its id and its fields.
func (o *Orchestrator) expand(ctx context.Context, input Input) ([]source.Reference, *source.Playlist, error) {
	if input.playlist == "" {
		return input.refs, nil, nil
	}

	extraction, err := o.opts.Extractor.Extract(ctx, input.playlist)
	if err != nil {
		return nil, nil, fault.Wrap(fault.Connection, "extract", err)
	}

	if media, ok := extraction.Left(); ok {
		return []source.Reference{media.Reference()}, nil, nil
	}

	playlist := extraction.MustRight()
	return playlist.Entries, playlist, nil
}

// itemKeys returns a batch-unique key per reference. Repeated entries get a numbered suffix.
func itemKeys(refs []source.Reference) []string {
	var (
		keys = make([]string, len(refs))
		seen = make(map[string]bool, len(refs))
	)

	for i, ref := range refs {
		k := ref.Key()
		for n := 2; seen[k]; n++ {
			k = fmt.Sprintf("%s#%d", ref.Key(), n)
		}

		seen[k] = true
		keys[i] = k
	}

	return keys
}

// Run downloads input and returns once every scheduled item reached a terminal state.
//
// Per-item failures only show up in the summary. The returned error is a template error,
// a failure to expand a playlist, or fault.ErrInterrupted after ctx was cancelled.
func (o *Orchestrator) Run(ctx context.Context, input Input) (*Summary, error) {
	if err := output.Validate(o.cfg.OutputTemplate); err != nil {
		return nil, err
	}

	refs, playlist, err := o.expand(ctx, input)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if playlist != nil && playlist.ID != "" {
		id = playlist.ID
	}

	o.tracker.Reset()
	keys := itemKeys(refs)

	counter := progress.NewBatch(id, len(refs))
	log.With(log.Fields{"batch": id, "items": len(refs), "workers": o.opts.Workers}).Infof("starting batch")

	// started items outlive ctx until the grace period ends or Abandon is called
	work, abandon := context.WithCancel(context.WithoutCancel(ctx))
	defer abandon()

	o.mu.Lock()
	o.abandon = abandon
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.abandon = nil
		o.mu.Unlock()
	}()

	var (
		results     = make([]*pipeline.Result, len(refs))
		templateErr error
		stopOnce    sync.Once
		stop        = make(chan struct{})
		jobs        = make(chan int)
		wg          sync.WaitGroup
	)

	p := pipeline.New(o.deps, o.cfg, o.emit)

	// the dispatcher may still hand out a job after an interrupt or a template error
	halted := func() bool {
		select {
		case <-stop:
			return true
		default:
			return ctx.Err() != nil
		}
	}

	wg.Add(o.opts.Workers)
	for range o.opts.Workers {
		go func() {
			defer wg.Done()

			for i := range jobs {
				if halted() {
					continue
				}

				result := p.Run(work, pipeline.Job{ID: keys[i], Reference: refs[i], Playlist: playlist})
				results[i] = &result
				o.opts.Observer.BatchChanged(counter.Complete())

				if fault.Is(result.Err, fault.Template) {
					stopOnce.Do(func() {
						templateErr = result.Err
						close(stop)
						abandon()
					})
				}
			}
		}()
	}

	go func() {
		defer close(jobs)

		for i := range refs {
			if ctx.Err() != nil {
				return
			}

			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warnf("interrupted, waiting up to %s for running items", o.opts.GracePeriod)

		grace := time.NewTimer(o.opts.GracePeriod)
		defer grace.Stop()

		select {
		case <-done:
		case <-grace.C:
			abandon()
			<-done
		}
	}

	summary := &Summary{
		BatchID: id,
		Total:   len(refs),
		Results: lo.FilterMap(results, func(r *pipeline.Result, _ int) (pipeline.Result, bool) {
			if r == nil {
				return pipeline.Result{}, false
			}
			return *r, true
		}),
	}

	switch {
	case templateErr != nil:
		return summary, templateErr
	case ctx.Err() != nil:
		return summary, fault.Wrap(fault.Interrupted, "batch", fault.ErrInterrupted)
	}

	log.With(log.Fields{"batch": id}).Infof("batch finished: %d succeeded, %d failed", summary.Succeeded(), summary.Failed())
	return summary, nil
}
