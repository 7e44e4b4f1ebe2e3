// Package pipeline drives one media item from a lazy reference to a finished file:
// resolve, select, dedupe, download, merge, postprocess and finalize, strictly in that order.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/output"
	"github.com/tubedl-cli/tubedl/processor"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/scratch"
	"github.com/tubedl-cli/tubedl/selector"
	"github.com/tubedl-cli/tubedl/source"
	"github.com/tubedl-cli/tubedl/transport"
)

// Transport moves remote bytes to local files.
type Transport interface {
	Fetch(ctx context.Context, f format.Format, dest string, onProgress transport.ProgressFunc) (int64, error)
	FetchURL(ctx context.Context, url string, headers map[string]string, dest string) error
}

// Processor postprocesses downloaded files. Every method may replace the file it is given.
type Processor interface {
	ChangeContainer(ctx context.Context, path, ext string) (string, error)
	ConvertAudio(ctx context.Context, path, ext string, quality mo.Option[int]) (string, error)
	Merge(ctx context.Context, video, audio, ext string) (string, error)
	EmbedSubtitles(ctx context.Context, path string, subs []processor.Subtitle) error
	EmbedThumbnail(ctx context.Context, path, image string, square bool) error
	EmbedMetadata(ctx context.Context, path string, meta processor.Metadata) error
}

// Deps are the collaborators of a pipeline. Processor is nil when no postprocessing engine is available.
type Deps struct {
	Extractor source.Extractor
	Transport Transport
	Processor Processor
	Output    *output.Resolver
	Locker    output.Locker
	Scratch   *scratch.Provider
	FS        afero.Fs
}

// Job is one item to download. Playlist is set when the item came from one and feeds the output template.
//
// ID keys the progress states of the job and must be unique within a batch.
// It defaults to the reference key.
type Job struct {
	ID        string
	Reference source.Reference
	Playlist  *source.Playlist
}

func (j Job) key() string {
	if j.ID != "" {
		return j.ID
	}
	return j.Reference.Key()
}

// Status is the outcome of a run.
type Status int

const (
	StatusSuccess Status = iota
	StatusWithErrors
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusWithErrors:
		return "with errors"
	case StatusSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// Result describes how a run ended. Err is only set for StatusError.
// ItemID is the reference key, so a repeated entry yields results sharing it.
type Result struct {
	ItemID   string
	Title    string
	URL      string
	Path     string
	Status   Status
	Err      error
	Failures []string
	Bytes    int64
}

// Pipeline runs jobs. It is safe for concurrent use, each Run owns its own state.
type Pipeline struct {
	deps Deps
	cfg  format.Config
	emit func(progress.State)
}

// New returns a pipeline reporting every state change to emit.
func New(deps Deps, cfg format.Config, emit func(progress.State)) *Pipeline {
	if deps.Processor == nil {
		cfg.CanProcess = false
	}

	if deps.Locker == nil {
		deps.Locker = output.NoLock{}
	}

	if deps.FS == nil {
		deps.FS = filesystem.API().Fs
	}

	if emit == nil {
		emit = func(progress.State) {}
	}

	return &Pipeline{deps: deps, cfg: cfg, emit: emit}
}

// run is the state of one Run call.
type run struct {
	*Pipeline
	ctx    context.Context
	job    Job
	item   progress.Item
	result Result
}

// Run downloads job. Failures are reported in the result and as an Error state, never as a panic or a partial file.
func (p *Pipeline) Run(ctx context.Context, job Job) Result {
	r := &run{
		Pipeline: p,
		ctx:      ctx,
		job:      job,
		item:     progress.Item{ID: job.key()},
		result:   Result{ItemID: job.Reference.Key(), Title: job.Reference.Title, URL: job.Reference.URL},
	}

	if err := r.execute(); err != nil {
		return r.fail(err)
	}

	return r.result
}

func (r *run) execute() error {
	ref := r.job.Reference

	r.emit(progress.Resolving{
		Item:        r.item,
		Reference:   ref,
		Placeholder: output.Sanitize(output.Render(r.cfg.OutputTemplate, output.ReferenceFields(ref, r.job.Playlist), mo.None[string]())),
	})

	media, err := r.deps.Extractor.Resolve(r.ctx, ref)
	if err != nil {
		return fault.Wrap(fault.Connection, "resolve", err)
	}
	if err := media.Validate(); err != nil {
		return err
	}

	r.result.Title = media.Title
	r.emit(progress.Resolved{
		Item:     r.item,
		Title:    media.Title,
		Uploader: media.Uploader,
		Formats: lo.Map(media.Formats, func(f format.Format, _ int) string {
			return f.ID
		}),
	})

	selection, err := selector.Select(media, r.cfg)
	if err != nil {
		return err
	}

	primary := selection.Primary()
	dest, err := r.deps.Output.Destination(r.cfg.OutputTemplate, output.Fields(media, r.job.Playlist, &primary))
	if err != nil {
		return err
	}

	unlock, err := r.deps.Locker.Lock(r.ctx, filepath.Join(dest.Dir, dest.Base))
	if err != nil {
		return fault.Wrap(fault.Connection, "lock output", err)
	}
	defer unlock()

	duplicate, err := r.deps.Output.FindDuplicate(dest, r.cfg.Extension)
	if err != nil {
		return fault.Wrap(fault.Connection, "scan output", err)
	}
	if existing, ok := duplicate.Get(); ok {
		log.With(log.Fields{"item": r.item.ID, "path": existing}).Infof("already downloaded")
		r.result.Status = StatusSkipped
		r.result.Path = existing
		r.emit(progress.Skipped{Item: r.item, Path: existing})
		return nil
	}

	scope, err := r.deps.Scratch.Scope(r.item.ID)
	if err != nil {
		return fault.Wrap(fault.Connection, "scratch", err)
	}
	defer func() {
		if err := scope.Close(); err != nil {
			log.Warnf("removing %s: %s", scope.Dir(), err)
		}
	}()

	files, err := r.download(scope, selection)
	if err != nil {
		return err
	}

	working := files.primary()
	if files.video != "" && files.audio != "" {
		ext := r.cfg.EffectiveExtension(constant.DefaultContainer)
		r.emit(progress.Merging{Item: r.item, Extension: ext})

		if working, err = r.deps.Processor.Merge(r.ctx, files.video, files.audio, ext); err != nil {
			return fault.Wrap(fault.Processing, "merge", err)
		}
	}

	if r.deps.Processor != nil {
		working = r.process(scope, media, selection, working)
	}

	if err := r.ctx.Err(); err != nil {
		return fault.Wrap(fault.Interrupted, "finalize", err)
	}

	final := dest.Path(filepath.Ext(working))
	if err := filesystem.Move(r.deps.FS, working, final); err != nil {
		return fault.Wrap(fault.Connection, "finalize", err)
	}

	r.result.Path = final
	r.result.Status = StatusSuccess
	if len(r.result.Failures) > 0 {
		r.result.Status = StatusWithErrors
	}

	r.emit(progress.Completed{
		Item:       r.item,
		Path:       final,
		WithErrors: len(r.result.Failures) > 0,
		Failures:   r.result.Failures,
	})

	return nil
}

func (r *run) fail(err error) Result {
	if ctxErr := r.ctx.Err(); ctxErr != nil && !fault.Is(err, fault.Interrupted) {
		err = fault.Wrap(fault.Interrupted, "", ctxErr)
	}

	class := fault.ClassOf(err)
	log.With(log.Fields{"item": r.item.ID, "class": class.String()}).Errorf("%s", err)

	r.emit(progress.Error{
		Item:    r.item,
		Message: fault.Message(err),
		Class:   class.String(),
		Err:     err,
	})

	r.result.Status = StatusError
	r.result.Err = err
	r.result.Path = ""
	return r.result
}
