package pipeline

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/processor"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/scratch"
	"github.com/tubedl-cli/tubedl/selector"
	"github.com/tubedl-cli/tubedl/source"
)

func extOf(p string) string {
	return strings.TrimPrefix(filepath.Ext(p), ".")
}

// step runs fn as one observable processing step. A failure is recorded and does not stop later steps.
func (r *run) step(step progress.Step, fn func() error) {
	r.emit(progress.Processing{Item: r.item, Step: step, Status: progress.StepStarted})

	err := fn()
	if err == nil {
		r.emit(progress.Processing{Item: r.item, Step: step, Status: progress.StepCompleted})
		return
	}

	err = fault.Wrap(fault.Processing, string(step), err)
	log.With(log.Fields{"item": r.item.ID, "step": step}).Warnf("%s", err)

	r.result.Failures = append(r.result.Failures, fmt.Sprintf("%s: %s", step, fault.Message(err)))
	r.emit(progress.Processing{
		Item:   r.item,
		Step:   step,
		Status: progress.StepFailed,
		Error:  fault.Message(err),
	})
}

// process runs the postprocessing steps on working and returns the path of the file they produced.
func (r *run) process(scope *scratch.Scope, media *source.Media, selection selector.Selection, working string) string {
	audio := selection.Video.IsAbsent()

	if target, ok := r.cfg.Extension.Get(); ok && target != extOf(working) {
		r.step(progress.StepRemux, func() error {
			out, err := r.remux(working, target, audio)
			if err != nil {
				return err
			}
			working = out
			return nil
		})
	}

	if r.ctx.Err() != nil {
		return working
	}

	if r.cfg.EmbedSubtitles && !audio && len(media.Subtitles) > 0 {
		r.step(progress.StepSubtitles, func() error {
			subs, err := r.fetchSubtitles(scope, media.Subtitles)
			if err != nil {
				return err
			}
			return r.deps.Processor.EmbedSubtitles(r.ctx, working, subs)
		})
	}

	if r.ctx.Err() != nil {
		return working
	}

	thumbnail := media.BestThumbnail()
	if r.cfg.EmbedThumbnail && thumbnail.IsPresent() && format.SupportsThumbnail(extOf(working)) {
		r.step(progress.StepThumbnail, func() error {
			image := scope.Path("thumbnail." + imageExt(thumbnail.MustGet().URL))
			if err := r.deps.Transport.FetchURL(r.ctx, thumbnail.MustGet().URL, nil, image); err != nil {
				return err
			}
			return r.deps.Processor.EmbedThumbnail(r.ctx, working, image, audio)
		})
	}

	if r.ctx.Err() != nil {
		return working
	}

	if r.cfg.EmbedMetadata {
		r.step(progress.StepMetadata, func() error {
			return r.deps.Processor.EmbedMetadata(r.ctx, working, Tags(media))
		})
	}

	return working
}

// remux changes the container of working. Audio that cannot be copied into the target is re-encoded.
func (r *run) remux(working, target string, audio bool) (string, error) {
	out, err := r.deps.Processor.ChangeContainer(r.ctx, working, target)
	if err == nil || !audio || !fault.IsIncompatible(err) {
		return out, err
	}

	log.With(log.Fields{"item": r.item.ID}).Infof("re-encoding audio to %s", target)

	quality := mo.None[int]()
	if family, ok := format.FamilyOf(target); ok && family == format.Audio {
		quality = r.cfg.Quality
	}

	return r.deps.Processor.ConvertAudio(r.ctx, working, target, quality)
}

// fetchSubtitles downloads every subtitle track it can. It fails only when none could be fetched.
func (r *run) fetchSubtitles(scope *scratch.Scope, subtitles []source.Subtitle) ([]processor.Subtitle, error) {
	var (
		subs    []processor.Subtitle
		lastErr error
	)

	for i, s := range subtitles {
		ext := s.Extension
		if ext == "" {
			ext = "vtt"
		}

		dest := scope.Path(fmt.Sprintf("subtitle.%d.%s.%s", i, s.Language, ext))
		if err := r.deps.Transport.FetchURL(r.ctx, s.URL, nil, dest); err != nil {
			log.With(log.Fields{"item": r.item.ID, "language": s.Language}).Warnf("subtitle: %s", err)
			lastErr = err
			continue
		}

		subs = append(subs, processor.Subtitle{Path: dest, Language: s.Language})
	}

	if len(subs) == 0 {
		return nil, lastErr
	}

	return subs, nil
}

func imageExt(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}

	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), ".")); ext {
	case "jpg", "jpeg", "png", "webp":
		return ext
	default:
		return "jpg"
	}
}
