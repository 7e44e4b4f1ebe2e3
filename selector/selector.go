// Package selector decides which video and audio formats of a media item get downloaded.
package selector

import (
	"errors"

	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/source"
)

// ErrNoFormats is returned when neither a video nor an audio candidate survives selection.
var ErrNoFormats = errors.New("no formats available")

// Selection is the outcome of Select. At least one side is present.
type Selection struct {
	Video mo.Option[format.Format]
	Audio mo.Option[format.Format]
}

// Formats lists the present picks, video first.
func (s Selection) Formats() []format.Format {
	var out []format.Format
	if v, ok := s.Video.Get(); ok {
		out = append(out, v)
	}
	if a, ok := s.Audio.Get(); ok {
		out = append(out, a)
	}
	return out
}

// Primary is the pick that names the output: the video when present, the audio otherwise.
func (s Selection) Primary() format.Format {
	if v, ok := s.Video.Get(); ok {
		return v
	}
	return s.Audio.MustGet()
}

// NeedsMerge reports whether separate video and audio streams were picked.
func (s Selection) NeedsMerge() bool {
	return s.Video.IsPresent() && s.Audio.IsPresent()
}

// Select picks at most one video and one audio format of media for cfg.
//
// A fixed conversion extension filters candidates by extension. A type that has no candidate after
// filtering stays empty, there is no fallback to an unfiltered pick. Without a fixed extension,
// audio-only wins for music sites and audio requests; otherwise video is preferred.
func Select(media *source.Media, cfg format.Config) (Selection, error) {
	var filter format.Filter
	if ext, ok := cfg.Extension.Get(); ok {
		filter.Extension = mo.Some(ext)
	}

	videos := media.Formats.OnlyVideo().Filter(filter)
	if !cfg.CanProcess {
		// Without a muxer, only streams that already carry audio give a complete video file.
		if muxed := videos.OnlyMuxed(); len(muxed) > 0 {
			videos = muxed
		}
	}

	video := pick(videos, cfg.Quality)
	audio := pick(media.Formats.OnlyAudio().Filter(filter), cfg.Quality)

	if video.IsAbsent() && audio.IsAbsent() {
		return Selection{}, fault.Wrap(fault.Contract, "select", ErrNoFormats)
	}

	if effectiveType(media, cfg, video, audio) == format.Audio {
		return Selection{Audio: audio}, nil
	}

	if !cfg.CanProcess && video.IsPresent() {
		return Selection{Video: video}, nil
	}

	return Selection{Video: video, Audio: audio}, nil
}

func effectiveType(media *source.Media, cfg format.Config, video, audio mo.Option[format.Format]) format.Type {
	if ext, ok := cfg.Extension.Get(); ok {
		family, known := format.FamilyOf(ext)
		switch {
		case known && family == format.Audio && audio.IsPresent():
			return format.Audio
		case known && family == format.Video && video.IsPresent():
			return format.Video
		}
	}

	switch {
	case audio.IsPresent() && (media.Music || cfg.Type == format.Audio):
		return format.Audio
	case video.IsPresent():
		return format.Video
	default:
		return format.Audio
	}
}

func pick(candidates format.List, quality mo.Option[int]) mo.Option[format.Format] {
	if len(candidates) == 0 {
		return mo.None[format.Format]()
	}

	if target, ok := quality.Get(); ok {
		f, err := candidates.ClosestQuality(target)
		if err != nil {
			return mo.None[format.Format]()
		}
		return mo.Some(f)
	}

	return candidates.Best().First()
}
