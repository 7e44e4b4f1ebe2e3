package processor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
)

var audioEncoders = map[string]string{
	"mp3":  "libmp3lame",
	"m4a":  "aac",
	"aac":  "aac",
	"opus": "libopus",
	"ogg":  "libvorbis",
	"flac": "flac",
	"wav":  "pcm_s16le",
}

var mp4Family = []string{"mp4", "m4a", "m4v", "mov"}

func isMP4Family(ext string) bool {
	return lo.Contains(mp4Family, ext)
}

func isAudio(path string) bool {
	t, ok := format.FamilyOf(extOf(path))
	return ok && t == format.Audio
}

// ChangeContainer remuxes path into ext without re-encoding and returns the new path.
// The source is removed on success.
func (f *FFmpeg) ChangeContainer(ctx context.Context, path, ext string) (string, error) {
	ext = format.NormalizeExtension(ext)
	if extOf(path) == ext {
		return path, nil
	}

	out := withExt(path, ext)
	args := []string{"-i", path, "-map", "0", "-dn", "-ignore_unknown", "-c", "copy"}
	if isMP4Family(ext) {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, out)

	if err := f.ffmpeg(ctx, "change container", args...); err != nil {
		_ = f.fs.Remove(out)
		return "", err
	}

	return out, f.fs.Remove(path)
}

// ConvertAudio transcodes path into ext. Quality is a bitrate in kbps.
func (f *FFmpeg) ConvertAudio(ctx context.Context, path, ext string, quality mo.Option[int]) (string, error) {
	ext = format.NormalizeExtension(ext)

	encoder, ok := audioEncoders[ext]
	if !ok {
		return "", fault.Wrapf(fault.Contract, "convert audio", "no audio encoder for %q", ext)
	}

	out := withExt(path, ext)
	inPlace := out == path
	if inPlace {
		out = tempFor(path)
	}

	args := []string{"-i", path, "-vn", "-c:a", encoder}
	if kbps, ok := quality.Get(); ok && kbps > 0 && ext != "flac" && ext != "wav" {
		args = append(args, "-b:a", strconv.Itoa(kbps)+"k")
	}
	args = append(args, out)

	if err := f.ffmpeg(ctx, "convert audio", args...); err != nil {
		_ = f.fs.Remove(out)
		return "", err
	}

	if inPlace {
		return path, f.replace(out, path)
	}

	return out, f.fs.Remove(path)
}

// Merge muxes the first video stream of video with the first audio stream of audio into ext.
// The output is named after video. Both inputs are removed on success.
func (f *FFmpeg) Merge(ctx context.Context, video, audio, ext string) (string, error) {
	ext = format.NormalizeExtension(ext)

	out := withExt(video, "merged."+ext)
	args := []string{
		"-i", video, "-i", audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c", "copy",
	}
	if isMP4Family(ext) {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, out)

	if err := f.ffmpeg(ctx, "merge", args...); err != nil {
		_ = f.fs.Remove(out)
		return "", err
	}

	for _, p := range []string{video, audio} {
		if err := f.fs.Remove(p); err != nil {
			return "", err
		}
	}

	final := withExt(video, ext)
	if err := f.fs.Rename(out, final); err != nil {
		return "", err
	}

	return final, nil
}

// Subtitle is a local subtitle file.
type Subtitle struct {
	Path     string
	Language string
}

func subtitleCodec(ext string) string {
	switch {
	case isMP4Family(ext):
		return "mov_text"
	case ext == "webm":
		return "webvtt"
	default:
		return "srt"
	}
}

// EmbedSubtitles adds subs as soft subtitle tracks of path.
func (f *FFmpeg) EmbedSubtitles(ctx context.Context, path string, subs []Subtitle) error {
	if len(subs) == 0 {
		return nil
	}

	if isAudio(path) {
		return fault.Wrapf(fault.Processing, "embed subtitles", "%s cannot hold subtitles", extOf(path))
	}

	tmp := tempFor(path)

	args := []string{"-i", path}
	for _, s := range subs {
		args = append(args, "-i", s.Path)
	}

	args = append(args, "-map", "0", "-dn", "-ignore_unknown")
	for i := range subs {
		args = append(args, "-map", fmt.Sprintf("%d:0", i+1))
	}

	args = append(args, "-c", "copy", "-c:s", subtitleCodec(extOf(path)))
	for i, s := range subs {
		if s.Language != "" {
			args = append(args, fmt.Sprintf("-metadata:s:s:%d", i), "language="+s.Language)
		}
	}
	args = append(args, tmp)

	if err := f.ffmpeg(ctx, "embed subtitles", args...); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}

	return f.replace(tmp, path)
}

// EmbedThumbnail attaches image as the cover of path, center-cropped to a square when square is set.
func (f *FFmpeg) EmbedThumbnail(ctx context.Context, path, image string, square bool) error {
	ext := extOf(path)
	if !format.SupportsThumbnail(ext) {
		return fault.Wrapf(fault.Processing, "embed thumbnail", "%s cannot hold a thumbnail", ext)
	}

	cover := withExt(image, "cover.jpg")
	coverArgs := []string{"-i", image}
	if square {
		coverArgs = append(coverArgs, "-vf", "crop='min(iw,ih)':'min(iw,ih)'")
	}
	coverArgs = append(coverArgs, "-frames:v", "1", cover)

	if err := f.ffmpeg(ctx, "prepare thumbnail", coverArgs...); err != nil {
		return err
	}
	defer f.fs.Remove(cover)

	tmp := tempFor(path)

	var args []string
	switch {
	case ext == "mkv", ext == "mka":
		args = []string{
			"-i", path, "-map", "0", "-dn", "-ignore_unknown", "-c", "copy",
			"-attach", cover, "-metadata:s:t", "mimetype=image/jpeg", "-metadata:s:t", "filename=cover.jpg",
			tmp,
		}
	case isAudio(path):
		args = []string{
			"-i", path, "-i", cover,
			"-map", "0:a", "-map", "1:v", "-c", "copy",
			"-disposition:v:0", "attached_pic",
		}
		if ext == "mp3" {
			args = append(args, "-id3v2_version", "3")
		}
		args = append(args, tmp)
	default:
		args = []string{
			"-i", path, "-i", cover,
			"-map", "0", "-map", "1:v", "-dn", "-ignore_unknown", "-c", "copy",
			"-disposition:v:1", "attached_pic",
			tmp,
		}
	}

	if err := f.ffmpeg(ctx, "embed thumbnail", args...); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}

	return f.replace(tmp, path)
}
