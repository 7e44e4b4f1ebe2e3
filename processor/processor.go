// Package processor wraps ffmpeg for the postprocessing steps of a download:
// remuxing, audio conversion, merging and embedding subtitles, thumbnails and tags.
package processor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/log"
)

// ErrUnavailable is returned by Detect when processing is disabled or ffmpeg cannot be found.
var ErrUnavailable = errors.New("ffmpeg is not available")

// Options locate and bound ffmpeg.
type Options struct {
	Enable bool
	Path   string
	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration
}

// OptionsFromViper reads the processor.* keys.
func OptionsFromViper() Options {
	return Options{
		Enable:  viper.GetBool(key.ProcessorEnable),
		Path:    viper.GetString(key.ProcessorPath),
		Timeout: time.Duration(viper.GetInt(key.ProcessorTimeout)) * time.Second,
	}
}

// Runner executes a command and returns whatever it wrote to stderr.
type Runner func(ctx context.Context, name string, args ...string) (stderr string, err error)

// Exec runs commands with os/exec, capturing stderr for classification.
func Exec(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// FFmpeg is the processor. Files are replaced through fs, ffmpeg itself sees the same paths.
type FFmpeg struct {
	bin     string
	timeout time.Duration
	fs      afero.Fs
	run     Runner
}

// Detect resolves the ffmpeg binary. It fails with ErrUnavailable when opts disable processing.
func Detect(opts Options, fs afero.Fs) (*FFmpeg, error) {
	if !opts.Enable {
		return nil, ErrUnavailable
	}

	name := opts.Path
	if name == "" {
		name = "ffmpeg"
	}

	bin, err := exec.LookPath(name)
	if err != nil {
		log.Warnf("ffmpeg lookup failed: %s", err)
		return nil, ErrUnavailable
	}

	return New(bin, opts.Timeout, fs, Exec), nil
}

// New returns a processor running bin through run.
func New(bin string, timeout time.Duration, fs afero.Fs, run Runner) *FFmpeg {
	return &FFmpeg{bin: bin, timeout: timeout, fs: fs, run: run}
}

// Path of the ffmpeg binary.
func (f *FFmpeg) Path() string {
	return f.bin
}

func (f *FFmpeg) ffmpeg(ctx context.Context, op string, args ...string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	full := append([]string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}, args...)
	log.With(log.Fields{"op": op}).Debugf("%s %s", f.bin, strings.Join(full, " "))

	stderr, err := f.run(ctx, f.bin, full...)
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return classify(op, "", ctxErr)
	}

	return classify(op, stderr, err)
}

// replace moves tmp over path.
func (f *FFmpeg) replace(tmp, path string) error {
	if err := f.fs.Remove(path); err != nil {
		return err
	}

	return f.fs.Rename(tmp, path)
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// tempFor is a sibling of path with the same extension, so ffmpeg still infers the muxer.
func tempFor(path string) string {
	return withExt(path, "temp."+extOf(path))
}
