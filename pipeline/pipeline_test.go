package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/output"
	"github.com/tubedl-cli/tubedl/processor"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/scratch"
	"github.com/tubedl-cli/tubedl/source"
	"github.com/tubedl-cli/tubedl/transport"
)

type fakeExtractor struct {
	media map[string]*source.Media
	err   error
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(ctx context.Context, url string) (source.Extraction, error) {
	return source.FromMedia(f.media[url]), nil
}

func (f *fakeExtractor) Resolve(ctx context.Context, ref source.Reference) (*source.Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.media[ref.URL], nil
}

type fakeTransport struct {
	fs      afero.Fs
	mu      sync.Mutex
	fetched []string
	err     error
}

func (f *fakeTransport) Fetch(ctx context.Context, fm format.Format, dest string, onProgress transport.ProgressFunc) (int64, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, fm.ID)
	f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}

	body := []byte("data-" + fm.ID)
	onProgress(transport.Progress{Downloaded: int64(len(body)), Total: int64(len(body))})
	return int64(len(body)), afero.WriteFile(f.fs, dest, body, 0o644)
}

func (f *fakeTransport) FetchURL(ctx context.Context, url string, headers map[string]string, dest string) error {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	return afero.WriteFile(f.fs, dest, []byte(url), 0o644)
}

type fakeProcessor struct {
	fs         afero.Fs
	calls      []string
	remuxErr   error
	convertErr error
	metaErr    error
	meta       processor.Metadata
}

func (f *fakeProcessor) rename(path, ext string) (string, error) {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
	return out, f.fs.Rename(path, out)
}

func (f *fakeProcessor) ChangeContainer(_ context.Context, path, ext string) (string, error) {
	f.calls = append(f.calls, "remux:"+ext)
	if f.remuxErr != nil {
		return "", f.remuxErr
	}
	return f.rename(path, ext)
}

func (f *fakeProcessor) ConvertAudio(_ context.Context, path, ext string, _ mo.Option[int]) (string, error) {
	f.calls = append(f.calls, "convert:"+ext)
	if f.convertErr != nil {
		return "", f.convertErr
	}
	return f.rename(path, ext)
}

func (f *fakeProcessor) Merge(_ context.Context, video, audio, ext string) (string, error) {
	f.calls = append(f.calls, "merge:"+ext)
	out := strings.TrimSuffix(video, filepath.Ext(video)) + ".merged." + ext
	if err := afero.WriteFile(f.fs, out, []byte("merged"), 0o644); err != nil {
		return "", err
	}
	return out, errors.Join(f.fs.Remove(video), f.fs.Remove(audio))
}

func (f *fakeProcessor) EmbedSubtitles(_ context.Context, _ string, subs []processor.Subtitle) error {
	f.calls = append(f.calls, fmt.Sprintf("subtitles:%d", len(subs)))
	return nil
}

func (f *fakeProcessor) EmbedThumbnail(_ context.Context, _, _ string, square bool) error {
	f.calls = append(f.calls, fmt.Sprintf("thumbnail:%t", square))
	return nil
}

func (f *fakeProcessor) EmbedMetadata(_ context.Context, _ string, meta processor.Metadata) error {
	f.calls = append(f.calls, "metadata")
	f.meta = meta
	return f.metaErr
}

type recorder struct {
	mu     sync.Mutex
	states []progress.State
}

func (r *recorder) emit(s progress.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) phases() []progress.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Uniq(lo.Map(r.states, func(s progress.State, _ int) progress.Phase {
		return s.Phase()
	}))
}

func (r *recorder) last() progress.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func testMedia() *source.Media {
	return &source.Media{
		ID:       "abc",
		URL:      "https://example.com/abc",
		Title:    "Clip",
		Uploader: "Someone",
		Formats: format.List{
			{ID: "v", Type: format.Video, Extension: "mp4", Height: 720, Filesize: mo.Some[int64](100)},
			{ID: "a", Type: format.Audio, Extension: "m4a", Bitrate: 128},
		},
		Thumbnails: []source.Thumbnail{{URL: "https://img.example.com/t.png", Width: 10, Height: 10}},
	}
}

type fixture struct {
	fs        afero.Fs
	extractor *fakeExtractor
	transport *fakeTransport
	processor *fakeProcessor
	recorder  *recorder
	cfg       format.Config
}

func newFixture(media *source.Media) *fixture {
	fs := afero.NewMemMapFs()
	return &fixture{
		fs:        fs,
		extractor: &fakeExtractor{media: map[string]*source.Media{media.URL: media}},
		transport: &fakeTransport{fs: fs},
		processor: &fakeProcessor{fs: fs},
		recorder:  &recorder{},
		cfg: format.Config{
			Type:           format.Video,
			OutputTemplate: "{title} [{id}]",
			CanProcess:     true,
		},
	}
}

func (f *fixture) pipeline(withProcessor bool) *Pipeline {
	deps := Deps{
		Extractor: f.extractor,
		Transport: f.transport,
		Output:    output.NewResolver(f.fs, "/out"),
		Locker:    output.NewKeyedLocker(),
		Scratch:   scratch.New(f.fs, "/tmp/scratch"),
		FS:        f.fs,
	}
	if withProcessor {
		deps.Processor = f.processor
	}
	return New(deps, f.cfg, f.recorder.emit)
}

func TestPipeline(t *testing.T) {
	Convey("Given a media item with separate video and audio", t, func() {
		media := testMedia()
		f := newFixture(media)
		job := Job{Reference: media.Reference()}

		Convey("When the transfer fails with a bare error", func() {
			f.transport.err = errors.New("unexpected EOF")
			result := f.pipeline(true).Run(context.Background(), job)

			Convey("It should be reported as a connection failure", func() {
				So(result.Status, ShouldEqual, StatusError)
				So(fault.ClassOf(result.Err), ShouldEqual, fault.Connection)
				So(fault.Message(result.Err), ShouldEqual, "connection failed: unexpected EOF")
			})
		})

		Convey("When the job carries its own id", func() {
			job.ID = "abc#2"
			result := f.pipeline(true).Run(context.Background(), job)

			Convey("Every state should be keyed by it while the result keeps the reference key", func() {
				So(result.ItemID, ShouldEqual, "abc")
				for _, s := range f.recorder.states {
					So(s.ItemID(), ShouldEqual, "abc#2")
				}
			})
		})

		Convey("When the output already exists", func() {
			So(afero.WriteFile(f.fs, "/out/Clip [abc].mkv", []byte("old"), 0o644), ShouldBeNil)

			result := f.pipeline(true).Run(context.Background(), job)

			Convey("It should be skipped without transferring anything", func() {
				So(result.Status, ShouldEqual, StatusSkipped)
				So(result.Path, ShouldEqual, "/out/Clip [abc].mkv")
				So(result.Bytes, ShouldEqual, 0)
				So(f.transport.fetched, ShouldBeEmpty)
				So(f.recorder.last(), ShouldHaveSameTypeAs, progress.Skipped{})
			})
		})

		Convey("When everything succeeds", func() {
			f.cfg.EmbedMetadata = true
			f.cfg.EmbedThumbnail = true
			result := f.pipeline(true).Run(context.Background(), job)

			Convey("Both streams should be merged and moved into place", func() {
				So(result.Status, ShouldEqual, StatusSuccess)
				So(result.Path, ShouldEqual, "/out/Clip [abc].mp4")
				So(result.Bytes, ShouldEqual, len("data-v")+len("data-a"))
				So(f.transport.fetched[:2], ShouldResemble, []string{"v", "a"})
				So(f.processor.calls, ShouldResemble, []string{"merge:mp4", "thumbnail:false", "metadata"})

				exists, err := afero.Exists(f.fs, result.Path)
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)
			})

			Convey("States should follow the item lifecycle", func() {
				So(f.recorder.phases(), ShouldResemble, []progress.Phase{
					progress.PhaseResolving,
					progress.PhaseResolved,
					progress.PhaseDownloading,
					progress.PhaseMerging,
					progress.PhaseProcessing,
					progress.PhaseCompleted,
				})
			})

			Convey("The scratch directory should be gone", func() {
				entries, err := afero.ReadDir(f.fs, "/tmp/scratch")
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When a processing step fails", func() {
			f.cfg.EmbedMetadata = true
			f.processor.metaErr = errors.New("boom")
			result := f.pipeline(true).Run(context.Background(), job)

			Convey("The item should complete with errors", func() {
				So(result.Status, ShouldEqual, StatusWithErrors)
				So(result.Failures, ShouldHaveLength, 1)
				So(result.Failures[0], ShouldStartWith, "metadata")

				completed, ok := f.recorder.last().(progress.Completed)
				So(ok, ShouldBeTrue)
				So(completed.WithErrors, ShouldBeTrue)
			})
		})

		Convey("When no processor is available", func() {
			media.Formats = append(media.Formats, format.Format{
				ID: "muxed", Type: format.Video, Extension: "webm", Height: 360, AudioCodec: "opus",
			})
			result := f.pipeline(false).Run(context.Background(), job)

			Convey("Only the muxed stream should be fetched", func() {
				So(result.Status, ShouldEqual, StatusSuccess)
				So(f.transport.fetched, ShouldResemble, []string{"muxed"})
				So(result.Path, ShouldEqual, "/out/Clip [abc].webm")
			})
		})

		Convey("When resolving fails", func() {
			f.extractor.err = errors.New("dial tcp: refused")
			result := f.pipeline(true).Run(context.Background(), job)

			Convey("The item should end in an error of the connection class", func() {
				So(result.Status, ShouldEqual, StatusError)
				So(fault.ClassOf(result.Err), ShouldEqual, fault.Connection)

				state, ok := f.recorder.last().(progress.Error)
				So(ok, ShouldBeTrue)
				So(state.Class, ShouldEqual, "connection")
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result := f.pipeline(true).Run(ctx, job)

			Convey("The error should be an interruption", func() {
				So(result.Status, ShouldEqual, StatusError)
				So(fault.ClassOf(result.Err), ShouldEqual, fault.Interrupted)
			})
		})

		Convey("When the template renders to nothing", func() {
			f.cfg.OutputTemplate = "{album}/"
			media.Album = "/"
			result := f.pipeline(true).Run(context.Background(), job)

			Convey("A template error should be reported", func() {
				So(result.Status, ShouldEqual, StatusError)
				So(fault.ClassOf(result.Err), ShouldEqual, fault.Template)
			})
		})
	})

	Convey("Given an audio download converted to mp3", t, func() {
		media := testMedia()
		media.Music = true
		f := newFixture(media)
		f.cfg.Extension = mo.Some("mp3")
		f.cfg.Type = format.Audio
		media.Formats = append(media.Formats, format.Format{ID: "a3", Type: format.Audio, Extension: "mp3", Bitrate: 96})

		Convey("A fixed extension should pick the matching stream without conversion", func() {
			result := f.pipeline(true).Run(context.Background(), Job{Reference: media.Reference()})

			So(result.Status, ShouldEqual, StatusSuccess)
			So(result.Path, ShouldEqual, "/out/Clip [abc].mp3")
			So(f.processor.calls, ShouldNotContain, "convert:mp3")
		})
	})

	Convey("Given an audio stream that cannot be copied into the target", t, func() {
		media := testMedia()
		f := newFixture(media)
		f.cfg.Type = format.Audio
		f.cfg.Extension = mo.Some("m4a")
		media.Formats[1].Extension = "opus"
		media.Formats = append(media.Formats, format.Format{ID: "m", Type: format.Audio, Extension: "m4a", Bitrate: 64})
		f.processor.remuxErr = fault.Wrap(fault.Processing, "remux", fmt.Errorf("%w: opus", fault.ErrIncompatible))

		Convey("Remuxing is not needed when the target stream exists", func() {
			result := f.pipeline(true).Run(context.Background(), Job{Reference: media.Reference()})
			So(result.Status, ShouldEqual, StatusSuccess)
			So(f.transport.fetched, ShouldResemble, []string{"m"})
		})
	})
}

func TestRemuxFallback(t *testing.T) {
	Convey("Given an audio-only result in the wrong container", t, func() {
		media := testMedia()
		media.Formats = format.List{{ID: "a", Type: format.Audio, Extension: "webm", Bitrate: 160}}
		f := newFixture(media)
		f.cfg.Type = format.Audio

		p := f.pipeline(true)
		r := &run{Pipeline: p, ctx: context.Background(), item: progress.Item{ID: "abc"}}
		So(afero.WriteFile(f.fs, "/tmp/audio.webm", []byte("x"), 0o644), ShouldBeNil)

		Convey("An incompatibility should fall back to a conversion", func() {
			f.processor.remuxErr = fault.Wrap(fault.Processing, "remux", fmt.Errorf("%w: opus", fault.ErrIncompatible))

			out, err := r.remux("/tmp/audio.webm", "mp3", true)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "/tmp/audio.mp3")
			So(f.processor.calls, ShouldResemble, []string{"remux:mp3", "convert:mp3"})
		})

		Convey("Any other failure should be returned as is", func() {
			f.processor.remuxErr = errors.New("disk full")

			_, err := r.remux("/tmp/audio.webm", "mp3", true)
			So(err, ShouldNotBeNil)
			So(f.processor.calls, ShouldResemble, []string{"remux:mp3"})
		})

		Convey("Video never falls back", func() {
			f.processor.remuxErr = fault.Wrap(fault.Processing, "remux", fault.ErrIncompatible)

			_, err := r.remux("/tmp/audio.webm", "mp4", false)
			So(fault.IsIncompatible(err), ShouldBeTrue)
			So(f.processor.calls, ShouldResemble, []string{"remux:mp4"})
		})
	})
}

func TestTags(t *testing.T) {
	Convey("Given a music item with sparse tags", t, func() {
		media := &source.Media{Title: "Song", Uploader: "Band", ReleaseYear: 2020, Music: true}

		Convey("Missing tags should be filled from generic fields", func() {
			meta := Tags(media)
			So(meta.Track, ShouldEqual, "Song")
			So(meta.Artist, ShouldEqual, "Band")
			So(meta.AlbumArtist, ShouldEqual, "Band")
			So(meta.Date, ShouldEqual, "2020")
		})

		Convey("Explicit artists should win over the uploader", func() {
			media.Artists = []string{"A", "B"}
			So(Tags(media).Artist, ShouldEqual, "A, B")
		})

		Convey("An upload date should win over the release year", func() {
			media.UploadDate = "20200315"
			media.ReleaseYear = 2019
			So(Tags(media).Date, ShouldEqual, "20200315")
		})
	})

	Convey("Given a regular video", t, func() {
		meta := Tags(&source.Media{Title: "Clip", Uploader: "Someone", UploadDate: "20240102", ReleaseYear: 2019})

		So(meta.Track, ShouldBeEmpty)
		So(meta.Artist, ShouldBeEmpty)
		So(meta.AlbumArtist, ShouldBeEmpty)
		So(meta.Date, ShouldEqual, "20240102")
	})
}
