package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/output"
	"github.com/tubedl-cli/tubedl/pipeline"
	"github.com/tubedl-cli/tubedl/progress"
	"github.com/tubedl-cli/tubedl/scratch"
	"github.com/tubedl-cli/tubedl/source"
	"github.com/tubedl-cli/tubedl/transport"
)

type fakeExtractor struct {
	media     map[string]*source.Media
	playlists map[string]*source.Playlist
	failing   string
	extracts  atomic.Int32
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(_ context.Context, url string) (source.Extraction, error) {
	f.extracts.Add(1)
	if p, ok := f.playlists[url]; ok {
		return source.FromPlaylist(p), nil
	}
	return source.FromMedia(f.media[url]), nil
}

func (f *fakeExtractor) Resolve(ctx context.Context, ref source.Reference) (*source.Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref.URL == f.failing {
		return nil, errors.New("connection reset")
	}
	return f.media[ref.URL], nil
}

type fakeTransport struct {
	fs      afero.Fs
	block   bool
	started chan struct{}
	onFetch func()
}

func (f *fakeTransport) Fetch(ctx context.Context, fm format.Format, dest string, _ transport.ProgressFunc) (int64, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.block {
		f.started <- struct{}{}
		<-ctx.Done()
		return 0, fault.Wrap(fault.Connection, "fetch", ctx.Err())
	}
	return 4, afero.WriteFile(f.fs, dest, []byte("data"), 0o644)
}

func (f *fakeTransport) FetchURL(context.Context, string, map[string]string, string) error {
	return nil
}

type observer struct {
	mu       sync.Mutex
	items    int
	terminal map[string]int
	batches  []progress.BatchProgress
}

func (o *observer) ItemChanged(s progress.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items++

	if progress.IsTerminal(s) {
		if o.terminal == nil {
			o.terminal = make(map[string]int)
		}
		o.terminal[s.ItemID()]++
	}
}

func (o *observer) finished() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return lo.Sum(lo.Values(o.terminal))
}

func (o *observer) BatchChanged(b progress.BatchProgress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, b)
}

func item(n int) *source.Media {
	return &source.Media{
		ID:    fmt.Sprintf("id%d", n),
		URL:   fmt.Sprintf("https://example.com/%d", n),
		Title: fmt.Sprintf("Item %d", n),
		Formats: format.List{
			{ID: "18", Type: format.Video, Extension: "mp4", Height: 360, AudioCodec: "aac"},
		},
	}
}

type fixture struct {
	fs        afero.Fs
	extractor *fakeExtractor
	transport *fakeTransport
	observer  *observer
	refs      []source.Reference
}

func newFixture(n int) *fixture {
	fs := afero.NewMemMapFs()
	f := &fixture{
		fs:        fs,
		extractor: &fakeExtractor{media: map[string]*source.Media{}, playlists: map[string]*source.Playlist{}},
		transport: &fakeTransport{fs: fs, started: make(chan struct{}, n)},
		observer:  &observer{},
	}

	for i := 1; i <= n; i++ {
		m := item(i)
		f.extractor.media[m.URL] = m
		f.refs = append(f.refs, m.Reference())
	}

	return f
}

func (f *fixture) orchestrator(template string, opts Options) *Orchestrator {
	opts.Observer = f.observer
	deps := pipeline.Deps{
		Extractor: f.extractor,
		Transport: f.transport,
		Output:    output.NewResolver(f.fs, "/out"),
		Locker:    output.NewKeyedLocker(),
		Scratch:   scratch.New(f.fs, "/tmp/scratch"),
		FS:        f.fs,
	}
	cfg := format.Config{Type: format.Video, OutputTemplate: template, Quality: mo.None[int]()}
	return New(deps, cfg, opts)
}

func TestRun(t *testing.T) {
	Convey("Given an invalid output template", t, func() {
		f := newFixture(1)
		o := f.orchestrator("{titel}", Options{Workers: 2})

		Convey("Run should fail before anything is extracted", func() {
			summary, err := o.Run(context.Background(), PlaylistURL("https://example.com/list"))

			var templateErr *output.TemplateError
			So(errors.As(err, &templateErr), ShouldBeTrue)
			So(templateErr.Suggestion, ShouldEqual, "title")
			So(summary, ShouldBeNil)
			So(f.extractor.extracts.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given five items where one fails", t, func() {
		f := newFixture(5)
		f.extractor.failing = f.refs[2].URL
		o := f.orchestrator("{title}", Options{Workers: 3})

		summary, err := o.Run(context.Background(), List(f.refs))

		Convey("The failure should stay isolated to its item", func() {
			So(err, ShouldBeNil)
			So(summary.Total, ShouldEqual, 5)
			So(summary.Succeeded(), ShouldEqual, 4)
			So(summary.Failed(), ShouldEqual, 1)
			So(summary.Errors(), ShouldHaveLength, 1)
			So(fault.ClassOf(summary.Errors()[0]), ShouldEqual, fault.Connection)
			So(summary.Paths(), ShouldContain, "/out/Item 5.mp4")
		})

		Convey("Batch progress should be reported once per item", func() {
			So(f.observer.batches, ShouldHaveLength, 5)
			So(lo.MaxBy(f.observer.batches, func(a, b progress.BatchProgress) bool {
				return a.Completed > b.Completed
			}).Completed, ShouldEqual, 5)
		})

		Convey("Every item should be frozen in a terminal state", func() {
			for _, ref := range f.refs {
				state, ok := o.Tracker().Get(ref.Key())
				So(ok, ShouldBeTrue)
				So(progress.IsTerminal(state), ShouldBeTrue)
			}
		})

		Convey("A second run should skip what is already there", func() {
			again, err := o.Run(context.Background(), List(f.refs))
			So(err, ShouldBeNil)
			So(again.Skipped(), ShouldEqual, 4)

			Convey("And report every item of it as finished again", func() {
				So(f.observer.finished(), ShouldEqual, 10)
			})
		})
	})

	Convey("Given a list naming the same entry twice", t, func() {
		f := newFixture(1)
		o := f.orchestrator("{title}", Options{Workers: 1})

		summary, err := o.Run(context.Background(), List([]source.Reference{f.refs[0], f.refs[0]}))

		Convey("Each occurrence should get its own terminal state", func() {
			So(err, ShouldBeNil)
			So(summary.Results, ShouldHaveLength, 2)
			So(summary.Succeeded(), ShouldEqual, 1)
			So(summary.Skipped(), ShouldEqual, 1)
			So(f.observer.finished(), ShouldEqual, 2)
			So(f.observer.terminal, ShouldContainKey, f.refs[0].Key())
			So(f.observer.terminal, ShouldContainKey, f.refs[0].Key()+"#2")
		})
	})

	Convey("Given a playlist", t, func() {
		f := newFixture(2)
		f.extractor.playlists["https://example.com/list"] = &source.Playlist{
			ID:      "PL1",
			Title:   "My List",
			Count:   2,
			Entries: f.refs,
		}
		o := f.orchestrator("{playlist_title}/{title}", Options{Workers: 2})

		summary, err := o.Run(context.Background(), PlaylistURL("https://example.com/list"))

		Convey("The playlist should name the batch and the directory", func() {
			So(err, ShouldBeNil)
			So(summary.BatchID, ShouldEqual, "PL1")
			So(summary.Paths(), ShouldContain, "/out/My List/Item 1.mp4")
			So(summary.Paths(), ShouldContain, "/out/My List/Item 2.mp4")
		})
	})

	Convey("Given an item whose template renders to nothing", t, func() {
		f := newFixture(3)
		f.extractor.media[f.refs[0].URL].Album = "/"
		o := f.orchestrator("{album}", Options{Workers: 1})

		summary, err := o.Run(context.Background(), List(f.refs))

		Convey("The batch should stop with the template error", func() {
			So(fault.Is(err, fault.Template), ShouldBeTrue)
			So(summary.Failed(), ShouldBeGreaterThanOrEqualTo, 1)
			So(summary.Succeeded(), ShouldBeLessThan, 3)
		})
	})
}

func TestItemKeys(t *testing.T) {
	Convey("Given references with repeats", t, func() {
		a := source.Reference{ID: "a", URL: "https://example.com/a"}
		b := source.Reference{ID: "b", URL: "https://example.com/b"}

		Convey("Every key should be unique and the first occurrence should keep its own", func() {
			So(itemKeys([]source.Reference{a, b, a, a}), ShouldResemble, []string{"a", "b", "a#2", "a#3"})
		})
	})
}

func TestInterruptBetweenItems(t *testing.T) {
	Convey("Given an interrupt raised while the only worker finishes an item", t, func() {
		Convey("No further item should start", func() {
			for range 20 {
				f := newFixture(3)
				ctx, cancel := context.WithCancel(context.Background())
				f.transport.onFetch = cancel

				o := f.orchestrator("{title}", Options{Workers: 1, GracePeriod: time.Hour})
				summary, err := o.Run(ctx, List(f.refs))
				cancel()

				So(errors.Is(err, fault.ErrInterrupted), ShouldBeTrue)
				So(summary.Results, ShouldHaveLength, 1)
			}
		})
	})
}

func TestInterrupt(t *testing.T) {
	Convey("Given a batch whose downloads never finish on their own", t, func() {
		f := newFixture(5)
		f.transport.block = true

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		run := func(o *Orchestrator) (chan struct{}, *Summary, *error) {
			var (
				summary = new(Summary)
				err     = new(error)
				done    = make(chan struct{})
			)

			go func() {
				defer close(done)
				s, e := o.Run(ctx, List(f.refs))
				*summary, *err = *s, e
			}()

			<-f.transport.started
			<-f.transport.started
			return done, summary, err
		}

		Convey("The first interrupt should wait and the second should abandon", func() {
			o := f.orchestrator("{title}", Options{Workers: 2, GracePeriod: time.Hour})
			done, summary, err := run(o)

			cancel()

			select {
			case <-done:
				t.Fatal("run returned before the running items were abandoned")
			case <-time.After(50 * time.Millisecond):
			}

			o.Abandon()
			<-done

			So(errors.Is(*err, fault.ErrInterrupted), ShouldBeTrue)
			So(summary.Results, ShouldHaveLength, 2)
			So(summary.Failed(), ShouldEqual, 2)
			for _, e := range summary.Errors() {
				So(fault.ClassOf(e), ShouldEqual, fault.Interrupted)
			}
		})

		Convey("The grace period should abandon on its own", func() {
			o := f.orchestrator("{title}", Options{Workers: 2, GracePeriod: 20 * time.Millisecond})
			done, summary, err := run(o)

			cancel()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("run did not return after the grace period")
			}

			So(errors.Is(*err, fault.ErrInterrupted), ShouldBeTrue)
			So(summary.Results, ShouldHaveLength, 2)
		})
	})
}
