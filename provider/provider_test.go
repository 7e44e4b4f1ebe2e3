package provider

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/source"
	"github.com/tubedl-cli/tubedl/where"
)

func init() {
	filesystem.SetMemMapFs()
}

type countingExtractor struct {
	extracts atomic.Int32
	resolves atomic.Int32
	media    *source.Media
}

func (c *countingExtractor) Name() string { return "counting" }

func (c *countingExtractor) Extract(context.Context, string) (source.Extraction, error) {
	c.extracts.Add(1)
	return source.FromMedia(c.media), nil
}

func (c *countingExtractor) Resolve(context.Context, source.Reference) (*source.Media, error) {
	c.resolves.Add(1)
	return c.media, nil
}

func TestGet(t *testing.T) {
	Convey("When trying to get an invalid provider", t, func() {
		_, ok := Get("kek")
		Convey("Then ok should be false", func() {
			So(ok, ShouldBeFalse)
		})
	})

	Convey("The youtube provider should be built in", t, func() {
		p, ok := Get("youtube")
		So(ok, ShouldBeTrue)
		So(p.IsCustom, ShouldBeFalse)
	})
}

func TestForURL(t *testing.T) {
	Convey("Given an installed Lua extractor", t, func() {
		script := "-- @hosts example.org\nfunction Extract(url) end\nfunction Resolve(e) end\n"
		path := where.Extractors() + "/example.lua"
		So(filesystem.API().WriteFile(path, []byte(script), 0o644), ShouldBeNil)
		defer filesystem.API().Remove(path)

		Convey("Its hosts should route to it", func() {
			p, ok := ForURL("https://www.example.org/watch/1")
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "example")
			So(p.IsCustom, ShouldBeTrue)
		})

		Convey("YouTube hosts should route to the builtin", func() {
			p, ok := ForURL("https://music.youtube.com/watch?v=abc")
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "youtube")
		})

		Convey("Unknown hosts should use the default extractor", func() {
			viper.Set(key.ExtractorDefault, "example")
			defer viper.Set(key.ExtractorDefault, "youtube")

			p, ok := ForURL("https://unknown.net/x")
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "example")
		})
	})
}

func TestRouter(t *testing.T) {
	Convey("Given a router over a fake provider", t, func() {
		inner := &countingExtractor{media: &source.Media{ID: "a", URL: "https://x/a", Formats: format.List{{ID: "1", URL: "https://x/1"}}}}
		var created atomic.Int32

		fake := &Provider{Name: "fake", CreateExtractor: func(Env) (source.Extractor, error) {
			created.Add(1)
			return inner, nil
		}}

		router := NewRouter(Env{}, WithLookup(func(u string) (*Provider, bool) {
			return fake, u != "https://nowhere"
		}))

		Convey("Extractors should be created once", func() {
			_, err := router.Extract(context.Background(), "https://x/a")
			So(err, ShouldBeNil)
			_, err = router.Resolve(context.Background(), source.Reference{URL: "https://x/a"})
			So(err, ShouldBeNil)
			So(created.Load(), ShouldEqual, 1)
		})

		Convey("Unclaimed URLs should be contract errors", func() {
			_, err := router.Extract(context.Background(), "https://nowhere")
			So(fault.ClassOf(err), ShouldEqual, fault.Contract)
		})
	})
}

func TestCached(t *testing.T) {
	Convey("Given a cached extractor", t, func() {
		store := cache.New(afero.NewMemMapFs(), "/cache", time.Hour)
		inner := &countingExtractor{media: &source.Media{
			ID:      "a",
			URL:     "https://x/a",
			Formats: format.List{{ID: "1", URL: "https://x/1"}},
		}}
		cached := NewCache(store).Wrap(inner)

		Convey("A second extraction should be served from disk", func() {
			for range 2 {
				extraction, err := cached.Extract(context.Background(), "https://x/a")
				So(err, ShouldBeNil)
				So(extraction.MustLeft().ID, ShouldEqual, "a")
			}
			So(inner.extracts.Load(), ShouldEqual, 1)
		})

		Convey("A second resolution should be served from disk", func() {
			for range 2 {
				media, err := cached.Resolve(context.Background(), source.Reference{URL: "https://x/a"})
				So(err, ShouldBeNil)
				So(media.Formats, ShouldHaveLength, 1)
			}
			So(inner.resolves.Load(), ShouldEqual, 1)
		})

		Convey("Entries with expiring stream URLs should be refetched", func() {
			soon := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
			inner.media = &source.Media{
				ID:      "a",
				URL:     "https://x/a",
				Formats: format.List{{ID: "1", URL: "https://x/1?expire=" + soon}},
			}

			for range 2 {
				_, err := cached.Resolve(context.Background(), source.Reference{URL: "https://x/a"})
				So(err, ShouldBeNil)
			}
			So(inner.resolves.Load(), ShouldEqual, 2)
		})
	})
}
