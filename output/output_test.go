package output

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/source"
)

func TestWhitelist(t *testing.T) {
	Convey("The whitelist", t, func() {
		Convey("Should accept Go names and JSON aliases", func() {
			for _, name := range []string{"title", "Title", "uploader", "playlist_title", "ext", "Extension", "format_id", "filesize", "height"} {
				So(IsAllowed(name), ShouldBeTrue)
			}
		})

		Convey("Should reject collections and structural fields", func() {
			for _, name := range []string{"formats", "Formats", "thumbnails", "artists", "entries", "type", "http_headers", "bogus_field"} {
				So(IsAllowed(name), ShouldBeFalse)
			}
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given templates", t, func() {
		Convey("Known fields should pass", func() {
			So(Validate("{playlist_title}/{uploader} - {title}"), ShouldBeNil)
		})

		Convey("An unknown field should fail with a template error", func() {
			err := Validate("{title} - {bogus_field}")
			So(fault.Is(err, fault.Template), ShouldBeTrue)

			var te *TemplateError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.Key, ShouldEqual, "bogus_field")
		})

		Convey("A typo should come with a suggestion", func() {
			var te *TemplateError
			So(errors.As(Validate("{titel}"), &te), ShouldBeTrue)
			So(te.Suggestion, ShouldEqual, "title")

			So(errors.As(Validate("{upload}"), &te), ShouldBeTrue)
			So(te.Suggestion, ShouldStartWith, "upload")
		})

		Convey("Empty templates and tokens should fail", func() {
			So(Validate("  "), ShouldNotBeNil)
			So(Validate("{title} {}"), ShouldNotBeNil)
		})
	})
}

func TestRender(t *testing.T) {
	Convey("Given an item inside a playlist", t, func() {
		media := &source.Media{ID: "abc", Title: "Song", Uploader: "Artist"}
		playlist := &source.Playlist{ID: "pl", Title: "Mix"}
		f := &format.Format{ID: "251", Extension: "webm", Filesize: mo.Some[int64](1024)}

		fields := Fields(media, playlist, f)

		Convey("Media fields should win over playlist and format fields", func() {
			So(fields["id"], ShouldEqual, "abc")
			So(fields["ID"], ShouldEqual, "abc")
			So(fields["playlist_title"], ShouldEqual, "Mix")
			So(fields["ext"], ShouldEqual, "webm")
			So(fields["filesize"], ShouldEqual, "1024")
		})

		Convey("Missing fields should use the fallback literal", func() {
			So(Render("{uploader} - {title} [{album}]", fields, mo.Some(Missing)), ShouldEqual, "Artist - Song [NA]")
		})

		Convey("Partial rendering should leave missing tokens verbatim", func() {
			partial := ReferenceFields(source.Reference{ID: "abc", Title: "Song"}, nil)
			So(Render("{uploader} - {title}", partial, mo.None[string]()), ShouldEqual, "{uploader} - Song")
		})
	})
}

func TestSanitize(t *testing.T) {
	Convey("Sanitize", t, func() {
		Convey("Should keep readable names", func() {
			So(Sanitize("Artist - Title"), ShouldEqual, "Artist - Title")
		})

		Convey("Should replace reserved characters and drop control characters", func() {
			So(Sanitize("What? <Live>\x07"), ShouldEqual, "What？ ＜Live＞")
		})

		Convey("Should never escape the root", func() {
			So(Sanitize("../../etc/passwd"), ShouldEqual, filepath.Join("etc", "passwd"))
			So(Sanitize("/abs/./path/"), ShouldEqual, filepath.Join("abs", "path"))
		})

		Convey("Should normalize to NFC", func() {
			So(Sanitize("Café"), ShouldEqual, "Café")
		})

		Convey("Should cap the length by trimming the basename", func() {
			long := "dir/" + strings.Repeat("x", 400)
			got := Sanitize(long)
			So(utf8.RuneCountInString(got), ShouldBeLessThanOrEqualTo, MaxPathLength)
			So(filepath.Dir(got), ShouldEqual, "dir")
		})

		Convey("Should keep every segment within the byte limit", func() {
			got := Sanitize(strings.Repeat("漢", 250) + "/" + strings.Repeat("字", 240))
			for _, segment := range strings.Split(got, string(filepath.Separator)) {
				So(len(segment), ShouldBeLessThanOrEqualTo, MaxSegmentBytes)
				So(utf8.ValidString(segment), ShouldBeTrue)
			}
			So(len(filepath.Base(got)+".mp4"), ShouldBeLessThanOrEqualTo, 255)
		})

		Convey("Should return nothing for unusable input", func() {
			So(Sanitize(" / .. / . "), ShouldBeEmpty)
		})
	})
}

func TestResolver(t *testing.T) {
	Convey("Given an output root with an existing download", t, func() {
		fs := afero.NewMemMapFs()
		So(afero.WriteFile(fs, "/out/Artist - Title.mp4", []byte("x"), 0o644), ShouldBeNil)
		So(afero.WriteFile(fs, "/out/Artist - Title.part", []byte("x"), 0o644), ShouldBeNil)
		r := NewResolver(fs, "/out")

		Convey("Destination should render and sanitize the template", func() {
			dest, err := r.Destination("{uploader}/{title}", map[string]string{"uploader": "Art:ist", "title": "Song"})
			So(err, ShouldBeNil)
			So(dest.Dir, ShouldEqual, filepath.Join("/out", "Art：ist"))
			So(dest.Path("m4a"), ShouldEqual, filepath.Join("/out", "Art：ist", "Song.m4a"))
		})

		Convey("A template rendering to nothing should be a template error", func() {
			_, err := r.Destination("{title}", map[string]string{"title": ".."})
			So(fault.Is(err, fault.Template), ShouldBeTrue)
		})

		Convey("FindDuplicate should match the stem with a media extension", func() {
			found, err := r.FindDuplicate(Destination{Dir: "/out", Base: "Artist - Title"}, mo.None[string]())
			So(err, ShouldBeNil)
			So(found, ShouldResemble, mo.Some(filepath.Join("/out", "Artist - Title.mp4")))
		})

		Convey("FindDuplicate should accept the forced extension", func() {
			So(afero.WriteFile(fs, "/out/Other.wma", []byte("x"), 0o644), ShouldBeNil)
			found, _ := r.FindDuplicate(Destination{Dir: "/out", Base: "Other"}, mo.Some("wma"))
			So(found.IsPresent(), ShouldBeTrue)
		})

		Convey("FindDuplicate should ignore other stems, other extensions and missing directories", func() {
			found, _ := r.FindDuplicate(Destination{Dir: "/out", Base: "Artist"}, mo.None[string]())
			So(found.IsAbsent(), ShouldBeTrue)

			So(fs.Remove("/out/Artist - Title.mp4"), ShouldBeNil)
			found, _ = r.FindDuplicate(Destination{Dir: "/out", Base: "Artist - Title"}, mo.None[string]())
			So(found.IsAbsent(), ShouldBeTrue)

			found, err := r.FindDuplicate(Destination{Dir: "/nowhere", Base: "x"}, mo.None[string]())
			So(err, ShouldBeNil)
			So(found.IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestKeyedLocker(t *testing.T) {
	Convey("Given a keyed locker", t, func() {
		locker := NewKeyedLocker()
		unlock, err := locker.Lock(context.Background(), "/out/a.mp4")
		So(err, ShouldBeNil)

		Convey("Other paths should not block", func() {
			other, err := locker.Lock(context.Background(), "/out/b.mp4")
			So(err, ShouldBeNil)
			other()
		})

		Convey("The same path should block until released", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err := locker.Lock(ctx, "/out/a.mp4")
			So(err, ShouldEqual, context.DeadlineExceeded)

			unlock()
			again, err := locker.Lock(context.Background(), "/out/a.mp4")
			So(err, ShouldBeNil)
			again()
		})

		Reset(func() { unlock() })
	})
}

func TestFileLocker(t *testing.T) {
	Convey("Given a file locker", t, func() {
		locker, err := NewFileLocker(t.TempDir())
		So(err, ShouldBeNil)

		Convey("It should lock, release and lock again", func() {
			unlock, err := locker.Lock(context.Background(), "/out/a.mp4")
			So(err, ShouldBeNil)
			unlock()
			unlock()

			unlock, err = locker.Lock(context.Background(), "/out/a.mp4")
			So(err, ShouldBeNil)
			unlock()
		})
	})
}
