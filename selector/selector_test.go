package selector

import (
	"errors"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/source"
)

func media(formats ...format.Format) *source.Media {
	return &source.Media{ID: "m", Title: "Title", Formats: formats}
}

func audio(id string, bitrate float64, ext string) format.Format {
	return format.Format{ID: id, Type: format.Audio, Bitrate: bitrate, Extension: ext, Codec: "mp4a.40.2"}
}

func video(id string, height int, ext string) format.Format {
	return format.Format{ID: id, Type: format.Video, Height: height, Extension: ext, Codec: "avc1"}
}

func TestSelectAudio(t *testing.T) {
	Convey("Given an audio request with a quality target", t, func() {
		cfg := format.Config{Type: format.Audio, Quality: mo.Some(200), CanProcess: true}
		m := media(audio("a", 128, "m4a"), audio("b", 256, "m4a"))

		Convey("The closest quality should be selected", func() {
			sel, err := Select(m, cfg)
			So(err, ShouldBeNil)

			expected, _ := m.Formats.OnlyAudio().ClosestQuality(200)
			So(sel.Audio.MustGet().ID, ShouldEqual, expected.ID)
			So(sel.Audio.MustGet().ID, ShouldEqual, "b")
			So(sel.Video.IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestSelectVideo(t *testing.T) {
	Convey("Given a media item with separate video and audio streams", t, func() {
		m := media(video("v480", 480, "mp4"), video("v1080", 1080, "webm"), audio("a128", 128, "m4a"), audio("a160", 160, "webm"))

		Convey("A video request should pick the best of both for merging", func() {
			sel, err := Select(m, format.Config{Type: format.Video, CanProcess: true})
			So(err, ShouldBeNil)
			So(sel.Video.MustGet().ID, ShouldEqual, "v1080")
			So(sel.Audio.MustGet().ID, ShouldEqual, "a160")
			So(sel.NeedsMerge(), ShouldBeTrue)
			So(sel.Primary().ID, ShouldEqual, "v1080")
		})

		Convey("Music sites should get audio only", func() {
			music := *m
			music.Music = true
			sel, err := Select(&music, format.Config{Type: format.Video, CanProcess: true})
			So(err, ShouldBeNil)
			So(sel.Video.IsAbsent(), ShouldBeTrue)
			So(sel.Audio.MustGet().ID, ShouldEqual, "a160")
		})

		Convey("A fixed extension should filter both sides", func() {
			sel, err := Select(m, format.Config{Type: format.Video, Extension: mo.Some("mp4"), CanProcess: true})
			So(err, ShouldBeNil)
			So(sel.Video.MustGet().ID, ShouldEqual, "v480")
			So(sel.Audio.IsAbsent(), ShouldBeTrue)
		})

		Convey("An audio extension should select audio only", func() {
			sel, err := Select(m, format.Config{Type: format.Video, Extension: mo.Some("m4a"), CanProcess: true})
			So(err, ShouldBeNil)
			So(sel.Formats(), ShouldHaveLength, 1)
			So(sel.Primary().ID, ShouldEqual, "a128")
		})

		Convey("An extension nothing matches should not fall back to an unfiltered pick", func() {
			_, err := Select(m, format.Config{Type: format.Video, Extension: mo.Some("mkv"), CanProcess: true})
			So(errors.Is(err, ErrNoFormats), ShouldBeTrue)
			So(fault.Is(err, fault.Contract), ShouldBeTrue)
		})
	})
}

func TestSelectWithoutProcessor(t *testing.T) {
	Convey("Given no postprocessing engine", t, func() {
		muxed := video("18", 360, "mp4")
		muxed.AudioCodec = "mp4a.40.2"
		m := media(video("137", 1080, "mp4"), muxed, audio("140", 128, "m4a"))

		Convey("Only a single muxed stream should be selected", func() {
			sel, err := Select(m, format.Config{Type: format.Video})
			So(err, ShouldBeNil)
			So(sel.Video.MustGet().ID, ShouldEqual, "18")
			So(sel.NeedsMerge(), ShouldBeFalse)
		})
	})
}

func TestSelectFallbacks(t *testing.T) {
	Convey("A video request on an audio-only item should fall back to audio", t, func() {
		sel, err := Select(media(audio("a", 128, "mp3")), format.Config{Type: format.Video, CanProcess: true})
		So(err, ShouldBeNil)
		So(sel.Primary().ID, ShouldEqual, "a")
	})

	Convey("An item without formats should be a hard failure", t, func() {
		_, err := Select(media(), format.Config{Type: format.Video})
		So(errors.Is(err, ErrNoFormats), ShouldBeTrue)
	})
}
