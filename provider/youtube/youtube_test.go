package youtube

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
)

func TestURLs(t *testing.T) {
	Convey("Playlist detection", t, func() {
		So(isPlaylist("https://www.youtube.com/playlist?list=PL0123456789abcdef"), ShouldBeTrue)
		So(isPlaylist("PL0123456789abcdef"), ShouldBeTrue)
		So(isPlaylist("https://www.youtube.com/watch?v=abc&list=PL0123456789abcdef"), ShouldBeFalse)
		So(isPlaylist("https://youtu.be/abc"), ShouldBeFalse)
	})

	Convey("Music URLs should point at the regular site", t, func() {
		So(normalizeURL("https://music.youtube.com/watch?v=abc&si=x"), ShouldEqual, "https://www.youtube.com/watch?v=abc")
		So(normalizeURL("https://www.youtube.com/watch?v=abc"), ShouldEqual, "https://www.youtube.com/watch?v=abc")
	})
}

func TestConvert(t *testing.T) {
	Convey("Given a YouTube video", t, func() {
		video := &youtube.Video{
			ID:          "abc",
			Title:       "Song",
			Author:      "Band - Topic",
			Duration:    90 * time.Second,
			PublishDate: time.Date(2021, 5, 4, 0, 0, 0, 0, time.UTC),
			Thumbnails:  youtube.Thumbnails{{URL: "https://i.ytimg.com/a.jpg", Width: 480, Height: 360}},
			Formats: youtube.FormatList{
				{ItagNo: 137, URL: "https://v/137", MimeType: `video/mp4; codecs="avc1.640028"`, Width: 1920, Height: 1080, FPS: 30, Bitrate: 4000000},
				{ItagNo: 18, URL: "https://v/18", MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Width: 640, Height: 360, Bitrate: 500000},
				{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, AverageBitrate: 160000, ContentLength: 1234},
				{ItagNo: 140, URL: "https://v/140", MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000},
				{ItagNo: 999, URL: "https://v/999", MimeType: "text/plain"},
			},
		}

		Convey("Media fields should be mapped", func() {
			media := mediaFrom(video, true)
			So(media.URL, ShouldEqual, "https://www.youtube.com/watch?v=abc")
			So(media.Uploader, ShouldEqual, "Band")
			So(media.Duration, ShouldEqual, 90)
			So(media.UploadDate, ShouldEqual, "20210504")
			So(media.ReleaseYear, ShouldEqual, 2021)
			So(media.Music, ShouldBeTrue)
			So(media.Thumbnails[0].Width, ShouldEqual, 480)
		})

		Convey("Formats should be converted and deciphered", func() {
			formats := formatsFrom(video, func(f *youtube.Format) (string, error) {
				return "https://deciphered/" + f.MimeType[:5], nil
			})

			So(formats, ShouldHaveLength, 4)

			hd, _ := formats.ByID("137")
			So(hd.Type, ShouldEqual, format.Video)
			So(hd.Extension, ShouldEqual, "mp4")
			So(hd.Codec, ShouldEqual, "avc1.640028")
			So(hd.AudioCodec, ShouldEqual, "none")
			So(hd.Bitrate, ShouldEqual, 4000)

			muxed, _ := formats.ByID("18")
			So(muxed.AudioCodec, ShouldEqual, "mp4a.40.2")

			opus, _ := formats.ByID("251")
			So(opus.Type, ShouldEqual, format.Audio)
			So(opus.Extension, ShouldEqual, "webm")
			So(opus.URL, ShouldEqual, "https://deciphered/audio")
			So(opus.Bitrate, ShouldEqual, 160)
			So(opus.Filesize.OrEmpty(), ShouldEqual, 1234)

			aac, _ := formats.ByID("140")
			So(aac.Extension, ShouldEqual, "m4a")
		})

		Convey("Undecipherable formats should be dropped", func() {
			formats := formatsFrom(video, func(*youtube.Format) (string, error) {
				return "", errors.New("cipher")
			})
			So(formats, ShouldHaveLength, 3)
		})
	})

	Convey("Given a YouTube playlist", t, func() {
		playlist := &youtube.Playlist{
			ID:     "PL0123456789abcdef",
			Title:  "Mix",
			Author: "Someone",
			Videos: []*youtube.PlaylistEntry{{ID: "a", Title: "A"}, nil, {ID: "b"}},
		}

		Convey("Entries should become references with 1-based positions", func() {
			p := playlistFrom(playlist, false)
			So(p.Count, ShouldEqual, 2)
			So(p.Entries[0].URL, ShouldEqual, "https://www.youtube.com/watch?v=a")
			So(p.Entries[1].Index, ShouldEqual, 3)
		})

		Convey("Music playlists should keep music URLs", func() {
			p := playlistFrom(playlist, true)
			So(p.Entries[0].URL, ShouldEqual, "https://music.youtube.com/watch?v=a")
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Private videos should never be retried", t, func() {
		err := classify("extract video", youtube.ErrVideoPrivate)
		So(fault.ClassOf(err), ShouldEqual, fault.Contract)
		So(fault.Message(err), ShouldEqual, "video is private")
	})

	Convey("Other failures should be connection errors", t, func() {
		So(fault.ClassOf(classify("extract video", errors.New("eof"))), ShouldEqual, fault.Connection)
		So(fault.ClassOf(classify("extract video", context.Canceled)), ShouldEqual, fault.Interrupted)
	})
}
