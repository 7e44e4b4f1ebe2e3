package youtube

import (
	"mime"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/source"
)

func mediaFrom(video *youtube.Video, music bool) *source.Media {
	media := &source.Media{
		ID:          video.ID,
		URL:         watchURL(video.ID),
		Title:       video.Title,
		Uploader:    strings.TrimSuffix(video.Author, " - Topic"),
		Description: video.Description,
		Duration:    video.Duration.Seconds(),
		Extractor:   Name,
		Music:       music,
	}

	if !video.PublishDate.IsZero() {
		media.UploadDate = video.PublishDate.Format("20060102")
		if music {
			media.ReleaseYear = video.PublishDate.Year()
		}
	}

	media.Thumbnails = lo.Map(video.Thumbnails, func(t youtube.Thumbnail, _ int) source.Thumbnail {
		return source.Thumbnail{URL: t.URL, Width: int(t.Width), Height: int(t.Height)}
	})

	media.Subtitles = lo.FilterMap(video.CaptionTracks, func(c youtube.CaptionTrack, _ int) (source.Subtitle, bool) {
		if c.BaseURL == "" {
			return source.Subtitle{}, false
		}

		return source.Subtitle{
			Language:  c.LanguageCode,
			URL:       captionURL(c.BaseURL),
			Extension: "vtt",
			Name:      c.Name.SimpleText,
		}, true
	})

	return media
}

func captionURL(base string) string {
	if strings.Contains(base, "?") {
		return base + "&fmt=vtt"
	}
	return base + "?fmt=vtt"
}

// formatsFrom converts every stream of video. Streams whose URL cannot be deciphered are dropped.
func formatsFrom(video *youtube.Video, streamURL func(*youtube.Format) (string, error)) format.List {
	var list format.List

	for i := range video.Formats {
		yf := &video.Formats[i]

		f, ok := formatFrom(yf)
		if !ok {
			continue
		}

		if f.URL == "" {
			u, err := streamURL(yf)
			if err != nil {
				log.With(log.Fields{"itag": yf.ItagNo}).Warnf("stream url: %s", err)
				continue
			}
			f.URL = u
		}

		list = append(list, f)
	}

	return list
}

func formatFrom(yf *youtube.Format) (format.Format, bool) {
	mediaType, params, err := mime.ParseMediaType(yf.MimeType)
	if err != nil {
		return format.Format{}, false
	}

	kind, sub, _ := strings.Cut(mediaType, "/")

	f := format.Format{
		ID:       strconv.Itoa(yf.ItagNo),
		URL:      yf.URL,
		Protocol: "https",
		Bitrate:  float64(bitrateOf(yf)) / 1000,
	}

	if yf.ContentLength > 0 {
		f.Filesize = mo.Some(int64(yf.ContentLength))
	}

	codecs := lo.Map(strings.Split(params["codecs"], ","), func(c string, _ int) string {
		return strings.TrimSpace(c)
	})

	switch kind {
	case "video":
		f.Type = format.Video
		f.Extension = extensionOf(kind, sub)
		f.Width = yf.Width
		f.Height = yf.Height
		f.FPS = float64(yf.FPS)
		f.Codec = codecs[0]
		if len(codecs) > 1 {
			f.AudioCodec = codecs[1]
		} else {
			f.AudioCodec = "none"
		}
	case "audio":
		f.Type = format.Audio
		f.Extension = extensionOf(kind, sub)
		f.Codec = codecs[0]
	default:
		return format.Format{}, false
	}

	return f, true
}

func extensionOf(kind, sub string) string {
	switch {
	case sub == "3gpp":
		return "3gp"
	case kind == "audio" && sub == "mp4":
		return "m4a"
	default:
		return sub
	}
}

func bitrateOf(yf *youtube.Format) int {
	if yf.AverageBitrate > 0 {
		return yf.AverageBitrate
	}
	return yf.Bitrate
}

func playlistFrom(p *youtube.Playlist, music bool) *source.Playlist {
	playlist := &source.Playlist{
		ID:       p.ID,
		URL:      "https://www.youtube.com/playlist?list=" + p.ID,
		Title:    p.Title,
		Uploader: p.Author,
	}

	if music {
		playlist.URL = "https://music.youtube.com/playlist?list=" + p.ID
	}

	for i, entry := range p.Videos {
		if entry == nil {
			continue
		}

		ref := source.Reference{
			ID:    entry.ID,
			URL:   watchURL(entry.ID),
			Title: entry.Title,
			Index: i + 1,
		}
		if music {
			ref.URL = "https://music.youtube.com/watch?v=" + entry.ID
		}

		playlist.Entries = append(playlist.Entries, ref)
	}

	playlist.Count = len(playlist.Entries)
	return playlist
}
