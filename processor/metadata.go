package processor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/zhaarey/go-mp4tag"
)

// Metadata are the tags written into a finished file. Empty fields are left out.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Track       string
	TrackNumber int
	Date        string
	Genre       string
	Comment     string
	Description string
	URL         string
}

// pairs lists the ffmpeg -metadata keys in a fixed order.
func (m Metadata) pairs() [][2]string {
	var number string
	if m.TrackNumber > 0 {
		number = strconv.Itoa(m.TrackNumber)
	}

	all := [][2]string{
		{"title", m.title()},
		{"artist", m.Artist},
		{"album", m.Album},
		{"album_artist", m.AlbumArtist},
		{"track", number},
		{"date", m.Date},
		{"genre", m.Genre},
		{"comment", m.Comment},
		{"description", m.Description},
		{"purl", m.URL},
	}

	return lo.Filter(all, func(p [2]string, _ int) bool {
		return p[1] != ""
	})
}

// title prefers the track name of music over the media title.
func (m Metadata) title() string {
	if m.Track != "" {
		return m.Track
	}
	return m.Title
}

// IsZero reports whether m holds no tag at all.
func (m Metadata) IsZero() bool {
	return len(m.pairs()) == 0
}

// EmbedMetadata writes m into path. MP4-family files are tagged in place, everything else goes through ffmpeg.
func (f *FFmpeg) EmbedMetadata(ctx context.Context, path string, m Metadata) error {
	if m.IsZero() {
		return nil
	}

	if isMP4Family(extOf(path)) {
		return writeMP4Tags(path, m)
	}

	tmp := tempFor(path)
	args := []string{"-i", path, "-map", "0", "-dn", "-ignore_unknown", "-c", "copy"}
	for _, p := range m.pairs() {
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", p[0], p[1]))
	}
	args = append(args, tmp)

	if err := f.ffmpeg(ctx, "embed metadata", args...); err != nil {
		_ = f.fs.Remove(tmp)
		return err
	}

	return f.replace(tmp, path)
}

func writeMP4Tags(path string, m Metadata) error {
	tags := &mp4tag.MP4Tags{
		Title:       m.title(),
		Artist:      m.Artist,
		Album:       m.Album,
		AlbumArtist: m.AlbumArtist,
		Date:        m.Date,
		CustomGenre: m.Genre,
		Custom:      map[string]string{},
	}

	if m.TrackNumber > 0 {
		tags.TrackNumber = int16(m.TrackNumber)
	}
	if m.Comment != "" {
		tags.Custom["COMMENT"] = m.Comment
	}
	if m.Description != "" {
		tags.Custom["DESCRIPTION"] = m.Description
	}
	if m.URL != "" {
		tags.Custom["PURL"] = m.URL
	}

	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fault.Wrap(fault.Processing, "embed metadata", err)
	}
	defer mp4.Close()

	if err := mp4.Write(tags, []string{}); err != nil {
		return fault.Wrap(fault.Processing, "embed metadata", err)
	}

	return nil
}
