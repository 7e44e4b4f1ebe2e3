// Package format models the concrete encodings a media item can be downloaded in,
// and the ranked, filterable lists the selector chooses from.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/mo"
)

// Type tells video formats apart from audio-only ones.
type Type int

const (
	Video Type = iota + 1
	Audio
)

func (t Type) String() string {
	switch t {
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return "unknown"
	}
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		return Video, nil
	case "audio":
		return Audio, nil
	default:
		return 0, fmt.Errorf("unknown format type %q", s)
	}
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Format is one concrete encoding of a media item. It is a value type and never mutated after construction.
//
// Width, Height, FPS and AudioCodec only apply to video formats.
// AudioCodec is set when a video stream also carries an audio track.
type Format struct {
	ID        string            `json:"format_id"`
	URL       string            `json:"url"`
	Protocol  string            `json:"protocol"`
	Extension string            `json:"ext"`
	Filesize  mo.Option[int64]  `json:"filesize"`
	Bitrate   float64           `json:"bitrate"`
	Codec     string            `json:"codec"`
	Type      Type              `json:"type"`
	Headers   map[string]string `json:"http_headers,omitempty"`

	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	AudioCodec string  `json:"acodec,omitempty"`
}

// Quality is the height of a video format, or the bitrate in kbps of an audio format.
func (f Format) Quality() int {
	if f.Type == Video {
		return f.Height
	}
	return int(math.Round(f.Bitrate))
}

// IsVideo reports whether f carries a picture.
func (f Format) IsVideo() bool {
	return f.Type == Video
}

// IsAudio reports whether f is audio-only.
func (f Format) IsAudio() bool {
	return f.Type == Audio
}

// Muxed reports whether f is a video stream that already includes audio.
func (f Format) Muxed() bool {
	return f.Type == Video && f.AudioCodec != "" && f.AudioCodec != "none"
}

// Resolution renders the picture size, e.g. "1920x1080", or "audio only".
func (f Format) Resolution() string {
	if f.Type != Video {
		return "audio only"
	}
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

func (f Format) String() string {
	if f.Type == Video {
		return fmt.Sprintf("%s %s %dp %s", f.ID, f.Extension, f.Height, f.Codec)
	}
	return fmt.Sprintf("%s %s %dk %s", f.ID, f.Extension, f.Quality(), f.Codec)
}
