package source

import (
	"errors"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/format"
)

// ErrNoFormats is returned for a media descriptor that carries no formats.
var ErrNoFormats = errors.New("media has no formats")

// Reference is a lazy pointer to a media item: enough to show a placeholder and to resolve it later.
type Reference struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	// Index is the 1-based position inside the originating playlist, 0 otherwise.
	Index int `json:"index,omitempty"`
}

// Key identifies the item for progress tracking: the id when known, the URL otherwise.
func (r Reference) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.URL
}

// Thumbnail is a cover image candidate.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Subtitle is one subtitle track.
type Subtitle struct {
	Language  string `json:"language"`
	URL       string `json:"url"`
	Extension string `json:"ext"`
	Name      string `json:"name,omitempty"`
}

// Chapter is a titled time range, in seconds.
type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Media is a fully resolved media item. It is never modified once an extractor returned it.
type Media struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Uploader    string   `json:"uploader,omitempty"`
	Description string   `json:"description,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
	UploadDate  string   `json:"upload_date,omitempty"`
	ReleaseYear int      `json:"release_year,omitempty"`
	Track       string   `json:"track,omitempty"`
	Artists     []string `json:"artists,omitempty"`
	Album       string   `json:"album,omitempty"`
	AlbumArtist string   `json:"album_artist,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	Extractor   string   `json:"extractor"`
	// Music is set when the item comes from a music site.
	Music bool `json:"is_music"`

	Thumbnails []Thumbnail `json:"thumbnails,omitempty"`
	Subtitles  []Subtitle  `json:"subtitles,omitempty"`
	Chapters   []Chapter   `json:"chapters,omitempty"`
	Formats    format.List `json:"formats"`
}

// Reference returns the lazy form of m.
func (m *Media) Reference() Reference {
	return Reference{ID: m.ID, URL: m.URL, Title: m.Title}
}

// Validate checks the invariants extractors must uphold.
func (m *Media) Validate() error {
	if len(m.Formats) == 0 {
		return fault.Wrap(fault.Contract, "resolve", ErrNoFormats)
	}
	return nil
}

// BestThumbnail picks the thumbnail with the largest area. The first one wins ties.
func (m *Media) BestThumbnail() mo.Option[Thumbnail] {
	if len(m.Thumbnails) == 0 {
		return mo.None[Thumbnail]()
	}

	return mo.Some(lo.Reduce(m.Thumbnails[1:], func(best Thumbnail, t Thumbnail, _ int) Thumbnail {
		if t.Width*t.Height > best.Width*best.Height {
			return t
		}
		return best
	}, m.Thumbnails[0]))
}

// Playlist groups lazy references to its entries.
type Playlist struct {
	ID       string      `json:"playlist_id"`
	URL      string      `json:"playlist_url"`
	Title    string      `json:"playlist_title"`
	Uploader string      `json:"playlist_uploader,omitempty"`
	Count    int         `json:"playlist_count"`
	Entries  []Reference `json:"entries"`
}

// IsMusicHost reports whether rawURL points at one of hosts or one of their subdomains.
func IsMusicHost(rawURL string, hosts []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	return lo.ContainsBy(hosts, func(h string) bool {
		h = strings.ToLower(h)
		return host == h || strings.HasSuffix(host, "."+h)
	})
}
