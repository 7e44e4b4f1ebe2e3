// Package youtube is the built-in extractor for YouTube and YouTube Music.
package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/tubedl-cli/tubedl/fault"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/source"
)

// Name of the extractor.
const Name = "youtube"

// Hosts claimed by the extractor.
var Hosts = []string{"youtube.com", "youtu.be", "music.youtube.com"}

var (
	playlistIDRegex  = regexp.MustCompile(`^(PL|UU|LL|RD|OL)[A-Za-z0-9_-]{10,}$`)
	playlistURLRegex = regexp.MustCompile(`[?&]list=`)
	videoURLRegex    = regexp.MustCompile(`[?&]v=|youtu\.be/|/shorts/`)
)

// Extractor resolves YouTube URLs through the innertube API.
type Extractor struct {
	client     *youtube.Client
	musicHosts []string
}

// New returns an extractor issuing requests with httpClient.
// URLs on musicHosts produce media flagged as music.
func New(httpClient *http.Client, musicHosts []string) *Extractor {
	return &Extractor{
		client:     &youtube.Client{HTTPClient: httpClient},
		musicHosts: musicHosts,
	}
}

func (e *Extractor) Name() string {
	return Name
}

// Extract returns a playlist for playlist URLs and a media item for everything else.
// A watch URL that also names a playlist is treated as the single video.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (source.Extraction, error) {
	music := source.IsMusicHost(rawURL, e.musicHosts)
	normalized := normalizeURL(rawURL)

	if isPlaylist(normalized) {
		playlist, err := e.client.GetPlaylistContext(ctx, normalized)
		if err != nil {
			return source.Extraction{}, classify("extract playlist", err)
		}

		return source.FromPlaylist(playlistFrom(playlist, music)), nil
	}

	media, err := e.media(ctx, normalized, music)
	if err != nil {
		return source.Extraction{}, err
	}

	return source.FromMedia(media), nil
}

// Resolve fetches the video behind ref.
func (e *Extractor) Resolve(ctx context.Context, ref source.Reference) (*source.Media, error) {
	target := ref.URL
	if target == "" {
		target = watchURL(ref.ID)
	}

	return e.media(ctx, normalizeURL(target), source.IsMusicHost(ref.URL, e.musicHosts))
}

func (e *Extractor) media(ctx context.Context, rawURL string, music bool) (*source.Media, error) {
	video, err := e.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, classify("extract video", err)
	}

	media := mediaFrom(video, music)
	media.Formats = formatsFrom(video, func(f *youtube.Format) (string, error) {
		return e.client.GetStreamURLContext(ctx, video, f)
	})

	if err := media.Validate(); err != nil {
		return nil, err
	}

	log.With(log.Fields{"id": media.ID, "formats": len(media.Formats)}).Debugf("resolved %q", media.Title)
	return media, nil
}

// classify separates content that can never be downloaded from transient failures.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fault.Wrap(fault.Interrupted, op, err)
	case errors.Is(err, youtube.ErrVideoPrivate):
		return fault.Wrap(fault.Contract, op, errors.New("video is private"))
	case errors.Is(err, youtube.ErrLoginRequired), errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fault.Wrap(fault.Contract, op, errors.New("video requires login"))
	case errors.Is(err, youtube.ErrInvalidPlaylist),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fault.Wrap(fault.Contract, op, err)
	}

	var status *youtube.ErrPlayabiltyStatus
	if errors.As(err, &status) {
		return fault.Wrap(fault.Contract, op, err)
	}

	return fault.Wrap(fault.Connection, op, err)
}

// normalizeURL points YouTube Music URLs at the regular site, which serves the same ids.
func normalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(parsed.Host, "music.youtube.com") {
		return raw
	}

	parsed.Host = "www.youtube.com"

	query := parsed.Query()
	query.Del("si")
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

func isPlaylist(raw string) bool {
	if playlistIDRegex.MatchString(raw) {
		return true
	}

	return playlistURLRegex.MatchString(raw) && !videoURLRegex.MatchString(raw)
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
