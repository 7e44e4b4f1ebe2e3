// Package source defines the media descriptors produced by extractors and the Extractor boundary itself.
package source

import (
	"context"

	"github.com/samber/mo"
)

// Extraction is the result of extracting a URL: either a single media item or a playlist.
type Extraction = mo.Either[*Media, *Playlist]

// FromMedia wraps a media item as an Extraction.
func FromMedia(m *Media) Extraction {
	return mo.Left[*Media, *Playlist](m)
}

// FromPlaylist wraps a playlist as an Extraction.
func FromPlaylist(p *Playlist) Extraction {
	return mo.Right[*Media, *Playlist](p)
}

// Extractor resolves URLs into media descriptors. Implementations must be safe for concurrent use.
type Extractor interface {
	// Name returns the unique identifier of the extractor.
	Name() string

	// Extract fetches whatever the URL points to.
	Extract(ctx context.Context, url string) (Extraction, error)

	// Resolve turns a lazy reference into a full media descriptor.
	Resolve(ctx context.Context, ref Reference) (*Media, error)
}
