package provider

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/log"
	"github.com/tubedl-cli/tubedl/source"
)

// expiryMargin is how long a signed stream URL must still be valid for a cached entry to be served.
const expiryMargin = 30 * time.Minute

// Cache memoizes extractor results in an internal/cache store.
type Cache struct {
	store *cache.Store
	now   func() time.Time
}

// NewCache returns a cache writing to store.
func NewCache(store *cache.Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Wrap returns e behind the cache.
func (c *Cache) Wrap(e source.Extractor) source.Extractor {
	return &Cached{inner: e, cache: c}
}

// Cached is an extractor whose results are served from disk while they are fresh.
type Cached struct {
	inner source.Extractor
	cache *Cache
}

type entry struct {
	Media    *source.Media    `json:"media,omitempty"`
	Playlist *source.Playlist `json:"playlist,omitempty"`
}

func (c *Cached) Name() string {
	return c.inner.Name()
}

func (c *Cached) Extract(ctx context.Context, rawURL string) (source.Extraction, error) {
	k := cache.GenerateKey("extract", c.inner.Name(), rawURL)

	var e entry
	if c.cache.store.Read(k, &e) {
		switch {
		case e.Playlist != nil:
			return source.FromPlaylist(e.Playlist), nil
		case e.Media != nil && c.cache.fresh(e.Media):
			return source.FromMedia(e.Media), nil
		}
	}

	extraction, err := c.inner.Extract(ctx, rawURL)
	if err != nil {
		return extraction, err
	}

	if m, ok := extraction.Left(); ok {
		e = entry{Media: m}
	} else {
		e = entry{Playlist: extraction.MustRight()}
	}

	c.cache.write(k, e)
	return extraction, nil
}

func (c *Cached) Resolve(ctx context.Context, ref source.Reference) (*source.Media, error) {
	k := cache.GenerateKey("resolve", c.inner.Name(), ref.URL, ref.ID)

	var e entry
	if c.cache.store.Read(k, &e) && e.Media != nil && c.cache.fresh(e.Media) {
		return e.Media, nil
	}

	media, err := c.inner.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.cache.write(k, entry{Media: media})
	return media, nil
}

func (c *Cache) write(k string, e entry) {
	if err := c.store.Write(k, e); err != nil {
		log.Warnf("extractor cache: %s", err)
	}
}

// fresh reports whether every signed format URL of m outlives the margin.
// Hosts sign stream URLs with an "expire" unix timestamp.
func (c *Cache) fresh(m *source.Media) bool {
	deadline := c.now().Add(expiryMargin)

	return !lo.ContainsBy(m.Formats, func(f format.Format) bool {
		return expiresBefore(f.URL, deadline)
	})
}

func expiresBefore(rawURL string, deadline time.Time) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	expire := u.Query().Get("expire")
	if expire == "" {
		return false
	}

	unix, err := strconv.ParseInt(expire, 10, 64)
	if err != nil {
		return false
	}

	return time.Unix(unix, 0).Before(deadline)
}
