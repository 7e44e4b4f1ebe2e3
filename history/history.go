// Package history records finished downloads.
package history

import (
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/where"
	"golang.org/x/exp/slices"
)

// Record is one finished download.
type Record struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Path       string    `json:"path"`
	Status     string    `json:"status"`
	Bytes      int64     `json:"bytes"`
	Playlist   string    `json:"playlist,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Key identifies the record: a media item appears once, with its latest download.
func (r *Record) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.URL
}

var (
	cacher     *gache.Cache[map[string]*Record]
	cacherOnce sync.Once
)

// store opens the history file on first use, after the filesystem backend is settled.
func store() *gache.Cache[map[string]*Record] {
	cacherOnce.Do(func() {
		cacher = gache.New[map[string]*Record](
			&gache.Options{
				Path:       where.History(),
				FileSystem: &filesystem.GacheFs{},
			},
		)
	})

	return cacher
}

// Get returns every record keyed by Record.Key.
func Get() (map[string]*Record, error) {
	cached, expired, err := store().Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// List returns the records, most recent first.
func List() ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := lo.Values(saved)
	slices.SortFunc(records, func(a, b *Record) int {
		return b.FinishedAt.Compare(a.FinishedAt)
	})

	return records, nil
}

// Save adds records, replacing older downloads of the same items.
func Save(records ...*Record) error {
	if len(records) == 0 {
		return nil
	}

	saved, err := Get()
	if err != nil {
		return err
	}

	for _, r := range records {
		if r.FinishedAt.IsZero() {
			r.FinishedAt = time.Now()
		}
		saved[r.Key()] = r
	}

	return store().Set(saved)
}

// Remove deletes the record with key.
func Remove(key string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, key)
	return store().Set(saved)
}

// Clear deletes every record.
func Clear() error {
	return store().Set(make(map[string]*Record))
}

// Find returns the record with key, or the most recent one whose title fuzzily matches it.
func Find(query string) (*Record, bool) {
	saved, err := Get()
	if err != nil {
		return nil, false
	}

	if r, ok := saved[query]; ok {
		return r, true
	}

	matches := Search(query)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}

// Search returns the records whose title fuzzily contains query, most recent first.
func Search(query string) []*Record {
	records, err := List()
	if err != nil {
		return nil
	}

	query = strings.TrimSpace(query)
	return lo.Filter(records, func(r *Record, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, r.Title)
	})
}
