package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/fault"
	"golang.org/x/exp/slices"
)

var (
	// ErrEmpty is returned when a lookup is made on a list without formats.
	ErrEmpty = errors.New("no formats available")

	// ErrNotFound is returned when no format carries the requested id.
	ErrNotFound = errors.New("format not found")
)

// SortKey selects the ordering of List.SortBy.
type SortKey string

const (
	SortBest     SortKey = "best"
	SortQuality  SortKey = "quality"
	SortBitrate  SortKey = "bitrate"
	SortFilesize SortKey = "filesize"
	SortFPS      SortKey = "fps"
)

// SortKeys lists every accepted SortKey.
func SortKeys() []SortKey {
	return []SortKey{SortBest, SortQuality, SortBitrate, SortFilesize, SortFPS}
}

// List is an ordered collection of formats. Every method returns a new list and leaves the receiver untouched.
type List []Format

// Filter holds optional predicates. Unset predicates match everything; set ones are ANDed.
type Filter struct {
	Extension mo.Option[string]
	Quality   mo.Option[int]
	Codec     mo.Option[string]
	Protocol  mo.Option[string]
}

func (f Filter) match(format Format) bool {
	if ext, ok := f.Extension.Get(); ok && NormalizeExtension(format.Extension) != NormalizeExtension(ext) {
		return false
	}
	if quality, ok := f.Quality.Get(); ok && format.Quality() != quality {
		return false
	}
	if codec, ok := f.Codec.Get(); ok && !strings.Contains(strings.ToLower(format.Codec), strings.ToLower(codec)) {
		return false
	}
	if protocol, ok := f.Protocol.Get(); ok && !strings.EqualFold(format.Protocol, protocol) {
		return false
	}
	return true
}

// Filter returns the formats matching every set predicate of f.
func (l List) Filter(f Filter) List {
	return lo.Filter(l, func(format Format, _ int) bool {
		return f.match(format)
	})
}

// OnlyVideo returns the video formats.
func (l List) OnlyVideo() List {
	return lo.Filter(l, func(f Format, _ int) bool { return f.IsVideo() })
}

// OnlyAudio returns the audio-only formats.
func (l List) OnlyAudio() List {
	return lo.Filter(l, func(f Format, _ int) bool { return f.IsAudio() })
}

// OnlyMuxed returns the video formats that already carry an audio track.
func (l List) OnlyMuxed() List {
	return lo.Filter(l, func(f Format, _ int) bool { return f.Muxed() })
}

// Best returns the list ordered best first. See SortBy.
func (l List) Best() List {
	return l.sorted(compareBest, false)
}

// SortBy orders the list by key, best or largest first. reverse flips the order.
//
// SortBest compares type (video first), then height and width for video or bitrate for audio,
// then fps, then codec rank, then filesize. The sort is stable, so equal inputs give equal output.
func (l List) SortBy(key SortKey, reverse bool) (List, error) {
	var cmp func(a, b Format) int

	switch key {
	case SortBest:
		cmp = compareBest
	case SortQuality:
		cmp = func(a, b Format) int { return b.Quality() - a.Quality() }
	case SortBitrate:
		cmp = func(a, b Format) int { return compareFloat(b.Bitrate, a.Bitrate) }
	case SortFilesize:
		cmp = func(a, b Format) int { return compareInt64(b.Filesize.OrEmpty(), a.Filesize.OrEmpty()) }
	case SortFPS:
		cmp = func(a, b Format) int { return compareFloat(b.FPS, a.FPS) }
	default:
		return nil, fault.Wrapf(fault.Contract, "sort", "unknown sort key %q", key)
	}

	return l.sorted(cmp, reverse), nil
}

func (l List) sorted(cmp func(a, b Format) int, reverse bool) List {
	out := slices.Clone(l)
	slices.SortStableFunc(out, cmp)
	if reverse {
		slices.Reverse(out)
	}
	return out
}

// ClosestQuality returns the format whose quality is nearest to target.
// Targets outside the available range clamp to the nearest end; equal distances resolve to the higher quality.
// Among formats sharing the chosen quality, the best one wins.
func (l List) ClosestQuality(target int) (Format, error) {
	if len(l) == 0 {
		return Format{}, fault.Wrap(fault.Contract, "closest quality", ErrEmpty)
	}

	best := l.Best()
	qualities := lo.Uniq(lo.Map(best, func(f Format, _ int) int { return f.Quality() }))
	slices.Sort(qualities)

	var quality int
	switch i := sort.SearchInts(qualities, target); {
	case i == 0:
		quality = qualities[0]
	case i == len(qualities):
		quality = qualities[len(qualities)-1]
	default:
		lower, higher := qualities[i-1], qualities[i]
		if target-lower < higher-target {
			quality = lower
		} else {
			quality = higher
		}
	}

	found, _ := lo.Find(best, func(f Format) bool { return f.Quality() == quality })
	return found, nil
}

// ByID returns the format with exactly the given id.
func (l List) ByID(id string) (Format, error) {
	found, ok := lo.Find(l, func(f Format) bool { return f.ID == id })
	if !ok {
		return Format{}, fault.Wrap(fault.Contract, "format", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	return found, nil
}

// First returns the head of the list, if any.
func (l List) First() mo.Option[Format] {
	if len(l) == 0 {
		return mo.None[Format]()
	}
	return mo.Some(l[0])
}

func compareBest(a, b Format) int {
	if a.Type != b.Type {
		if a.Type == Video {
			return -1
		}
		if b.Type == Video {
			return 1
		}
	}

	if a.Type == Video {
		if c := b.Height - a.Height; c != 0 {
			return c
		}
		if c := b.Width - a.Width; c != 0 {
			return c
		}
	} else if c := compareFloat(b.Bitrate, a.Bitrate); c != 0 {
		return c
	}

	if c := compareFloat(b.FPS, a.FPS); c != 0 {
		return c
	}

	if c := CodecRank(b.Codec) - CodecRank(a.Codec); c != 0 {
		return c
	}

	return compareInt64(b.Filesize.OrEmpty(), a.Filesize.OrEmpty())
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
