package custom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tubedl-cli/tubedl/format"
	"github.com/tubedl-cli/tubedl/source"
	lua "github.com/yuin/gopher-lua"
)

func getString(table *lua.LTable, key string) string {
	switch val := table.RawGetString(key).(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return val.String()
	default:
		return ""
	}
}

func getNumber(table *lua.LTable, key string) (float64, bool) {
	if val, ok := table.RawGetString(key).(lua.LNumber); ok {
		return float64(val), true
	}
	return 0, false
}

func getInt(table *lua.LTable, key string) int {
	n, _ := getNumber(table, key)
	return int(n)
}

// getStringList accepts either a comma separated string or an array of strings.
func getStringList(table *lua.LTable, key string) []string {
	switch val := table.RawGetString(key).(type) {
	case lua.LString:
		return lo.Compact(lo.Map(strings.Split(string(val), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
	case *lua.LTable:
		var list []string
		val.ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				list = append(list, v.String())
			}
		})
		return list
	default:
		return nil
	}
}

func getStringMap(table *lua.LTable, key string) map[string]string {
	tbl, ok := table.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}

	m := make(map[string]string)
	tbl.ForEach(func(k, v lua.LValue) {
		m[k.String()] = v.String()
	})
	return m
}

// eachTable calls fn for every table in the array stored under key, with its 1-based position.
func eachTable(table *lua.LTable, key string, fn func(*lua.LTable, int) error) error {
	list, ok := table.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}

	var errs []error
	for i := 1; i <= list.Len(); i++ {
		item, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		if err := fn(item, i); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", key, i, err))
		}
	}

	return errors.Join(errs...)
}

func extractionFromTable(table *lua.LTable, extractor string) (source.Extraction, error) {
	if getString(table, "type") == "playlist" {
		playlist, err := playlistFromTable(table)
		if err != nil {
			return source.Extraction{}, err
		}
		return source.FromPlaylist(playlist), nil
	}

	media, err := mediaFromTable(table, extractor)
	if err != nil {
		return source.Extraction{}, err
	}
	return source.FromMedia(media), nil
}

func playlistFromTable(table *lua.LTable) (*source.Playlist, error) {
	playlist := &source.Playlist{
		ID:       getString(table, "id"),
		URL:      getString(table, "url"),
		Title:    getString(table, "title"),
		Uploader: getString(table, "uploader"),
	}

	if playlist.URL == "" {
		return nil, errors.New("playlist must have url")
	}

	if playlist.ID == "" {
		playlist.ID = playlist.URL
	}

	err := eachTable(table, "entries", func(entry *lua.LTable, i int) error {
		ref := source.Reference{
			ID:    getString(entry, "id"),
			URL:   getString(entry, "url"),
			Title: getString(entry, "title"),
			Index: i,
		}
		if ref.URL == "" {
			return errors.New("entry must have url")
		}

		playlist.Entries = append(playlist.Entries, ref)
		return nil
	})
	if err != nil && len(playlist.Entries) == 0 {
		return nil, err
	}

	playlist.Count = len(playlist.Entries)
	return playlist, nil
}

func mediaFromTable(table *lua.LTable, extractor string) (*source.Media, error) {
	media := &source.Media{
		ID:          getString(table, "id"),
		URL:         getString(table, "url"),
		Title:       getString(table, "title"),
		Uploader:    getString(table, "uploader"),
		Description: getString(table, "description"),
		UploadDate:  getString(table, "upload_date"),
		ReleaseYear: getInt(table, "release_year"),
		Track:       getString(table, "track"),
		Artists:     getStringList(table, "artists"),
		Album:       getString(table, "album"),
		AlbumArtist: getString(table, "album_artist"),
		Genre:       getString(table, "genre"),
		Extractor:   extractor,
		Music:       lua.LVAsBool(table.RawGetString("is_music")),
	}
	media.Duration, _ = getNumber(table, "duration")

	if media.URL == "" {
		return nil, errors.New("media must have url")
	}

	if media.ID == "" {
		media.ID = media.URL
	}

	var errs []error

	errs = append(errs, eachTable(table, "thumbnails", func(t *lua.LTable, _ int) error {
		media.Thumbnails = append(media.Thumbnails, source.Thumbnail{
			URL:    getString(t, "url"),
			Width:  getInt(t, "width"),
			Height: getInt(t, "height"),
		})
		return nil
	}))

	errs = append(errs, eachTable(table, "subtitles", func(t *lua.LTable, _ int) error {
		sub := source.Subtitle{
			Language:  getString(t, "language"),
			URL:       getString(t, "url"),
			Extension: format.NormalizeExtension(getString(t, "ext")),
			Name:      getString(t, "name"),
		}
		if sub.URL == "" {
			return errors.New("subtitle must have url")
		}
		if sub.Extension == "" {
			sub.Extension = "vtt"
		}
		media.Subtitles = append(media.Subtitles, sub)
		return nil
	}))

	errs = append(errs, eachTable(table, "formats", func(t *lua.LTable, i int) error {
		f, err := formatFromTable(t, i)
		if err != nil {
			return err
		}
		media.Formats = append(media.Formats, f)
		return nil
	}))

	if err := errors.Join(errs...); err != nil && len(media.Formats) == 0 {
		return nil, err
	}

	return media, nil
}

func formatFromTable(table *lua.LTable, index int) (format.Format, error) {
	f := format.Format{
		ID:         getString(table, "id"),
		URL:        getString(table, "url"),
		Protocol:   getString(table, "protocol"),
		Extension:  format.NormalizeExtension(getString(table, "ext")),
		Codec:      getString(table, "codec"),
		AudioCodec: getString(table, "acodec"),
		Headers:    getStringMap(table, "headers"),
		Width:      getInt(table, "width"),
		Height:     getInt(table, "height"),
	}

	if f.URL == "" {
		return format.Format{}, errors.New("format must have url")
	}

	if f.ID == "" {
		f.ID = fmt.Sprint(index)
	}

	if f.Protocol == "" {
		f.Protocol = "https"
	}

	f.Bitrate, _ = getNumber(table, "bitrate")
	f.FPS, _ = getNumber(table, "fps")

	if size, ok := getNumber(table, "filesize"); ok && size > 0 {
		f.Filesize = mo.Some(int64(size))
	}

	kind := getString(table, "type")
	switch {
	case kind != "":
		t, err := format.ParseType(kind)
		if err != nil {
			return format.Format{}, err
		}
		f.Type = t
	case f.Height > 0:
		f.Type = format.Video
	default:
		f.Type = format.Audio
	}

	return f, nil
}

func referenceToTable(L *lua.LState, ref source.Reference) *lua.LTable {
	table := L.NewTable()
	table.RawSetString("id", lua.LString(ref.ID))
	table.RawSetString("url", lua.LString(ref.URL))
	table.RawSetString("title", lua.LString(ref.Title))
	table.RawSetString("index", lua.LNumber(ref.Index))
	return table
}
