package pipeline

import (
	"strconv"
	"strings"

	"github.com/tubedl-cli/tubedl/processor"
	"github.com/tubedl-cli/tubedl/source"
)

// Tags builds the metadata written into the file of media. Music gets its missing tags filled from the generic fields, other media keeps only what it carries.
func Tags(media *source.Media) processor.Metadata {
	meta := processor.Metadata{
		Title:       media.Title,
		Track:       media.Track,
		Artist:      strings.Join(media.Artists, ", "),
		Album:       media.Album,
		AlbumArtist: media.AlbumArtist,
		Date:        media.UploadDate,
		Genre:       media.Genre,
		Description: media.Description,
		URL:         media.URL,
	}

	if !media.Music {
		return meta
	}

	if meta.Track == "" {
		meta.Track = media.Title
	}
	if meta.Artist == "" {
		meta.Artist = media.Uploader
	}
	if meta.AlbumArtist == "" {
		meta.AlbumArtist = media.Uploader
	}
	if meta.Date == "" && media.ReleaseYear > 0 {
		meta.Date = strconv.Itoa(media.ReleaseYear)
	}

	return meta
}
