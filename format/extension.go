package format

import (
	"strings"

	"github.com/samber/lo"
)

// Extension families recognized for duplicate detection and conversion targets.
var (
	VideoExtensions = []string{"mp4", "mkv", "webm", "mov", "m4v", "avi", "flv", "3gp"}
	AudioExtensions = []string{"mp3", "m4a", "opus", "ogg", "oga", "flac", "wav", "aac", "weba"}

	// ThumbnailContainers can hold an embedded cover image.
	ThumbnailContainers = []string{"mp3", "m4a", "mp4", "m4v", "mov", "mkv", "mka", "flac"}
)

// NormalizeExtension lowercases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// IsKnownExtension reports whether ext belongs to the video or audio family.
func IsKnownExtension(ext string) bool {
	ext = NormalizeExtension(ext)
	return lo.Contains(VideoExtensions, ext) || lo.Contains(AudioExtensions, ext)
}

// FamilyOf tells whether ext is an audio or video container.
func FamilyOf(ext string) (Type, bool) {
	ext = NormalizeExtension(ext)
	switch {
	case lo.Contains(AudioExtensions, ext):
		return Audio, true
	case lo.Contains(VideoExtensions, ext):
		return Video, true
	default:
		return 0, false
	}
}

// SupportsThumbnail reports whether a cover image can be embedded into ext.
func SupportsThumbnail(ext string) bool {
	return lo.Contains(ThumbnailContainers, NormalizeExtension(ext))
}
