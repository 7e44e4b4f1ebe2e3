package output

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxPathLength caps a rendered relative path, in runes.
	MaxPathLength = 250
	// MaxSegmentBytes caps each path segment, in bytes, leaving room under the usual 255-byte
	// name limit for the extension appended later.
	MaxSegmentBytes = 230
)

// reserved maps characters forbidden on common filesystems to visually similar safe ones.
var reserved = strings.NewReplacer(
	"<", "＜",
	">", "＞",
	":", "：",
	`"`, "＂",
	"|", "｜",
	"?", "？",
	"*", "＊",
)

var windowsDevices = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// Sanitize turns a rendered template into a safe relative path. Both slash kinds separate directories;
// empty, "." and ".." segments are dropped so the result never escapes the output root.
// The result is NFC-normalized and capped at MaxPathLength runes, trimming the basename first.
// Every segment also fits in MaxSegmentBytes.
func Sanitize(rendered string) string {
	segments := strings.FieldsFunc(rendered, func(r rune) bool { return r == '/' || r == '\\' })

	var clean []string
	for _, segment := range segments {
		if s := sanitizeSegment(segment); s != "" {
			clean = append(clean, s)
		}
	}

	if len(clean) == 0 {
		return ""
	}

	return filepath.Join(capLength(clean)...)
}

func sanitizeSegment(segment string) string {
	segment = norm.NFC.String(segment)
	segment = reserved.Replace(segment)
	segment = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, segment)
	segment = strings.TrimSpace(segment)
	// also drops "." and ".."
	segment = strings.TrimRight(segment, ". ")

	if stem, _, _ := strings.Cut(segment, "."); lo.Contains(windowsDevices, strings.ToUpper(stem)) {
		segment = "_" + segment
	}

	return capBytes(segment)
}

// capBytes cuts segment to MaxSegmentBytes on a rune boundary.
func capBytes(segment string) string {
	if len(segment) <= MaxSegmentBytes {
		return segment
	}

	cut := 0
	for i, r := range segment {
		if i+utf8.RuneLen(r) > MaxSegmentBytes {
			break
		}
		cut = i + utf8.RuneLen(r)
	}

	return strings.TrimRight(segment[:cut], ". ")
}

func capLength(segments []string) []string {
	length := func() int {
		// separators count too
		total := len(segments) - 1
		for _, s := range segments {
			total += utf8.RuneCountInString(s)
		}
		return total
	}

	if excess := length() - MaxPathLength; excess > 0 {
		base := []rune(segments[len(segments)-1])
		keep := lo.Max([]int{1, len(base) - excess})
		segments[len(segments)-1] = strings.TrimRight(string(base[:keep]), ". ")
		if segments[len(segments)-1] == "" {
			segments[len(segments)-1] = "_"
		}
	}

	for len(segments) > 1 && length() > MaxPathLength {
		segments = segments[1:]
	}

	return segments
}
