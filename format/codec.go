package format

import "strings"

// codecRanks maps codec name substrings to a preference. Earlier entries win when
// several substrings match, so longer names come before their prefixes.
var codecRanks = []struct {
	name string
	rank int
}{
	{"av01", 7},
	{"vp09", 6},
	{"vp9", 6},
	{"hevc", 5},
	{"hev1", 5},
	{"hvc1", 5},
	{"h265", 5},
	{"avc", 4},
	{"h264", 4},
	{"vp8", 3},
	{"opus", 6},
	{"vorbis", 5},
	{"mp4a", 4},
	{"aac", 4},
	{"mp3", 3},
}

// CodecRank is the preference of a codec: a table hit, 1 for an unknown but present codec,
// 0 when the codec is absent.
func CodecRank(codec string) int {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if codec == "" || codec == "none" {
		return 0
	}

	for _, c := range codecRanks {
		if strings.Contains(codec, c.name) {
			return c.rank
		}
	}

	return 1
}
