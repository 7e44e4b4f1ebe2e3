package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/style"
)

// Field is a registered configuration key with its default and help text.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field for "config info".
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env is the environment variable overriding the field, e.g. TUBEDL_DOWNLOAD_PATH.
func (f *Field) Env() string {
	return strings.ToUpper(constant.App + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Current is the effective value: file, environment or flag, falling back to the default.
func (f *Field) Current() any {
	return viper.Get(f.Key)
}

type fieldJSON struct {
	Key         string `json:"key"`
	Env         string `json:"env"`
	Type        string `json:"type"`
	Value       any    `json:"value"`
	Default     any    `json:"default"`
	Description string `json:"description"`
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{
		Key:         f.Key,
		Env:         f.Env(),
		Type:        fmt.Sprintf("%T", f.Value),
		Value:       f.Current(),
		Default:     f.Value,
		Description: f.Description,
	})
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.DownloadPath, "", "Root directory for downloaded files.\nEmpty means the user's Downloads directory")
	register(key.DownloadOutputTemplate, "{uploader} - {title}", "Output path template, relative to the download path.\nUse {field} tokens, e.g. {playlist_title}/{title}.\nType \"tubedl config info -k download.output_template\" for details")
	register(key.DownloadWorkers, 4, "Number of items downloaded in parallel")
	register(key.DownloadGracePeriod, 10, "Seconds to let running items finish after an interrupt before abandoning them")
	register(key.DownloadPathLock, true, "Lock each output path while an item is written.\nPrevents two items with the same name racing each other")
	register(key.DownloadTempDir, "", "Directory for in-progress files.\nEmpty means the system temp directory")
	register(key.DownloadHistory, true, "Record completed downloads in history")
	register(key.FormatType, "video", "Preferred stream type.\nAvailable options are: video, audio")
	register(key.FormatExtension, "", "Fixed extension to convert the result to, e.g. mp4, mkv, mp3, m4a.\nEmpty keeps the downloaded container")
	register(key.FormatQuality, 0, "Target quality: video height (e.g. 720) or audio bitrate in kbps (e.g. 160).\n0 means best available")
	register(key.FormatSort, "best", "Default sort key for the formats command.\nAvailable options are: best, quality, bitrate, filesize, fps")
	register(key.MetadataEmbed, true, "Embed title, uploader and date tags")
	register(key.MetadataSubtitles, true, "Embed subtitle tracks into video files")
	register(key.MetadataThumbnail, true, "Embed the highest resolution thumbnail as cover art")
	register(key.MetadataMusicSites, []string{"music.youtube.com", "soundcloud.com", "bandcamp.com"}, "Hosts treated as music sites.\nMedia from these hosts prefers audio and gets music tags")
	register(key.ProcessorEnable, true, "Use ffmpeg for merging, conversion and embedding")
	register(key.ProcessorPath, "ffmpeg", "Path to the ffmpeg executable")
	register(key.ProcessorTimeout, 0, "Seconds before a single ffmpeg invocation is killed.\n0 disables the timeout")
	register(key.TransportRetries, 3, "Retries for a failed transfer before the item errors")
	register(key.TransportTimeout, 0, "Seconds before a single HTTP request times out.\n0 disables the timeout")
	register(key.TransportTLSFingerprint, false, "Use a browser TLS fingerprint for extractor requests")
	register(key.ExtractorCache, true, "Cache resolved media descriptors on disk")
	register(key.ExtractorCacheTTL, 24, "Hours a cached media descriptor stays valid")
	register(key.ExtractorDefault, "youtube", "Extractor used when no other extractor claims a URL.\nType \"tubedl extractors list\" to show available extractors")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliProgress, "auto", "Progress display.\nAvailable options are: auto, tui, plain, none")
	register(key.CliVersionCheck, true, "Check for a newer release when showing help or version")
}

// highlight colors a value by kind: booleans green or red, strings yellow.
func highlight(v any) string {
	switch value := v.(type) {
	case bool:
		if value {
			return style.Fg(color.Green)("true")
		}
		return style.Fg(color.Red)("false")
	case string:
		if value == "" {
			return style.Faint(`""`)
		}
		return style.Fg(color.Yellow)(value)
	case []string:
		return style.Fg(color.Yellow)(strings.Join(value, ", "))
	default:
		return fmt.Sprint(value)
	}
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"key":    style.Fg(color.Purple),
	"label":  style.Fg(color.Cyan),
	"typeof": func(v any) string { return fmt.Sprintf("%T", v) },
	"hl":     highlight,
}).Parse(`{{ key .Key }} {{ faint (typeof .Value) }}
{{ faint .Description }}
  {{ label "current" }} {{ hl .Current }}
  {{ label "default" }} {{ hl .Value }}
  {{ label "env    " }} {{ .Env }}`))
