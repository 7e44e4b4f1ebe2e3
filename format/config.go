package format

import (
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/key"
)

// Config is the user's intent for a download: what to select, what to convert to and what to embed.
type Config struct {
	// Type is the preferred stream type when no conversion extension is fixed.
	Type Type
	// Extension is a fixed extension the result is converted to.
	Extension mo.Option[string]
	// Quality is the target height (video) or bitrate (audio).
	Quality mo.Option[int]
	// OutputTemplate is the output path template, relative to the download root.
	OutputTemplate string

	EmbedMetadata  bool
	EmbedSubtitles bool
	EmbedThumbnail bool

	// CanProcess reports whether a postprocessing engine is available.
	CanProcess bool
}

// ConfigFromViper reads the format.*, metadata.* and download.output_template keys.
func ConfigFromViper(canProcess bool) Config {
	t, err := ParseType(viper.GetString(key.FormatType))
	if err != nil {
		t = Video
	}

	cfg := Config{
		Type:           t,
		OutputTemplate: viper.GetString(key.DownloadOutputTemplate),
		EmbedMetadata:  viper.GetBool(key.MetadataEmbed),
		EmbedSubtitles: viper.GetBool(key.MetadataSubtitles),
		EmbedThumbnail: viper.GetBool(key.MetadataThumbnail),
		CanProcess:     canProcess,
	}

	if ext := NormalizeExtension(viper.GetString(key.FormatExtension)); ext != "" {
		cfg.Extension = mo.Some(ext)
	}

	if quality := viper.GetInt(key.FormatQuality); quality > 0 {
		cfg.Quality = mo.Some(quality)
	}

	return cfg
}

// EffectiveExtension is the conversion extension, or fallback when none is fixed.
func (c Config) EffectiveExtension(fallback string) string {
	return c.Extension.OrElse(fallback)
}
