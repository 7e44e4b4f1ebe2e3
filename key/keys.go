// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Download Behaviour - these keys govern where and how batches are written to disk.
const (
	DownloadPath           = "download.path"
	DownloadOutputTemplate = "download.output_template"
	DownloadWorkers        = "download.workers"
	DownloadGracePeriod    = "download.grace_period"
	DownloadPathLock       = "download.path_lock"
	DownloadTempDir        = "download.temp_dir"
	DownloadHistory        = "download.history"
)

// Format Targets - these keys express the user's intent for selected streams.
const (
	FormatType      = "format.type"
	FormatExtension = "format.extension"
	FormatQuality   = "format.quality"
	FormatSort      = "format.sort"
)

// Metadata Embedding - these keys toggle the postprocessing embed steps.
const (
	MetadataEmbed      = "metadata.embed"
	MetadataSubtitles  = "metadata.subtitles"
	MetadataThumbnail  = "metadata.thumbnail"
	MetadataMusicSites = "metadata.music_sites"
)

// Processor - these keys locate and bound the external ffmpeg engine.
const (
	ProcessorEnable  = "processor.enable"
	ProcessorPath    = "processor.path"
	ProcessorTimeout = "processor.timeout"
)

// Transport - these keys tune byte transfer.
const (
	TransportRetries        = "transport.retries"
	TransportTimeout        = "transport.timeout"
	TransportTLSFingerprint = "transport.tls_fingerprint"
)

// Extractors - these keys manage extractor selection and result caching.
const (
	ExtractorCache    = "extractor.cache"
	ExtractorCacheTTL = "extractor.cache_ttl"
	ExtractorDefault  = "extractor.default"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern terminal output.
const (
	CliColored      = "cli.colored"
	CliProgress     = "cli.progress"
	CliVersionCheck = "cli.version_check"
)
