// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/key"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "TUBEDL_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be explicitly overridden via the TUBEDL_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Extractions is the directory of the content-addressed extractor cache.
func Extractions() string {
	return ensureDir(filepath.Join(Cache(), "extractions"))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Extractors resolves the directory containing custom Lua extractor scripts.
func Extractors() string {
	return ensureDir(filepath.Join(Config(), "extractors"))
}

// History resolves the path to the download history file.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Temp resolves the root for in-progress downloads.
// download.temp_dir takes precedence over the system temp directory.
func Temp() string {
	if custom := viper.GetString(key.DownloadTempDir); custom != "" {
		return ensureDir(custom)
	}
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}

// Locks resolves the directory holding per-output-path lock files.
func Locks() string {
	return ensureDir(filepath.Join(Temp(), "locks"))
}

// Downloads resolves the output root: download.path if set, else the user's Downloads directory.
func Downloads() string {
	if custom := viper.GetString(key.DownloadPath); custom != "" {
		return ensureDir(custom)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ensureDir(filepath.Join(".", constant.App))
	}
	return ensureDir(filepath.Join(home, "Downloads", constant.App))
}
