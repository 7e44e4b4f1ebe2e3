// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/where"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state: defaults, environment bindings and the optional TOML file.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return Validate()
}

// enumerated lists the accepted values of string keys with a closed set of options.
var enumerated = map[string][]string{
	key.FormatType:  {"video", "audio"},
	key.FormatSort:  {"best", "quality", "bitrate", "filesize", "fps"},
	key.CliProgress: {"auto", "tui", "plain", "none"},
	key.LogsLevel:   {"panic", "fatal", "error", "warn", "info", "debug", "trace"},
}

// Validate rejects values that would make a download run meaningless.
func Validate() error {
	for k, options := range enumerated {
		if v := viper.GetString(k); !lo.Contains(options, v) {
			return fmt.Errorf("invalid value %q for %s, expected one of: %s", v, k, strings.Join(options, ", "))
		}
	}

	if viper.GetInt(key.DownloadWorkers) < 1 {
		return fmt.Errorf("%s must be at least 1", key.DownloadWorkers)
	}

	for _, k := range []string{key.FormatQuality, key.DownloadGracePeriod, key.ProcessorTimeout, key.TransportTimeout, key.TransportRetries, key.ExtractorCacheTTL} {
		if viper.GetInt(k) < 0 {
			return fmt.Errorf("%s must not be negative", k)
		}
	}

	return nil
}
