package config

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/filesystem"
	"github.com/tubedl-cli/tubedl/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
			So(viper.GetInt(key.DownloadWorkers), ShouldEqual, 4)
			So(viper.GetString(key.DownloadOutputTemplate), ShouldEqual, "{uploader} - {title}")
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("download.output_template"), ShouldEqual, "download_output_template")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("It should be valid", func() {
			So(Validate(), ShouldBeNil)
		})

		Convey("An unknown format type should be rejected", func() {
			viper.Set(key.FormatType, "subtitles")
			defer viper.Set(key.FormatType, "video")
			So(Validate(), ShouldNotBeNil)
		})

		Convey("Zero workers should be rejected", func() {
			viper.Set(key.DownloadWorkers, 0)
			defer viper.Set(key.DownloadWorkers, 4)
			So(Validate(), ShouldNotBeNil)
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.DownloadWorkers]

		Convey("Env should carry the application prefix", func() {
			So(field.Env(), ShouldEqual, "TUBEDL_DOWNLOAD_WORKERS")
		})

		Convey("JSON should describe type, default and current value", func() {
			data, err := json.Marshal(&field)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"type":"int"`)
			So(string(data), ShouldContainSubstring, `"default":4`)
			So(string(data), ShouldContainSubstring, `"env":"TUBEDL_DOWNLOAD_WORKERS"`)
		})

		Convey("Pretty should mention the key and its variable", func() {
			pretty := field.Pretty()
			So(pretty, ShouldContainSubstring, key.DownloadWorkers)
			So(pretty, ShouldContainSubstring, "TUBEDL_DOWNLOAD_WORKERS")
		})
	})
}
