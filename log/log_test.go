package log

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/key"
)

func TestEntry(t *testing.T) {
	Convey("Given logging to a buffer", t, func() {
		viper.Set(key.LogsLevel, "debug")
		var buf bytes.Buffer
		SetOutput(&buf)

		Convey("Entries should carry their fields", func() {
			With(Fields{"item": "abc"}).With(Fields{"batch": "pl1"}).Infof("downloading %s", "Title")
			So(buf.String(), ShouldContainSubstring, "downloading Title")
			So(buf.String(), ShouldContainSubstring, "item=abc")
			So(buf.String(), ShouldContainSubstring, "batch=pl1")
		})

		Convey("Disabled logging should discard messages", func() {
			enabled = false
			defer func() { enabled = true }()
			Info("hidden")
			So(buf.String(), ShouldNotContainSubstring, "hidden")
		})
	})
}
