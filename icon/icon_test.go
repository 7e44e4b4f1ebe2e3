package icon

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/key"
)

func TestGet(t *testing.T) {
	Convey("Given a registered icon", t, func() {
		defer viper.Set(key.IconsVariant, "plain")

		for _, variant := range AvailableVariants() {
			Convey("It renders for variant "+variant, func() {
				viper.Set(key.IconsVariant, variant)
				So(Get(Download), ShouldNotBeEmpty)
			})
		}

		Convey("An unknown variant falls back to plain", func() {
			viper.Set(key.IconsVariant, "sparkles")
			So(Get(Success), ShouldEqual, "OK")
		})

		Convey("Every icon has a plain form", func() {
			viper.Set(key.IconsVariant, "plain")
			for i := Lua; i <= Mark; i++ {
				So(Get(i), ShouldNotBeEmpty)
			}
		})
	})
}
