package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tubedl-cli/tubedl/constant"
)

func TestCommand(t *testing.T) {
	Convey("Given a downloaded file", t, func() {
		path := "/out/Clip.mp4"

		Convey("Linux uses xdg-open", func() {
			cmd, err := command(constant.Linux, path)
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"xdg-open", path})
		})

		Convey("macOS uses open", func() {
			cmd, err := command(constant.Darwin, path)
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"open", path})
		})

		Convey("Unknown platforms are rejected", func() {
			_, err := command("plan9", path)
			So(err, ShouldNotBeNil)
		})
	})
}
