package scraper

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tubedl-cli/tubedl/filesystem"
	lua "github.com/yuin/gopher-lua"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPreCompileAndLoad(t *testing.T) {
	Convey("Given a script on disk", t, func() {
		path := "/scripts/answer.lua"
		So(filesystem.API().WriteFile(path, []byte("answer = 42"), 0o644), ShouldBeNil)
		defer Forget(path)

		Convey("It should run in a fresh state", func() {
			L := lua.NewState()
			defer L.Close()

			So(PreCompileAndLoad(L, path), ShouldBeNil)
			So(L.GetGlobal("answer").String(), ShouldEqual, "42")
		})

		Convey("The prototype should be reused until the file changes", func() {
			first, err := Compile(path)
			So(err, ShouldBeNil)

			second, err := Compile(path)
			So(err, ShouldBeNil)
			So(second, ShouldPointTo, first)

			So(filesystem.API().WriteFile(path, []byte("answer = 'changed'"), 0o644), ShouldBeNil)
			third, err := Compile(path)
			So(err, ShouldBeNil)
			So(third, ShouldNotPointTo, first)
		})

		Convey("A syntax error should be reported", func() {
			So(filesystem.API().WriteFile("/scripts/broken.lua", []byte("function ("), 0o644), ShouldBeNil)
			_, err := Compile("/scripts/broken.lua")
			So(err, ShouldNotBeNil)
		})
	})
}
