package cache

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

type entry struct {
	Title string
}

func TestStore(t *testing.T) {
	Convey("Given a store on a memory filesystem", t, func() {
		fs := afero.NewMemMapFs()
		store := New(fs, "/cache", time.Hour)
		k := GenerateKey("https://example.com/v", "youtube")

		Convey("Keys should be deterministic and separate their parts", func() {
			So(k, ShouldEqual, GenerateKey("https://example.com/v", "youtube"))
			So(GenerateKey("ab", "c"), ShouldNotEqual, GenerateKey("a", "bc"))
			So(k, ShouldHaveLength, 64)
		})

		Convey("A written entry should be read back", func() {
			So(store.Write(k, entry{Title: "video"}), ShouldBeNil)

			var got entry
			So(store.Read(k, &got), ShouldBeTrue)
			So(got.Title, ShouldEqual, "video")
		})

		Convey("A missing entry should be a miss", func() {
			var got entry
			So(store.Read("nope", &got), ShouldBeFalse)
		})

		Convey("Expired entries should be misses and be collected", func() {
			So(store.Write(k, entry{Title: "video"}), ShouldBeNil)
			old := time.Now().Add(-2 * time.Hour)
			So(fs.Chtimes(store.path(k), old, old), ShouldBeNil)

			var got entry
			So(store.Read(k, &got), ShouldBeFalse)

			removed, err := store.CollectGarbage()
			So(err, ShouldBeNil)
			So(removed, ShouldEqual, 1)
		})

		Convey("Collecting a missing directory should do nothing", func() {
			removed, err := New(fs, "/absent", time.Hour).CollectGarbage()
			So(err, ShouldBeNil)
			So(removed, ShouldEqual, 0)
		})

		Convey("A zero TTL should disable reads", func() {
			disabled := New(fs, "/cache", 0)
			So(disabled.Write(k, entry{}), ShouldBeNil)
			So(disabled.Read(k, &entry{}), ShouldBeFalse)
		})
	})
}
