package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		c, err := Compare("v1.2.0", "1.10.0")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, -1)

		c, err = Compare("2.0.0", "1.9.9")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, 1)

		c, err = Compare("0.1.0", "v0.1.0")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, 0)

		c, err = Compare("1.3", "1.3.0-rc.1")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, 0)

		_, err = Compare("latest", "0.1.0")
		So(err, ShouldNotBeNil)
	})
}

func TestFetchLatest(t *testing.T) {
	Convey("Given a releases endpoint", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"tag_name":"v1.4.2"}`))
		}))
		defer server.Close()

		Convey("The tag should be returned without its prefix", func() {
			v, err := fetchLatest(context.Background(), server.Client(), server.URL)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "1.4.2")
		})

		Convey("A failed request should be an error", func() {
			_, err := fetchLatest(context.Background(), server.Client(), server.URL+"/missing")
			So(err, ShouldNotBeNil)
		})
	})
}
