package progress

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a tracker", t, func() {
		var tracker Tracker

		Convey("It should keep the latest state per item", func() {
			So(tracker.Set(Resolving{Item: Item{ID: "a"}}), ShouldBeTrue)
			So(tracker.Set(Downloading{Item: Item{ID: "a"}, Downloaded: 10, Total: 20}), ShouldBeTrue)

			s, ok := tracker.Get("a")
			So(ok, ShouldBeTrue)
			So(s.Phase(), ShouldEqual, PhaseDownloading)
			So(s.(Downloading).Fraction(), ShouldEqual, 0.5)
		})

		Convey("Terminal states should be frozen", func() {
			So(tracker.Set(Completed{Item: Item{ID: "a"}, Path: "/out/a.mp4", Failures: []string{"thumbnail"}}), ShouldBeTrue)
			So(tracker.Set(Error{Item: Item{ID: "a"}, Message: "late"}), ShouldBeFalse)

			s, _ := tracker.Get("a")
			So(s.Phase(), ShouldEqual, PhaseCompleted)
		})

		Convey("Snapshot should copy every item", func() {
			tracker.Set(Resolving{Item: Item{ID: "a"}})
			tracker.Set(Skipped{Item: Item{ID: "b"}, Path: "/out/b.mp3"})
			So(tracker.Snapshot(), ShouldHaveLength, 2)
		})
	})
}

func TestBatch(t *testing.T) {
	Convey("Given a batch completed from many goroutines", t, func() {
		batch := NewBatch("pl", 100)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				batch.Complete()
			}()
		}
		wg.Wait()

		Convey("Every completion should be counted exactly once", func() {
			So(batch.Completed(), ShouldEqual, 100)
		})
	})
}

func TestPhase(t *testing.T) {
	Convey("Only completed, skipped and error should be terminal", t, func() {
		for _, p := range []Phase{PhaseResolving, PhaseResolved, PhaseDownloading, PhaseMerging, PhaseProcessing} {
			So(p.Terminal(), ShouldBeFalse)
		}
		for _, p := range []Phase{PhaseCompleted, PhaseSkipped, PhaseError} {
			So(p.Terminal(), ShouldBeTrue)
		}
		So(Downloading{Total: 0, Downloaded: 5}.Fraction(), ShouldEqual, 0)
	})
}
