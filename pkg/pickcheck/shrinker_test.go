package pickcheck

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestShrinkToMinimumFailingValue(t *testing.T) {
	Convey("Shrink against a v >= 100 failure predicate", t, func() {
		dom := IntDomain("bounded_int", 0, 1000)
		isFailing := func(v int) bool { return v >= 100 }

		Convey("shrinks a large failing value down to exactly 100", func() {
			gen, err := dom.Parse(734)
			So(err, ShouldBeNil)
			So(isFailing(gen.Value()), ShouldBeTrue)

			shrunk := Shrink(gen, isFailing)
			So(shrunk.Value(), ShouldEqual, 100)
			So(isFailing(shrunk.Value()), ShouldBeTrue)
		})

		Convey("never returns a larger value than it started with", func() {
			for _, v := range []int{100, 150, 500, 1000} {
				gen, err := dom.Parse(v)
				So(err, ShouldBeNil)
				shrunk := Shrink(gen, isFailing)
				So(shrunk.Value(), ShouldBeLessThanOrEqualTo, v)
				So(isFailing(shrunk.Value()), ShouldBeTrue)
			}
		})

		Convey("is idempotent once minimal", func() {
			gen, err := dom.Parse(100)
			So(err, ShouldBeNil)
			shrunk := Shrink(gen, isFailing)
			So(shrunk.Value(), ShouldEqual, 100)
			reshrunk := Shrink(shrunk, isFailing)
			So(reshrunk.Value(), ShouldEqual, 100)
		})
	})
}
