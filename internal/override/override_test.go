package override

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseSets(t *testing.T) {
	Convey("ParseSets", t, func() {
		Convey("builds a replace op per /path=value flag", func() {
			ops, err := ParseSets([]string{"/0=true", "/name=hello"})
			So(err, ShouldBeNil)
			So(ops, ShouldNotBeNil)
		})

		Convey("coerces a numeric value to int", func() {
			ops, err := ParseSets([]string{"/count=3"})
			So(err, ShouldBeNil)

			patched, err := Apply(ops, map[string]interface{}{"count": 1})
			So(err, ShouldBeNil)
			m, ok := patched.(map[string]interface{})
			So(ok, ShouldBeTrue)
			So(m["count"], ShouldEqual, 3)
		})

		Convey("rejects a flag with no '='", func() {
			_, err := ParseSets([]string{"/broken"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestApplyOnArray(t *testing.T) {
	Convey("Apply against a []interface{}-shaped array value", t, func() {
		ops, err := ParseSets([]string{"/0=false"})
		So(err, ShouldBeNil)

		before := []interface{}{true, true, false}
		after, err := Apply(ops, before)
		So(err, ShouldBeNil)

		list, ok := after.([]interface{})
		So(ok, ShouldBeTrue)
		So(list[0], ShouldEqual, false)
		So(list[1], ShouldEqual, true)
		So(list[2], ShouldEqual, false)
	})
}

func TestParse(t *testing.T) {
	Convey("Parse decodes a go-patch op-definition document", t, func() {
		doc := []byte("- type: replace\n  path: /0\n  value: false\n")
		ops, err := Parse(doc)
		So(err, ShouldBeNil)

		after, err := Apply(ops, []interface{}{true, true})
		So(err, ShouldBeNil)
		list, ok := after.([]interface{})
		So(ok, ShouldBeTrue)
		So(list[0], ShouldEqual, false)
	})

	Convey("Parse rejects malformed YAML", t, func() {
		_, err := Parse([]byte("not: [valid"))
		So(err, ShouldNotBeNil)
	})
}
