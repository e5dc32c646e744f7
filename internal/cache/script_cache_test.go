package cache

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestScriptCache(t *testing.T) {
	Convey("ScriptCache", t, func() {
		c := NewScriptCache(4, 2)
		k1 := Key{ScriptID: 1, Replies: EncodeReplies([]int32{1, 2, 3})}
		k2 := Key{ScriptID: 1, Replies: EncodeReplies([]int32{1, 2, 4})}

		Convey("misses on an empty cache", func() {
			_, ok := c.Get(k1)
			So(ok, ShouldBeFalse)
		})

		Convey("returns what was Set", func() {
			c.Set(k1, "value-a")
			v, ok := c.Get(k1)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "value-a")
		})

		Convey("distinguishes reply sequences with the same script ID", func() {
			c.Set(k1, "a")
			c.Set(k2, "b")
			v1, _ := c.Get(k1)
			v2, _ := c.Get(k2)
			So(v1, ShouldEqual, "a")
			So(v2, ShouldEqual, "b")
		})

		Convey("evicts the oldest entry once a shard is at capacity", func() {
			k3 := Key{ScriptID: 1, Replies: EncodeReplies([]int32{9})}
			c.Set(k1, "a")
			c.Set(k2, "b")
			c.Set(k3, "c")
			_, ok := c.Get(k1)
			So(ok, ShouldBeFalse)
			_, ok = c.Get(k3)
			So(ok, ShouldBeTrue)
		})

		Convey("Clear empties the cache and resets stats", func() {
			c.Set(k1, "a")
			c.Get(k1)
			c.Clear()
			_, ok := c.Get(k1)
			So(ok, ShouldBeFalse)
			hits, misses := c.Stats()
			So(hits, ShouldEqual, 0)
			So(misses, ShouldEqual, 1)
		})
	})
}
