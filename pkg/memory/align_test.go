package memory_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/uael/foundation-lib/pkg/memory"
	"github.com/uael/foundation-lib/pkg/xunsafe"
)

func TestEffectiveAlign(t *testing.T) {
	Convey("Given EffectiveAlign", t, func() {
		Convey("When requesting zero alignment", func() {
			So(memory.EffectiveAlign(0), ShouldEqual, 0)
		})

		Convey("When requesting an alignment below Word", func() {
			So(memory.EffectiveAlign(1), ShouldEqual, memory.Word)
		})

		Convey("When requesting a non-power-of-two alignment", func() {
			So(memory.EffectiveAlign(12), ShouldEqual, 16)
		})

		Convey("When requesting an alignment above MaxAlign", func() {
			So(memory.EffectiveAlign(1<<20), ShouldEqual, memory.MaxAlign)
		})
	})
}

func TestForcedAlign(t *testing.T) {
	Convey("Given ForcedAlign", t, func() {
		Convey("When the request is zero", func() {
			So(memory.ForcedAlign(0), ShouldEqual, memory.Word)
		})

		Convey("When the request already exceeds Word", func() {
			So(memory.ForcedAlign(16), ShouldEqual, 16)
		})
	})
}

func TestAlignPointer(t *testing.T) {
	Convey("Given AlignPointer", t, func() {
		var buf [64]byte
		base := xunsafe.AddrOf(&buf[0])

		Convey("When align is 1 or less", func() {
			So(memory.AlignPointer(base.ByteAdd(3), 0), ShouldEqual, base.ByteAdd(3))
			So(memory.AlignPointer(base.ByteAdd(3), 1), ShouldEqual, base.ByteAdd(3))
		})

		Convey("When align is a larger power of two", func() {
			p := memory.AlignPointer(base.ByteAdd(3), 16)
			So(uintptr(p)%16, ShouldEqual, 0)
			So(p, ShouldBeGreaterThanOrEqualTo, base.ByteAdd(3))
		})
	})
}
