package memory

import (
	"math/bits"
	"runtime"
	"unsafe"

	"github.com/uael/foundation-lib/pkg/xunsafe"
)

// Word is the size, in bytes, of a pointer on this platform.
const Word = int(unsafe.Sizeof(uintptr(0)))

const (
	defaultMaxAlign = 16
	androidMaxAlign = 8
)

// MaxAlign is the largest alignment the back end will honor. Most
// platforms use 16; Android's allocator only guarantees 8-byte alignment
// for any request, so it is pinned lower there.
var MaxAlign = func() int {
	if runtime.GOOS == "android" {
		return androidMaxAlign
	}
	return defaultMaxAlign
}()

// effectiveAlignTable dispatches EffectiveAlign by GOOS. Only Android
// diverges from the general formula; every other platform falls back to
// defaultEffectiveAlign.
var effectiveAlignTable = map[string]func(int) int{
	"android": androidEffectiveAlign,
}

// EffectiveAlign computes the alignment the back end will actually honor
// for a caller-requested alignment a. Zero means "no preference."
func EffectiveAlign(a int) int {
	if fn, ok := effectiveAlignTable[runtime.GOOS]; ok {
		return fn(a)
	}
	return defaultEffectiveAlign(a)
}

func defaultEffectiveAlign(a int) int {
	if a == 0 {
		return 0
	}

	align := roundUpPow2(a)
	if align < Word {
		align = Word
	}
	if align > MaxAlign {
		align = MaxAlign
	}
	return align
}

// androidEffectiveAlign mirrors bionic's allocator: any non-zero request
// gets MaxAlign, since bionic malloc always returns 8-byte-aligned memory
// and nothing finer-grained is worth tracking.
func androidEffectiveAlign(a int) int {
	if a > 0 {
		return MaxAlign
	}
	return 0
}

// ForcedAlign is EffectiveAlign, but never less than Word: it is used
// anywhere the result must be usable as a raw-header offset.
func ForcedAlign(a int) int {
	align := EffectiveAlign(a)
	if align < Word {
		return Word
	}
	return align
}

// AlignPointer rounds p up to the next multiple of align.
func AlignPointer(p xunsafe.Addr[byte], align int) xunsafe.Addr[byte] {
	if align <= 1 {
		return p
	}
	return p.RoundUpTo(align)
}

// roundUpPow2 returns the smallest power of two greater than or equal to a.
func roundUpPow2(a int) int {
	if a <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(a-1))
}
