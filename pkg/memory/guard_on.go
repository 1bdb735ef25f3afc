//go:build guard

package memory

import (
	"fmt"

	"github.com/uael/foundation-lib/pkg/xunsafe"
)

const guardEnabled = true

// canary is the fixed pattern written into guard bands, repeated to fill
// every word of the header and footer slots.
const canary uint32 = 0xDEADBEEF

// guardOverhead is the number of extra bytes the back end must reserve
// around a payload when the guard build tag is active: one MaxAlign slot
// for the stored size, one for the header canary band, and one for the
// footer canary band.
func guardOverhead() int {
	return 3 * MaxAlign
}

// guardWrap writes the guard-band layout around a size-byte payload
// starting at block, and returns the payload pointer callers should
// receive.
//
// Layout: [size word, MaxAlign bytes][header canary, MaxAlign bytes]
// [payload, size bytes][footer canary, MaxAlign bytes].
func guardWrap(block xunsafe.Addr[byte], size int) xunsafe.Addr[byte] {
	xunsafe.Store(xunsafe.Cast[int64](block.AssertValid()), 0, int64(size))
	fillCanary(block.Add(MaxAlign), MaxAlign)

	payload := block.Add(2 * MaxAlign)
	fillCanary(payload.ByteAdd(size), MaxAlign)
	return payload
}

// guardUnwrap verifies the guard bands around payload and returns the
// block pointer that must be passed to the back end's own release path.
//
// Any mismatch indicates a buffer overwrite (footer) or underwrite
// (header) and aborts the process, matching the original's assertion
// semantics: a guard violation is not recoverable.
func guardUnwrap(payload xunsafe.Addr[byte]) xunsafe.Addr[byte] {
	block := payload.ByteAdd(-2 * MaxAlign)
	size := int(xunsafe.Load(xunsafe.Cast[int64](block.AssertValid()), 0))

	checkCanary(block.Add(MaxAlign), MaxAlign, "Memory underwrite")
	checkCanary(payload.ByteAdd(size), MaxAlign, "Memory overwrite")
	return block
}

func fillCanary(start xunsafe.Addr[byte], n int) {
	p := xunsafe.Cast[uint32](start.AssertValid())
	for i := 0; i*4+4 <= n; i++ {
		xunsafe.Store(p, i, canary)
	}
}

// checkCanary panics unconditionally on mismatch, regardless of whether
// the debug build tag is set: a guard-band violation means memory has
// already been corrupted, which release builds cannot afford to ignore.
func checkCanary(start xunsafe.Addr[byte], n int, msg string) {
	p := xunsafe.Cast[uint32](start.AssertValid())
	for i := 0; i*4+4 <= n; i++ {
		if word := xunsafe.Load(p, i); word != canary {
			panic(fmt.Sprintf("memory: %s at %v", msg, start.ByteAdd(i*4)))
		}
	}
}
