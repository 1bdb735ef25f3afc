package memory

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/uael/foundation-lib/internal/debug"
	"github.com/uael/foundation-lib/pkg/xunsafe"
)

// live pins every slice backing a raw back-end allocation against the
// garbage collector for as long as the allocation is outstanding.
//
// The back end hands out payload pointers computed by raw pointer
// arithmetic (see the header layouts below); nothing in that arithmetic
// is visible to the GC as a pointer into the originating slice, so
// without this registry the slice could be collected out from under a
// live payload. This mirrors the sync.Map-keyed pointer bookkeeping
// arrow's checked allocator uses to track live allocations.
var live sync.Map // uintptr(raw) -> []byte

func pin(buf []byte) unsafe.Pointer {
	p := unsafe.Pointer(unsafe.SliceData(buf))
	live.Store(uintptr(p), buf)
	return p
}

func unpin(p unsafe.Pointer) {
	live.Delete(uintptr(p))
}

// rawLowBit marks a stored raw word as belonging to a low-32-bit page
// reservation, released through the platform unmap path rather than the
// ordinary heap.
const rawLowBit = uintptr(1)

// systemInitialize, systemFinalize and systemThreadFinalize are no-ops:
// the default back end has no global or per-thread state beyond the
// live registry, which needs no setup.
func systemInitialize() error { return nil }
func systemFinalize()         {}
func systemThreadFinalize()   {}

// systemAllocate implements the default AllocatorTable.Allocate.
//
// Go exposes no raw aligned_alloc/free pair, so both the (a) 32-bit and
// (b) 64-bit non-low-32 cases of §4.4 collapse into one general path
// here: a slice is allocated from the Go heap, pinned in live, and a
// raw-header word recording its base pointer is written immediately
// before the block (the returned payload itself when guard bands are
// compiled out). 32BIT_ADDRESS requests are routed to the
// platform-specific low address reservation instead.
func systemAllocate(_ uint64, size, align int, hint Hint) *byte {
	if hint.Has(LowAddress) {
		return lowAddressAllocate(size, align, hint)
	}
	return generalAllocate(size, align, hint)
}

// generalAllocate reserves Word bytes before the payload for the raw
// header plus padding worth of slack, since Go's heap allocator rounds
// requests to internal size classes and does not guarantee the
// caller-requested alignment: the payload must be rounded up
// explicitly, the same way the original's POSIX/malloc path calls
// _memory_align_pointer (only its Windows aligned_alloc path can skip
// this, since that allocator guarantees the alignment itself).
func generalAllocate(size, align int, hint Hint) *byte {
	padding := max(EffectiveAlign(align), Word)
	overhead := guardOverhead()
	total := Word + padding + overhead + size

	raw := pin(make([]byte, total))
	rawAddr := xunsafe.AddrOf((*byte)(raw))
	block := AlignPointer(rawAddr.Add(Word), padding)

	xunsafe.Store(xunsafe.Cast[uintptr](block.ByteAdd(-Word).AssertValid()), 0, uintptr(raw))

	payload := guardWrap(block, size)
	if hint.Has(ZeroInitialized) {
		xunsafe.Clear(payload.AssertValid(), size)
	}
	return payload.AssertValid()
}

func lowAddressAllocate(size, align int, hint Hint) *byte {
	header := 2 * Word
	overhead := guardOverhead()
	total := header + overhead + size

	raw, ok := reserveLowAddressPages(total)
	if !ok {
		debug.Log(nil, "backend.allocate", "low-32 reservation failed for %d bytes", total)
		return nil
	}

	rawAddr := xunsafe.AddrOf((*byte)(raw))
	block := AlignPointer(rawAddr.Add(header), max(align, Word))

	xunsafe.Store(xunsafe.Cast[uintptr](block.ByteAdd(-Word).AssertValid()), 0, uintptr(raw)|rawLowBit)
	xunsafe.Store(xunsafe.Cast[int64](block.ByteAdd(-2*Word).AssertValid()), 0, int64(total))

	payload := guardWrap(block, size)
	if hint.Has(ZeroInitialized) {
		xunsafe.Clear(payload.AssertValid(), size)
	}
	return payload.AssertValid()
}

// systemDeallocate implements the default AllocatorTable.Deallocate.
func systemDeallocate(payload *byte) {
	if payload == nil {
		return
	}

	block := guardUnwrap(xunsafe.AddrOf(payload))
	tag := xunsafe.Load(xunsafe.Cast[uintptr](block.ByteAdd(-Word).AssertValid()), 0)

	if tag&rawLowBit != 0 {
		raw := unsafe.Pointer(tag &^ rawLowBit)
		size := int(xunsafe.Load(xunsafe.Cast[int64](block.ByteAdd(-2*Word).AssertValid()), 0))
		releaseLowAddressPages(raw, size)
		return
	}

	raw := unsafe.Pointer(tag)
	unpin(raw)
}

// systemReallocate implements the default AllocatorTable.Reallocate.
//
// Go provides no in-place realloc primitive usable against our raw
// header layout, so every reallocation takes the alloc-and-copy path the
// original reserves for ARM: allocate fresh memory, copy
// min(newsize, oldsize) bytes, free the old payload.
//
// The low-32 class of the fresh allocation is inferred from whether the
// old raw pointer's numeric value sits below 2^32, exactly as the
// original's documented (and unresolved) behavior: see DESIGN.md.
func systemReallocate(payload *byte, newsize, align, oldsize int) *byte {
	if payload == nil {
		return systemAllocate(0, newsize, align, 0)
	}

	block := guardUnwrap(xunsafe.AddrOf(payload))
	tag := xunsafe.Load(xunsafe.Cast[uintptr](block.ByteAdd(-Word).AssertValid()), 0)

	var hint Hint
	raw := tag &^ rawLowBit
	if raw < 1<<32 {
		hint |= LowAddress
	}

	fresh := systemAllocate(0, newsize, align, hint)
	if fresh == nil {
		panic(fmt.Sprintf("memory: reallocate(%d -> %d bytes) failed", oldsize, newsize))
	}

	xunsafe.Copy(fresh, payload, min(newsize, oldsize))
	systemDeallocate(payload)
	return fresh
}

// SystemMalloc returns the default AllocatorTable, backed by the Go heap
// for general requests and the platform's page-mapping facility for
// 32BIT_ADDRESS requests.
func SystemMalloc() *AllocatorTable {
	return &AllocatorTable{
		Initialize:     systemInitialize,
		Finalize:       systemFinalize,
		ThreadFinalize: systemThreadFinalize,
		Allocate:       systemAllocate,
		Reallocate:     systemReallocate,
		Deallocate:     systemDeallocate,
	}
}
