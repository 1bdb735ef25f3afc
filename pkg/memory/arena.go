package memory

import (
	"github.com/uael/foundation-lib/internal/debug"
	"github.com/uael/foundation-lib/pkg/xunsafe"
)

// Arena is a lock-free bump-pointer allocator backed by a single block
// reserved from the installed back end at creation and released at
// tear-down.
//
// Allocation never blocks and never fails: once head would run past end,
// it wraps back to storage+Word instead. Memory handed out by Arena is
// racy past size bytes of outstanding requests — it exists for
// short-lived, best-effort "temporary" allocations, not as a general
// allocator.
type Arena struct {
	_ xunsafe.NoCopy

	storage  xunsafe.Addr[byte]
	end      xunsafe.Addr[byte]
	size     int
	maxchunk int

	head xunsafe.Addr[byte] // atomic
}

// newArena reserves size bytes from the currently installed allocator
// table as PERSISTENT memory. It returns nil if size is non-positive or
// the back end fails.
//
// head starts at storage+Word, never storage itself, so that a tracker
// record addressed at the numeric value of storage can never collide
// with the first payload the arena hands out.
func newArena(size int) *Arena {
	if size <= 0 {
		return nil
	}

	raw := installedAllocator.Allocate(0, size, Word, Persistent)
	if raw == nil {
		return nil
	}

	storage := xunsafe.AddrOf(raw)

	a := &Arena{
		storage:  storage,
		end:      storage.Add(size),
		size:     size,
		maxchunk: size / 8,
	}
	a.head.Store(storage.Add(Word))
	return a
}

// free returns the arena's storage to the installed allocator table. The
// Arena must not be used afterwards.
func (a *Arena) free() {
	installedAllocator.Deallocate(a.storage.AssertValid())
}

// fits reports whether a chunk-byte request, once rounded up for
// alignment, can be served entirely from a single arena slot.
func (a *Arena) fits(chunk int) bool {
	return a != nil && chunk <= a.maxchunk
}

// contains reports whether p lies within the arena's reserved block.
func (a *Arena) contains(p xunsafe.Addr[byte]) bool {
	return a != nil && p >= a.storage && p < a.end
}

// allocate reserves chunk contiguous bytes using a single CAS loop on
// head, per §4.3:
//
//  1. load old_head atomically
//  2. candidate = old_head + chunk
//  3. if candidate > end, wrap: return_ptr = storage+Word,
//     candidate = return_ptr + chunk
//  4. CAS head: old_head -> candidate; retry from 1 on failure
//  5. return return_ptr
//
// The wrap-around is intentionally non-checking: the arena makes no
// attempt to detect that it has overtaken memory still in use by a
// caller who retained a pointer past the arena's capacity.
func (a *Arena) allocate(chunk int) xunsafe.Addr[byte] {
	for {
		old := a.head.Load()
		candidate := old.ByteAdd(chunk)
		ret := old

		if candidate > a.end {
			ret = a.storage.Add(Word)
			candidate = ret.ByteAdd(chunk)
		}

		if a.head.CompareAndSwap(old, candidate) {
			debug.Log(nil, "arena.allocate", "%v:%v, %d", ret, candidate, chunk)
			return ret
		}
	}
}
