package memory

import (
	"fmt"

	"github.com/uael/foundation-lib/internal/debug"
	"github.com/uael/foundation-lib/pkg/xunsafe"
)

// Allocate reserves size bytes aligned to align, honoring hint, and
// attributes the request to context (or, if context is zero, to this
// goroutine's current memory-context tag). It returns nil only if the
// back end itself fails; arena-path requests always succeed.
//
// On success the installed tracker observes the allocation via its
// Track hook.
func Allocate(context uint64, size, align int, hint Hint) *byte {
	if hint.Has(Temporary) {
		if a := currentArena(); a.fits(size + ForcedAlign(align)) {
			chunk := size + ForcedAlign(align)
			p := a.allocate(chunk)
			p = AlignPointer(p, EffectiveAlign(align))

			if hint.Has(ZeroInitialized) {
				xunsafe.Clear(p.AssertValid(), size)
			}

			payload := p.AssertValid()
			currentTrackerTable().Track(payload, size)
			return payload
		}
	}

	if context == 0 {
		context = Context()
	}

	payload := installedAllocator.Allocate(context, size, align, hint)
	if payload == nil {
		debug.Log(nil, "facade.allocate", "out of memory requesting %d bytes (align %d, hint %v)", size, align, hint)
		return nil
	}

	currentTrackerTable().Track(payload, size)
	return payload
}

// Reallocate resizes payload, previously returned by Allocate, from
// oldsize to newsize bytes aligned to align.
//
// payload must not lie inside the arena: arena memory is only ever
// released at arena tear-down. Failure is fatal, matching the contract
// that callers cannot recover a lost payload.
func Reallocate(payload *byte, newsize, align, oldsize int) *byte {
	if payload != nil {
		debug.Assert(!currentArena().contains(xunsafe.AddrOf(payload)), "reallocate called on arena-owned payload")
	}

	currentTrackerTable().Untrack(payload)

	fresh := installedAllocator.Reallocate(payload, newsize, align, oldsize)
	if fresh == nil {
		panic(fmt.Sprintf("memory: reallocate(%d -> %d bytes) failed", oldsize, newsize))
	}

	currentTrackerTable().Track(fresh, newsize)
	return fresh
}

// Deallocate releases payload, previously returned by Allocate or
// Reallocate. Payloads inside the arena are not individually freed
// (arena memory is only released at arena tear-down), but the tracker
// is still notified so its bookkeeping stays consistent.
func Deallocate(payload *byte) {
	if payload == nil {
		return
	}

	if !currentArena().contains(xunsafe.AddrOf(payload)) {
		installedAllocator.Deallocate(payload)
	}

	currentTrackerTable().Untrack(payload)
}
