//go:build tracker

package memory

import (
	"sync/atomic"
	"unsafe"

	"github.com/uael/foundation-lib/internal/debug"
	"github.com/uael/foundation-lib/pkg/xunsafe"
	"github.com/uael/foundation-lib/pkg/xunsafe/layout"
)

// tag is one slot of a ringTracker's fixed-capacity table.
type tag struct {
	address atomic.Uintptr
	size    int
	trace   string
}

// ringTracker is a fixed-capacity, lock-free ring of live-allocation
// records. Its slot search is lossy by design: under high churn an
// Untrack may fail to find its matching Track and leave a stale record,
// which Finalize will report as a false leak. This trades linearizable
// bookkeeping for never blocking a concurrent allocator.
type ringTracker struct {
	tags     []tag
	tagsSize int
	next     atomic.Int64
	max      int

	initialized atomic.Bool
}

// LocalTracker returns a TrackerTable backed by a fixed-capacity ring of
// max tag slots (memory_tracker_local).
func LocalTracker(max int) *TrackerTable {
	t := &ringTracker{max: max}

	return &TrackerTable{
		Initialize: t.initialize,
		Abort:      t.abort,
		Finalize:   t.finalize,
		Track:      t.track,
		Untrack:    t.untrack,
	}
}

func (t *ringTracker) initialize() error {
	size := t.max * layout.Size[tag]()

	p := Allocate(0, size, 16, Persistent|ZeroInitialized)
	if p == nil {
		return ErrOutOfMemory
	}

	t.tags = unsafe.Slice(xunsafe.Cast[tag](p), t.max)
	t.tagsSize = size
	t.initialized.Store(true)

	// The table's own allocation is made while this tracker is still
	// being installed, so currentTrackerTable() does not yet resolve to
	// it and the Allocate above never reaches t.track. Record it
	// directly, the same way the original increments its table-size
	// statistic from _memory_tracker_initialize rather than through the
	// generic track hook.
	stats.recordAlloc(size)
	return nil
}

func (t *ringTracker) abort() {
	t.initialized.Store(false)
}

func (t *ringTracker) finalize() {
	for i := range t.tags {
		addr := t.tags[i].address.Load()
		if addr == 0 {
			continue
		}

		debug.Log(nil, "tracker.leak", "leaked %d bytes at %#x\n%s", t.tags[i].size, addr, t.tags[i].trace)
	}

	if len(t.tags) > 0 {
		Deallocate(xunsafe.Cast[byte](&t.tags[0]))

		// Symmetric with initialize: the table's own allocation was
		// never tracked, so the Deallocate above records nothing, whether
		// it reaches the no-op tracker (SetTracker swaps it in first) or
		// t.untrack, which finds no slot for it (Finalize runs this while
		// the tracker is still installed). Record the decrement directly.
		stats.recordFree(t.tagsSize)
	}

	t.tags = nil
	t.tagsSize = 0
	t.initialized.Store(false)
}

func (t *ringTracker) track(addr *byte, size int) {
	if !t.initialized.Load() || addr == nil || t.max == 0 {
		return
	}

	a := uintptr(unsafe.Pointer(addr))

	for attempt := 0; attempt < 2*t.max; attempt++ {
		tagIdx := t.next.Add(1) - 1

		for tagIdx >= int64(t.max) {
			newTag := tagIdx % int64(t.max)
			if t.next.CompareAndSwap(tagIdx+1, newTag+1) {
				tagIdx = newTag
				break
			}
			tagIdx = t.next.Load() - 1
		}
		if tagIdx < 0 {
			continue
		}

		slot := &t.tags[tagIdx]
		if slot.address.CompareAndSwap(0, a) {
			slot.size = size
			slot.trace = debug.Stack(3)
			stats.recordAlloc(size)
			return
		}
	}
	// Exhausted; silently drop the track.
}

func (t *ringTracker) untrack(addr *byte) {
	if !t.initialized.Load() || addr == nil || t.max == 0 {
		return
	}

	a := uintptr(unsafe.Pointer(addr))
	end := t.next.Load() % int64(t.max)

	for i := 0; i < t.max; i++ {
		idx := (end - 1 - int64(i)) % int64(t.max)
		if idx < 0 {
			idx += int64(t.max)
		}

		slot := &t.tags[idx]
		if slot.address.Load() == a && slot.address.CompareAndSwap(a, 0) {
			stats.recordFree(slot.size)
			return
		}
	}
	// Not found; the tracker is lossy, ignore silently.
}
