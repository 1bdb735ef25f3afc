package memory

import (
	"sync/atomic"

	"github.com/uael/foundation-lib/internal/debug"
)

// Config is the host-provided configuration read once at Initialize.
type Config struct {
	// TemporaryMemory is the arena size in bytes. Zero disables the
	// arena entirely; every Temporary-hinted request then falls
	// through to the back end.
	TemporaryMemory int

	// MemoryContextDepth bounds the per-thread memory-context stack.
	MemoryContextDepth int

	// MemoryTrackerMax bounds a LocalTracker's tag table, when one is
	// installed.
	MemoryTrackerMax int
}

var (
	installedAllocator *AllocatorTable
	arenaInstance      *Arena

	trackerInstance atomic.Pointer[TrackerTable]
	pendingTracker  *TrackerTable

	subsystemInitialized atomic.Bool
)

func init() {
	trackerInstance.Store(NoopTracker())
}

func currentArena() *Arena { return arenaInstance }

func currentTrackerTable() *TrackerTable {
	t := trackerInstance.Load()
	if t == nil {
		return NoopTracker()
	}
	return t
}

// Initialize installs table as the allocator back end, zeroes
// statistics, and brings the arena and any latched tracker online. table
// may be nil, in which case SystemMalloc is used.
func Initialize(table *AllocatorTable, cfg Config) error {
	if table == nil {
		table = SystemMalloc()
	}

	installedAllocator = table
	stats.reset()
	setContextDepth(cfg.MemoryContextDepth)

	if table.Initialize != nil {
		if err := table.Initialize(); err != nil {
			return err
		}
	}

	subsystemInitialized.Store(true)

	if cfg.TemporaryMemory > 0 {
		arenaInstance = newArena(cfg.TemporaryMemory)
	}

	if pendingTracker == nil && cfg.MemoryTrackerMax > 0 && trackerInstance.Load() == NoopTracker() {
		pendingTracker = LocalTracker(cfg.MemoryTrackerMax)
	}

	if pendingTracker != nil {
		pt := pendingTracker
		pendingTracker = nil

		if pt.Initialize == nil {
			trackerInstance.Store(pt)
		} else if err := pt.Initialize(); err == nil {
			trackerInstance.Store(pt)
		} else {
			debug.Log(nil, "lifecycle.initialize", "pending tracker initialize failed: %v", err)
		}
	}

	return nil
}

// Finalize latches the current tracker for a future Initialize, tears
// down the arena and back end, installs the no-op tracker, and clears
// the initialized flag.
func Finalize() {
	old := trackerInstance.Load()
	pendingTracker = old

	if old != nil && old.Finalize != nil {
		old.Finalize()
	}

	if arenaInstance != nil {
		arenaInstance.free()
		arenaInstance = nil
	}

	if installedAllocator != nil {
		if installedAllocator.ThreadFinalize != nil {
			installedAllocator.ThreadFinalize()
		}
		if installedAllocator.Finalize != nil {
			installedAllocator.Finalize()
		}
	}

	trackerInstance.Store(NoopTracker())
	subsystemInitialized.Store(false)
}

// SetTracker installs table as the active tracker. If the subsystem is
// already initialized, table is initialized and installed immediately;
// otherwise it is latched and installed by the next Initialize.
//
// The no-op tracker is installed before the previous tracker's Abort and
// Finalize run, so any hook observed by a concurrently racing allocator
// is always valid.
func SetTracker(table *TrackerTable) {
	if table == nil {
		table = NoopTracker()
	}

	old := trackerInstance.Load()
	if old == table {
		return
	}

	trackerInstance.Store(NoopTracker())
	if old != nil {
		if old.Abort != nil {
			old.Abort()
		}
		if old.Finalize != nil {
			old.Finalize()
		}
	}

	if !subsystemInitialized.Load() {
		pendingTracker = table
		return
	}

	if table.Initialize != nil {
		if err := table.Initialize(); err != nil {
			debug.Log(nil, "lifecycle.set_tracker", "tracker initialize failed: %v", err)
			return
		}
	}
	trackerInstance.Store(table)
}

// ThreadFinalize releases the back end's per-thread state for the
// calling goroutine. It does not touch the memory-context stack; call
// ContextThreadFinalize for that.
func ThreadFinalize() {
	if installedAllocator != nil && installedAllocator.ThreadFinalize != nil {
		installedAllocator.ThreadFinalize()
	}
}
