package memory

// AllocatorTable is the set of functions a pluggable back end must
// provide. It is installed once by [Initialize] and torn down by
// [Finalize]; it cannot be hot-swapped while the subsystem is running.
type AllocatorTable struct {
	// Initialize prepares the back end. It is called once, before any
	// Allocate call.
	Initialize func() error

	// Finalize releases any global state held by the back end.
	Finalize func()

	// ThreadFinalize releases any per-thread state held by the back
	// end. It is called once per thread as that thread exits.
	ThreadFinalize func()

	// Allocate allocates size bytes aligned to align, honoring hint.
	// context identifies the memory-context tag the request should be
	// attributed to. Returns nil on failure.
	Allocate func(context uint64, size, align int, hint Hint) *byte

	// Reallocate resizes payload, previously returned by Allocate, to
	// newsize bytes. oldsize is the size passed to the original
	// Allocate call. Failure is fatal; implementations should not
	// return nil.
	Reallocate func(payload *byte, newsize, align, oldsize int) *byte

	// Deallocate releases payload, previously returned by Allocate or
	// Reallocate.
	Deallocate func(payload *byte)
}

// TrackerTable is the set of functions a pluggable allocation tracker
// must provide. Unlike AllocatorTable it may be swapped at any time via
// [SetTracker].
type TrackerTable struct {
	// Initialize prepares the tracker. Called when it is installed
	// into an already-initialized subsystem, or deferred and called
	// during [Initialize] if latched before startup.
	Initialize func() error

	// Abort discards the tracker's initialized state without
	// reporting leaks. Used when swapping trackers.
	Abort func()

	// Finalize reports any outstanding allocations as leaks, then
	// releases the tracker's own state.
	Finalize func()

	// Track records a successful allocation of size bytes at addr.
	Track func(addr *byte, size int)

	// Untrack removes the record for addr, if one exists. Lookup
	// failures are silently ignored; the tracker is best-effort.
	Untrack func(addr *byte)
}
