package memory

// noopTracker is the always-present no-op TrackerTable (memory_tracker_none):
// every hook is a no-op, suitable as the default before a real tracker is
// installed and as the safe placeholder installed in between during
// SetTracker. It is a single shared instance so callers can compare a
// TrackerTable against it by identity.
var noopTracker = &TrackerTable{
	Initialize: func() error { return nil },
	Abort:      func() {},
	Finalize:   func() {},
	Track:      func(*byte, int) {},
	Untrack:    func(*byte) {},
}

// NoopTracker returns the shared no-op TrackerTable.
func NoopTracker() *TrackerTable {
	return noopTracker
}
