//go:build stats

package memory

import "sync/atomic"

// statistics holds the live, atomically-updated counters backing
// Statistics. There is exactly one instance, stats, for the whole
// process.
type statistics struct {
	allocationsTotal   atomic.Int64
	allocationsCurrent atomic.Int64
	allocatedTotal     atomic.Int64
	allocatedCurrent   atomic.Int64
}

var stats statistics

func (s *statistics) recordAlloc(size int) {
	s.allocationsTotal.Add(1)
	s.allocationsCurrent.Add(1)
	s.allocatedTotal.Add(int64(size))
	s.allocatedCurrent.Add(int64(size))
}

func (s *statistics) recordFree(size int) {
	s.allocationsCurrent.Add(-1)
	s.allocatedCurrent.Add(-int64(size))
}

func (s *statistics) reset() {
	s.allocationsTotal.Store(0)
	s.allocationsCurrent.Store(0)
	s.allocatedTotal.Store(0)
	s.allocatedCurrent.Store(0)
}

func (s *statistics) snapshot() Statistics {
	return Statistics{
		AllocationsTotal:   s.allocationsTotal.Load(),
		AllocationsCurrent: s.allocationsCurrent.Load(),
		AllocatedTotal:     s.allocatedTotal.Load(),
		AllocatedCurrent:   s.allocatedCurrent.Load(),
	}
}
