package memory

// Statistics is a snapshot of the four process-wide allocation counters
// (§3, §5). Under the !stats build it is always the zero value.
type Statistics struct {
	AllocationsTotal   int64
	AllocationsCurrent int64
	AllocatedTotal     int64
	AllocatedCurrent   int64
}

// CurrentStatistics returns a copy of the process-wide allocation
// counters.
func CurrentStatistics() Statistics {
	return stats.snapshot()
}
