//go:build !tracker

package memory

// LocalTracker returns the no-op tracker when the tracker build tag is
// disabled, so callers never need to branch on the build configuration.
func LocalTracker(int) *TrackerTable {
	return NoopTracker()
}
