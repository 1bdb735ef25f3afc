package memory_test

import "unsafe"

// unsafeBytes views the n bytes starting at p as a slice, for tests that
// need to read or write through a payload pointer returned by Allocate.
func unsafeBytes(p *byte, n int) []byte {
	return unsafe.Slice(p, n)
}
