//go:build !windows && !linux

package memory

// low32Flag has no equivalent outside Linux; these platforms always use
// the sliding-hint mmap loop in backend_unix.go.
const low32Flag = 0
