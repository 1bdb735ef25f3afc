//go:build !windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/uael/foundation-lib/internal/debug"
)

// low32HintStart and low32HintEnd bound the sliding-hint search used when
// the platform has no flag that asks the kernel for a low address
// directly.
const (
	low32HintStart = uintptr(0x10000)
	low32HintEnd   = uintptr(0x80000000)
	low32PageHint  = uintptr(0x10000)
)

// reserveLowAddressPages reserves n bytes entirely within the low
// 32-bit address range via mmap.
//
// Where the platform defines a flag that asks the kernel for a low
// address directly (low32Flag), it is tried first; anything it returns
// above 4 GiB is unmapped and the request falls through to a
// best-effort loop that walks a sliding hint through
// [0x10000, 0x80000000) until the kernel honors it.
func reserveLowAddressPages(n int) (unsafe.Pointer, bool) {
	if low32Flag != 0 {
		if p, ok := mmapWithFlag(n, low32Flag); ok {
			return p, true
		}
	}
	return mmapSlidingHint(n)
}

func mmapWithFlag(n int, flag int) (unsafe.Pointer, bool) {
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON|flag)
	if err != nil {
		return nil, false
	}

	p := pin(data)
	if uintptr(p)+uintptr(n) > 1<<32 {
		_ = unix.Munmap(data)
		unpin(p)
		return nil, false
	}
	return p, true
}

func mmapSlidingHint(n int) (unsafe.Pointer, bool) {
	for hint := low32HintStart; hint+uintptr(n) < low32HintEnd; hint += low32PageHint {
		addr, _, errno := unix.Syscall6(unix.SYS_MMAP, hint, uintptr(n),
			uintptr(unix.PROT_READ|unix.PROT_WRITE),
			uintptr(unix.MAP_PRIVATE|unix.MAP_ANON), ^uintptr(0), 0)
		if errno != 0 {
			continue
		}
		if addr != hint {
			_, _, _ = unix.Syscall(unix.SYS_MUNMAP, addr, uintptr(n), 0)
			continue
		}

		data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n) //nolint:govet
		p := pin(data)
		return p, true
	}
	return nil, false
}

func releaseLowAddressPages(p unsafe.Pointer, n int) {
	unpin(p)
	data := unsafe.Slice((*byte)(p), n)
	if err := unix.Munmap(data); err != nil {
		debug.Log(nil, "backend.release", "munmap failed: %v", err)
	}
}
