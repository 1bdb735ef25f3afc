//go:build windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/uael/foundation-lib/internal/debug"
)

// low32HintStart/End bound the address range VirtualAlloc is asked to
// honor when reserving memory below 4 GiB; the original's Windows path
// passes an explicit "low address" request to NtAllocateVirtualMemory,
// which x/sys/windows does not expose directly, so this loop reserves at
// a sliding hint address instead until one is granted verbatim.
const (
	low32HintStart = uintptr(0x10000)
	low32HintEnd   = uintptr(0x80000000)
	low32PageHint  = uintptr(0x10000)
)

// reserveLowAddressPages reserves n bytes entirely within the low
// 32-bit address range via VirtualAlloc.
func reserveLowAddressPages(n int) (unsafe.Pointer, bool) {
	for hint := low32HintStart; hint+uintptr(n) < low32HintEnd; hint += low32PageHint {
		addr, err := windows.VirtualAlloc(hint, uintptr(n), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
		if err != nil || addr == 0 {
			continue
		}
		if addr != hint {
			_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
			continue
		}

		p := unsafe.Pointer(addr)
		pin(unsafe.Slice((*byte)(p), n))
		return p, true
	}
	return nil, false
}

func releaseLowAddressPages(p unsafe.Pointer, n int) {
	unpin(p)
	if err := windows.VirtualFree(uintptr(p), 0, windows.MEM_RELEASE); err != nil {
		debug.Log(nil, "backend.release", "VirtualFree failed: %v", err)
	}
}
