//go:build linux

package memory

import "golang.org/x/sys/unix"

// low32Flag asks the kernel for an address below 4 GiB directly, instead
// of relying on the sliding-hint fallback loop.
const low32Flag = unix.MAP_32BIT
