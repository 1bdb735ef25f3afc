//go:build go1.19

package xunsafe

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/uael/foundation-lib/pkg/xunsafe/layout"
)

// Addr is an untyped, arithmetic-friendly stand-in for a *T.
//
// Unlike a real pointer, the GC does not trace an Addr and it carries no
// write barrier, so it is safe to store inside atomic words, pack into a
// tagged header field, or sit inert while the memory it refers to is
// owned by something outside the Go heap. Call AssertValid to turn it
// back into a pointer immediately before a dereference.
type Addr[T any] uintptr

// AddrOf returns the Addr of p.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// EndOf returns the Addr one past the last element of s.
func EndOf[S ~[]E, E any](s S) Addr[E] {
	data := unsafe.SliceData(s)
	return AddrOf(data).Add(len(s))
}

// AssertValid converts this Addr back into a pointer.
//
// The caller is asserting that the memory this Addr refers to is still
// live; nothing here can check that.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add adds n, scaled by the size of T, to a.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](n*layout.Size[T]())
}

// ByteAdd adds n raw bytes to a, without scaling.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub computes the distance, scaled by the size of T, between a and b.
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(a-b) / layout.Size[T]()
}

// ByteSub computes the raw byte distance between a and b.
func (a Addr[T]) ByteSub(b Addr[T]) int {
	return int(a - b)
}

// Padding returns the number of bytes that must be added to a to reach the
// next multiple of align.
func (a Addr[T]) Padding(align int) int {
	return layout.Padding(int(a), align)
}

// RoundUpTo rounds a up to the next multiple of align.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(int(a), align))
}

// RoundDownTo rounds a down to the previous multiple of align.
func (a Addr[T]) RoundDownTo(align int) Addr[T] {
	return Addr[T](layout.RoundDown(int(a), align))
}

// SignBit reports whether a's top bit is set.
func (a Addr[T]) SignBit() bool {
	return int(a) < 0
}

// SignBitMask returns all-ones if SignBit is set, all-zeros otherwise.
func (a Addr[T]) SignBitMask() Addr[T] {
	return Addr[T](int(a) >> (unsafe.Sizeof(a)*8 - 1))
}

// ClearSignBit returns a with its top bit cleared.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a &^ (Addr[T](1) << (unsafe.Sizeof(a)*8 - 1))
}

// Load atomically loads the Addr stored at p.
func (p *Addr[T]) Load() Addr[T] {
	return Addr[T](atomic.LoadUintptr((*uintptr)(unsafe.Pointer(p))))
}

// Store atomically stores v into p.
func (p *Addr[T]) Store(v Addr[T]) {
	atomic.StoreUintptr((*uintptr)(unsafe.Pointer(p)), uintptr(v))
}

// CompareAndSwap atomically sets *p to new if *p == old.
func (p *Addr[T]) CompareAndSwap(old, new Addr[T]) bool { //nolint:predeclared
	return atomic.CompareAndSwapUintptr((*uintptr)(unsafe.Pointer(p)), uintptr(old), uintptr(new))
}

// String implements [fmt.Stringer].
func (a Addr[T]) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}

// Format implements [fmt.Formatter] so that %x and %v both print sensibly.
func (a Addr[T]) Format(s fmt.State, verb rune) {
	switch verb {
	case 'x':
		_, _ = fmt.Fprintf(s, "%x", uintptr(a))
	default:
		_, _ = fmt.Fprintf(s, "%#x", uintptr(a))
	}
}
