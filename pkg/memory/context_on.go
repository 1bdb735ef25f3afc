//go:build context

package memory

import (
	"unsafe"

	"github.com/timandy/routine"

	"github.com/uael/foundation-lib/pkg/xunsafe"
)

// contextStack is a goroutine-local, lazily-allocated block of
// {depth, context[depth_max]}, allocated through the façade itself
// (PERSISTENT|ZERO_INITIALIZED) so it is visible to the tracker and
// statistics the same as any other allocation. words[0] holds depth;
// words[1:] holds the context ids. depthMax bounds capacity; the slot
// at depthMax-1 is a saturating sink: once reached, further pushes keep
// writing into it but depth no longer advances, so Context's view of
// the stack freezes.
type contextStack struct {
	block *byte
	words []uint64
}

var contextTLS = routine.NewThreadLocal[*contextStack]()

// contextDepthMax is set once by Initialize from the host config's
// memory_context_depth.
var contextDepthMax = 16

// setContextDepth sets the per-thread context stack capacity used for
// goroutines that have not yet allocated a stack. Existing stacks keep
// their original capacity.
func setContextDepth(n int) {
	if n > 0 {
		contextDepthMax = n
	}
}

func newContextStack() *contextStack {
	max := contextDepthMax
	if max < 1 {
		max = 1
	}

	size := (max + 1) * Word
	block := Allocate(0, size, Word, Persistent|ZeroInitialized)
	if block == nil {
		panic("memory: failed to allocate per-thread context stack")
	}

	return &contextStack{
		block: block,
		words: unsafe.Slice(xunsafe.Cast[uint64](block), max+1),
	}
}

func (s *contextStack) depth() int     { return int(s.words[0]) }
func (s *contextStack) setDepth(d int) { s.words[0] = uint64(d) }
func (s *contextStack) ids() []uint64  { return s.words[1:] }

// ContextPush tags subsequent allocations on this goroutine with id,
// per §4.7.
func ContextPush(id uint64) {
	s := contextTLS.Get()
	if s == nil {
		s = newContextStack()
		contextTLS.Set(s)
	}

	d := s.depth()
	s.ids()[d] = id
	if d < len(s.ids())-1 {
		s.setDepth(d + 1)
	}
}

// ContextPop undoes the most recent ContextPush on this goroutine, if
// any.
func ContextPop() {
	s := contextTLS.Get()
	if s == nil {
		return
	}
	if d := s.depth(); d > 0 {
		s.setDepth(d - 1)
	}
}

// Context returns the current top-of-stack context id for this
// goroutine, or 0 if the stack is empty.
func Context() uint64 {
	s := contextTLS.Get()
	if s == nil {
		return 0
	}
	d := s.depth()
	if d == 0 {
		return 0
	}
	return s.ids()[d-1]
}

// ContextThreadFinalize releases this goroutine's context stack,
// freeing its block through the façade, then clears the TLS slot.
//
// This is the one place a thread frees memory allocated on its own
// behalf as part of its own teardown, not on behalf of another thread:
// the façade's normal rule against cross-thread deallocation of
// thread-local state does not apply here.
func ContextThreadFinalize() {
	s := contextTLS.Get()
	if s == nil {
		return
	}
	Deallocate(s.block)
	contextTLS.Remove()
}
