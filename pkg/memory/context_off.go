//go:build !context

package memory

// ContextPush, ContextPop, Context and ContextThreadFinalize are no-ops
// when the context build tag is disabled.
func setContextDepth(int) {}

func ContextPush(uint64)     {}
func ContextPop()            {}
func Context() uint64        { return 0 }
func ContextThreadFinalize() {}
