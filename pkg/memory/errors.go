package memory

import "errors"

// ErrOutOfMemory is returned by the local tracker's Initialize when the
// allocation of its tag table through the façade fails.
var ErrOutOfMemory = errors.New("memory: out of memory")
