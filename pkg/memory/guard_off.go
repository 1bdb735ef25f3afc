//go:build !guard

package memory

import "github.com/uael/foundation-lib/pkg/xunsafe"

const guardEnabled = false

func guardOverhead() int { return 0 }

func guardWrap(block xunsafe.Addr[byte], size int) xunsafe.Addr[byte] { return block }

func guardUnwrap(payload xunsafe.Addr[byte]) xunsafe.Addr[byte] { return payload }
