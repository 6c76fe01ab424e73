// Package intern provides a process-wide cache of short map-key strings.
//
// The decoder constructs one string per map key; payloads with repeated
// keys (the overwhelmingly common shape) would otherwise allocate the same
// key once per map. The cache is a fixed-size direct-mapped table indexed
// by xxHash64 of the key bytes. Slots are write-once: the first decoder to
// miss publishes its string with an atomic pointer store, later decoders
// with the same key reuse it, and a colliding key simply bypasses the
// cache. Correctness never depends on a hit.
//
// Safe for concurrent use: readers never block, and a lost publish race
// only costs one allocation.
package intern

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const (
	// MaxKeyLen is the longest key the cache will hold. Longer keys are
	// allocated directly; they are rare and would evict useful entries.
	MaxKeyLen = 64

	tableSize = 512 // must be a power of two
	tableMask = tableSize - 1
)

var table [tableSize]atomic.Pointer[string]

// Key returns a string with the contents of b, reusing a previously
// published string when one exists for the same bytes.
func Key(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if len(b) > MaxKeyLen {
		return string(b)
	}

	slot := &table[xxhash.Sum64(b)&tableMask]
	if cached := slot.Load(); cached != nil {
		if *cached == string(b) {
			return *cached
		}

		return string(b)
	}

	s := string(b)
	slot.CompareAndSwap(nil, &s)

	return s
}

// Reset empties the table. Only used by tests.
func Reset() {
	for i := range table {
		table[i].Store(nil)
	}
}
