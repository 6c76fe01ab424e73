package pool

import "sync"

// String slice pool for key sorting.
// SORT_KEYS collects every map's keys into a scratch slice before emitting;
// pooling the scratch avoids one allocation per sorted map.
var stringSlicePool = sync.Pool{
	New: func() any { return &[]string{} },
}

// GetStringSlice retrieves a string slice of exactly the given length from
// the pool. The caller fills it by index and must call the returned
// cleanup function (typically with defer) to return the slice to the pool.
// The cleanup clears the slice so pooled scratch does not pin key strings.
func GetStringSlice(size int) ([]string, func()) {
	ptr, _ := stringSlicePool.Get().(*[]string)
	slice := *ptr

	if cap(slice) < size {
		slice = make([]string, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() {
		clear(*ptr)
		stringSlicePool.Put(ptr)
	}
}
