package sharedalloc

import "unsafe"

// The typed helpers below allocate through the process-wide allocator. The
// memory they return lives outside the Go heap and isn't scanned by the
// garbage collector, so T must not contain Go pointers (no pointers, slices,
// strings, maps, channels, funcs or interfaces).

// New allocates a zeroed T. It returns ErrOutOfMemory if the installed
// allocator fails. Zero-sized types don't reach the allocator.
func New[T any]() (*T, error) {
	l := LayoutOf[T]()
	if l.Size == 0 {
		return new(T), nil
	}

	p := Alloc(l)
	if p == nil {
		return nil, ErrOutOfMemory
	}
	clear(unsafe.Slice((*byte)(p), l.Size))
	return (*T)(p), nil
}

// Free releases a value returned by New. Free(nil) does nothing.
func Free[T any](v *T) {
	l := LayoutOf[T]()
	if v == nil || l.Size == 0 {
		return
	}
	Dealloc(unsafe.Pointer(v), l)
}

// MakeSlice allocates a zeroed slice of n values of T with len and cap n.
// Free it with FreeSlice. Don't reslice it from a later start (s[i:]) or
// change its capacity (s[:k:m]) before then, since FreeSlice rebuilds the
// layout from the first element and the capacity.
func MakeSlice[T any](n int) ([]T, error) {
	l, err := ArrayLayout[T](n)
	if err != nil {
		return nil, err
	}
	if l.Size == 0 {
		return make([]T, n), nil
	}

	p := Alloc(l)
	if p == nil {
		return nil, ErrOutOfMemory
	}
	s := unsafe.Slice((*T)(p), n)
	clear(s)
	return s, nil
}

// FreeSlice releases a slice returned by MakeSlice. s may have been shortened
// with s[:k] but must still start at the first element, since the capacity
// is used to rebuild the allocation's layout.
func FreeSlice[T any](s []T) {
	if cap(s) == 0 || LayoutOf[T]().Size == 0 {
		return
	}

	l, err := ArrayLayout[T](cap(s))
	if err != nil {
		// cap(s) came from MakeSlice, so this can't fail.
		panic(err)
	}
	Dealloc(unsafe.Pointer(unsafe.SliceData(s)), l)
}
