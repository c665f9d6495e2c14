package sharedalloc

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// Layout describes the size and alignment of a block. It accompanies every
// allocation and deallocation and is handed to the installed allocator as-is.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout returns a Layout for size bytes aligned to align. align must be a
// non-zero power of two and size rounded up to align must not overflow.
func NewLayout(size, align uintptr) (Layout, error) {
	if align == 0 || bits.OnesCount64(uint64(align)) != 1 {
		return Layout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, align)
	}
	if size > math.MaxUint-(align-1) {
		return Layout{}, fmt.Errorf("%w: size %d overflows with alignment %d", ErrInvalidLayout, size, align)
	}
	return Layout{Size: size, Align: align}, nil
}

// LayoutOf returns the layout of a single T.
func LayoutOf[T any]() Layout {
	var v T
	return Layout{Size: unsafe.Sizeof(v), Align: unsafe.Alignof(v)}
}

// ArrayLayout returns the layout of n contiguous values of T.
func ArrayLayout[T any](n int) (Layout, error) {
	if n < 0 {
		return Layout{}, fmt.Errorf("%w: negative length %d", ErrInvalidLayout, n)
	}

	elem := LayoutOf[T]()
	hi, size := bits.Mul64(uint64(elem.Size), uint64(n))
	if hi != 0 || uint64(uintptr(size)) != size {
		return Layout{}, fmt.Errorf("%w: %d elements of %d bytes overflows", ErrInvalidLayout, n, elem.Size)
	}
	return NewLayout(uintptr(size), elem.Align)
}

func (l Layout) String() string {
	return fmt.Sprintf("size=%d align=%d", l.Size, l.Align)
}
