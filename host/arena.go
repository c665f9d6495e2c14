package host

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/pboyd/malloc"

	"github.com/pboyd/sharedalloc"
)

const defaultInitialSize = 1 << 20

// maxBlockSize is the largest block malloc.Arena can hand out. It counts in
// 16-byte words stored in a uint32.
const maxBlockSize = math.MaxUint32 * 16

// Arena is a thread-safe manual allocator. Blocks come from an mmap backed
// malloc.Arena, outside the Go heap, so they can be handed to plugins and
// freed from either side of the boundary.
type Arena struct {
	arena    *malloc.Arena
	mu       sync.Mutex
	initOnce sync.Once
	initErr  error

	initialSize int
	limit       uintptr

	blocks map[uintptr]block
	inUse  uintptr
}

// block is one allocation. buf is what the backing arena returned; the
// caller's pointer is somewhere inside it, after alignment.
type block struct {
	buf    []byte
	layout sharedalloc.Layout
}

// Stats is a snapshot of an Arena's outstanding allocations.
type Stats struct {
	// Live is the number of blocks allocated and not yet freed.
	Live int

	// InUse is the sum of the requested sizes of the live blocks.
	InUse uintptr
}

// NewArena returns an empty Arena. The backing memory is mapped on the first
// allocation.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		initialSize: defaultInitialSize,
		blocks:      map[uintptr]block{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Arena) init() error {
	a.initOnce.Do(func() {
		be := malloc.MmapBackend(malloc.MmapProt(arenaProt), malloc.MmapFlags(arenaMapFlags))
		a.arena = malloc.NewArena(uint64(a.initialSize), malloc.Backend(be))
		if a.arena == nil {
			a.initErr = errors.New("unable to initialize arena")
		}
	})
	return a.initErr
}

// Alloc returns a block of l.Size bytes aligned to l.Align, or nil if the
// request is empty, the alignment is invalid, the block is too large for the
// backing arena, the limit would be exceeded or the backing arena is out of
// space.
func (a *Arena) Alloc(l sharedalloc.Layout) unsafe.Pointer {
	if l.Size == 0 {
		return nil
	}
	if _, err := sharedalloc.NewLayout(l.Size, l.Align); err != nil {
		return nil
	}

	// Over-allocate so there's always an aligned address inside the block.
	// NewLayout guarantees this doesn't overflow.
	total := uint64(l.Size) + uint64(l.Align) - 1
	if total > maxBlockSize || total > math.MaxInt {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.init() != nil {
		return nil
	}
	if a.limit > 0 && l.Size > a.limit-a.inUse {
		return nil
	}

	buf, err := malloc.MallocSlice[byte](a.arena, int(total))
	if err != nil || len(buf) == 0 {
		return nil
	}

	base := unsafe.Pointer(unsafe.SliceData(buf))
	offset := alignUp(uintptr(base), l.Align) - uintptr(base)
	p := unsafe.Add(base, offset)

	a.blocks[uintptr(p)] = block{buf: buf, layout: l}
	a.inUse += l.Size
	return p
}

// Dealloc releases a block returned by Alloc. It panics if p wasn't
// allocated by this arena or l doesn't match the layout it was allocated
// with. Dealloc(nil, l) does nothing.
func (a *Arena) Dealloc(p unsafe.Pointer, l sharedalloc.Layout) {
	if p == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.blocks[uintptr(p)]
	if !ok {
		panic(fmt.Sprintf("host: dealloc of pointer %p not allocated by this arena", p))
	}
	if b.layout != l {
		panic(fmt.Sprintf("host: dealloc of %p with layout %v, allocated with %v", p, l, b.layout))
	}

	delete(a.blocks, uintptr(p))
	a.inUse -= l.Size
	malloc.FreeSlice(a.arena, b.buf)
}

// Stats returns the arena's current outstanding allocations.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Live:  len(a.blocks),
		InUse: a.inUse,
	}
}

// Handle returns a handle that forwards to this arena.
func (a *Arena) Handle() sharedalloc.Handle {
	return sharedalloc.HandleFor(a)
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
