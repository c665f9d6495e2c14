package sharedalloc

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// testAllocator hands out Go heap memory and keeps each buffer referenced
// until it's freed so the collector leaves it alone.
type testAllocator struct {
	mu     sync.Mutex
	blocks map[uintptr][]byte

	fail     atomic.Bool
	allocs   atomic.Int64
	deallocs atomic.Int64
}

func newTestAllocator() *testAllocator {
	return &testAllocator{blocks: map[uintptr][]byte{}}
}

func (ta *testAllocator) Alloc(l Layout) unsafe.Pointer {
	ta.allocs.Add(1)
	if ta.fail.Load() {
		return nil
	}

	buf := make([]byte, l.Size+l.Align)
	base := unsafe.Pointer(unsafe.SliceData(buf))
	p := unsafe.Add(base, (l.Align-uintptr(base)%l.Align)%l.Align)

	ta.mu.Lock()
	defer ta.mu.Unlock()
	ta.blocks[uintptr(p)] = buf
	return p
}

func (ta *testAllocator) Dealloc(p unsafe.Pointer, l Layout) {
	ta.deallocs.Add(1)

	ta.mu.Lock()
	defer ta.mu.Unlock()
	if _, ok := ta.blocks[uintptr(p)]; !ok {
		panic(fmt.Sprintf("dealloc of unknown pointer %p", p))
	}
	delete(ta.blocks, uintptr(p))
}

func (ta *testAllocator) live() int {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	return len(ta.blocks)
}
