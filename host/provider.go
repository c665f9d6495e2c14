package host

import (
	"sync"
	"unsafe"

	"github.com/pboyd/sharedalloc"
)

var (
	defaultArena     *Arena
	defaultArenaOnce sync.Once
)

// Default returns the process-wide arena behind GetAllocator.
func Default() *Arena {
	defaultArenaOnce.Do(func() {
		defaultArena = NewArena()
	})
	return defaultArena
}

// GetAllocator returns the handle a host passes to its plugins. The
// functions in it are package-level functions forwarding to Default(), so
// the handle stays valid for the life of the process no matter when, or how
// often, it's used.
func GetAllocator() sharedalloc.Handle {
	return sharedalloc.Handle{
		Version: sharedalloc.ABIVersion,
		Alloc:   hostAlloc,
		Dealloc: hostDealloc,
	}
}

func hostAlloc(l sharedalloc.Layout) unsafe.Pointer {
	return Default().Alloc(l)
}

func hostDealloc(p unsafe.Pointer, l sharedalloc.Layout) {
	Default().Dealloc(p, l)
}
