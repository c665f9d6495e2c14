package sharedalloc

import "unsafe"

// process is the slot behind the package-level functions. A plugin installs
// the host's handle here once, from its exported SetAllocator.
var process Slot

// SetAllocator installs h as the allocator for the whole process. It must be
// called once, before anything calls Alloc, Dealloc or the typed helpers. A
// second call returns ErrAlreadyInstalled and leaves the first handle in
// place.
//
// A plugin exports it from its main package so the host can find it:
//
//	func SetAllocator(h sharedalloc.Handle) error {
//		return sharedalloc.SetAllocator(h)
//	}
func SetAllocator(h Handle) error {
	return process.Publish(h)
}

// Installed reports whether SetAllocator has succeeded.
func Installed() bool {
	return process.Installed()
}

// Alloc allocates a block through the installed allocator. It returns nil if
// the allocator does. Alloc aborts the process if SetAllocator hasn't been
// called.
func Alloc(l Layout) unsafe.Pointer {
	return process.Alloc(l)
}

// Dealloc frees a block returned by Alloc. l must be the layout it was
// allocated with. Dealloc aborts the process if SetAllocator hasn't been
// called.
func Dealloc(p unsafe.Pointer, l Layout) {
	process.Dealloc(p, l)
}
