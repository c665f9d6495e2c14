package sharedalloc

import (
	"sync/atomic"
	"unsafe"
)

// Slot holds at most one installed Handle. The zero value is empty and ready
// to use.
//
// The handle is stored as one pointer to an immutable copy, so a reader that
// sees the slot as installed always sees both functions from the same
// Publish. Once installed the slot never changes again.
type Slot struct {
	h atomic.Pointer[Handle]
}

// Publish installs h. It fails if h is invalid or if the slot already holds
// a handle, in which case the existing handle is kept.
func (s *Slot) Publish(h Handle) error {
	if err := h.Validate(); err != nil {
		return err
	}

	installed := h
	if !s.h.CompareAndSwap(nil, &installed) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Installed reports whether Publish has succeeded.
func (s *Slot) Installed() bool {
	return s.h.Load() != nil
}

// Alloc forwards to the installed handle's Alloc. A nil result from the
// allocator is returned unchanged. Calling Alloc on an empty slot aborts the
// process.
func (s *Slot) Alloc(l Layout) unsafe.Pointer {
	return s.handle().Alloc(l)
}

// Dealloc forwards to the installed handle's Dealloc. Calling Dealloc on an
// empty slot aborts the process.
func (s *Slot) Dealloc(p unsafe.Pointer, l Layout) {
	s.handle().Dealloc(p, l)
}

func (s *Slot) handle() *Handle {
	h := s.h.Load()
	if h == nil {
		fatal("allocator used before SetAllocator")
	}
	return h
}
