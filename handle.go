package sharedalloc

import (
	"errors"
	"fmt"
	"unsafe"
)

// ABIVersion tags every Handle. A plugin refuses handles carrying any other
// version, so a change to AllocFunc or DeallocFunc must bump it.
const ABIVersion uint32 = 1

// AllocFunc returns a block matching l, or nil if the allocator can't
// satisfy the request.
type AllocFunc func(l Layout) unsafe.Pointer

// DeallocFunc releases a block previously returned by the paired AllocFunc
// with the same layout.
type DeallocFunc func(p unsafe.Pointer, l Layout)

// Handle describes one allocator instance. Alloc and Dealloc must come from
// the same allocator; nothing can check that at runtime, and a mismatched
// pair is undefined behavior. Use HandleFor to build one from an Allocator.
//
// The fields are in a fixed order and the struct is passed by value across
// the plugin boundary.
type Handle struct {
	Version uint32
	Alloc   AllocFunc
	Dealloc DeallocFunc
}

// Allocator is implemented by anything that can back a Handle.
type Allocator interface {
	Alloc(l Layout) unsafe.Pointer
	Dealloc(p unsafe.Pointer, l Layout)
}

// HandleFor returns a Handle forwarding to a. The returned functions hold a
// reference to a, so a must stay usable for as long as the handle is
// installed.
func HandleFor(a Allocator) Handle {
	return Handle{
		Version: ABIVersion,
		Alloc:   a.Alloc,
		Dealloc: a.Dealloc,
	}
}

// Validate reports every problem with h, or nil if h can be installed.
func (h Handle) Validate() error {
	errs := []error{}
	if h.Version != ABIVersion {
		errs = append(errs, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, h.Version, ABIVersion))
	}
	if h.Alloc == nil {
		errs = append(errs, fmt.Errorf("%w: alloc", ErrNilFunc))
	}
	if h.Dealloc == nil {
		errs = append(errs, fmt.Errorf("%w: dealloc", ErrNilFunc))
	}

	return errors.Join(errs...)
}
