package sharedalloc

import "errors"

var (
	// ErrAlreadyInstalled is returned when a slot that already holds a
	// handle is published to again. The first handle stays installed.
	ErrAlreadyInstalled = errors.New("allocator already installed")

	// ErrVersionMismatch is returned for a handle built against a different
	// ABIVersion.
	ErrVersionMismatch = errors.New("allocator handle version mismatch")

	// ErrNilFunc is returned for a handle missing one of its functions.
	ErrNilFunc = errors.New("allocator handle has a nil function")

	// ErrInvalidLayout is returned when a size and alignment can't describe
	// a block.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrOutOfMemory is returned by the typed helpers when the installed
	// allocator returns nil.
	ErrOutOfMemory = errors.New("out of memory")
)
