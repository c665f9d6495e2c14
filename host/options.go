package host

import (
	"go.uber.org/zap"

	"github.com/pboyd/sharedalloc"
)

// Option configures an Arena.
type Option func(*Arena)

// WithInitialSize sets how many bytes the arena maps up front. Values less
// than 1 are ignored.
func WithInitialSize(size int) Option {
	return func(a *Arena) {
		if size > 0 {
			a.initialSize = size
		}
	}
}

// WithLimit caps the total requested size of live blocks. Allocations past
// the limit return nil. Zero means no limit.
func WithLimit(limit uintptr) Option {
	return func(a *Arena) {
		a.limit = limit
	}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader's logger. By default it uses Logger().
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithHandle sets the handle installed into every plugin the loader opens.
// By default it's GetAllocator(). The handle is treated as distinct from
// every other Loader's, even one built from the same allocator.
func WithHandle(h sharedalloc.Handle) LoaderOption {
	return func(l *Loader) {
		l.handle = h
		l.key = &handleKey{}
	}
}
