// Package host is the host side of sharedalloc.
//
// GetAllocator describes the host's allocator, an mmap backed Arena, as a
// sharedalloc.Handle. A Loader opens Go plugins and passes that handle to
// each plugin's exported SetAllocator before anything else in the plugin
// runs.
package host
