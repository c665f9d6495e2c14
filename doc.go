// Share one allocator between a host and the plugins it loads
//
// A plugin that hands memory to its host, or frees memory the host gave it,
// has to use the same allocator as the host. This package is the plugin
// side: the host passes a Handle describing its allocator to the plugin's
// exported SetAllocator once, right after loading it, and from then on Alloc,
// Dealloc, New, MakeSlice and friends all go through the host's functions.
//
// The host side lives in the host package:
//
//	p, err := host.NewLoader().Load("plugin.so")
//
// Rules:
//   - SetAllocator is called exactly once, before the plugin allocates.
//     Later calls fail with ErrAlreadyInstalled.
//   - Allocating or freeing before SetAllocator aborts the process.
//   - Memory from the typed helpers isn't seen by the garbage collector, so
//     it must not hold Go pointers.
package sharedalloc
