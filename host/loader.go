package host

import (
	"errors"
	"fmt"
	"plugin"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pboyd/sharedalloc"
)

// SetAllocatorSymbol is the name a plugin exports its installer under.
const SetAllocatorSymbol = "SetAllocator"

// ErrBadSymbol is returned when a plugin exports SetAllocator with the wrong
// type.
var ErrBadSymbol = errors.New("SetAllocator has the wrong type")

// Lookuper is a plugin symbol table. *plugin.Plugin implements it.
type Lookuper interface {
	Lookup(symName string) (plugin.Symbol, error)
}

// handleKey identifies the handle a Loader installs. Handles hold funcs, which
// can't be compared.
type handleKey struct {
	_ byte
}

var (
	// defaultHandleKey is shared by every Loader installing GetAllocator().
	defaultHandleKey = &handleKey{}

	// installedKey records which handle a Loader installed in the process.
	installedKey atomic.Pointer[handleKey]
)

// Loader opens Go plugins and installs a host allocator in each one before
// returning it.
type Loader struct {
	logger *zap.Logger
	handle sharedalloc.Handle
	key    *handleKey
}

// NewLoader returns a Loader that installs GetAllocator() unless configured
// otherwise.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger: Logger(),
		handle: GetAllocator(),
		key:    defaultHandleKey,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load opens the plugin at path and installs the loader's handle through
// its exported SetAllocator. Nothing else in the plugin should be used until
// Load returns successfully.
//
// Go runs a plugin's package init functions inside plugin.Open, before
// SetAllocator can be called, so plugins must not allocate through
// sharedalloc from init.
//
// Packages imported by both the host and a plugin are loaded once, so every
// plugin after the first finds the process slot already filled. That's only
// accepted when a Loader installed the same handle. Loaders created without
// WithHandle share GetAllocator(); each WithHandle counts as a new handle.
// If anything else filled the slot, Load fails with
// sharedalloc.ErrAlreadyInstalled.
func (l *Loader) Load(path string) (*plugin.Plugin, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening plugin %s: %w", path, err)
	}

	err = l.install(path, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Loader) install(path string, syms Lookuper) error {
	err := Install(syms, l.handle)
	switch {
	case err == nil:
		installedKey.CompareAndSwap(nil, l.key)
		l.logger.Debug("installed allocator",
			zap.String("path", path),
			zap.Uint32("abi_version", l.handle.Version))
		return nil

	case errors.Is(err, sharedalloc.ErrAlreadyInstalled) && installedKey.Load() == l.key:
		l.logger.Debug("allocator already installed",
			zap.String("path", path))
		return nil
	}

	l.logger.Error("unable to install allocator",
		zap.String("path", path),
		zap.Error(err))
	return fmt.Errorf("error installing allocator in %s: %w", path, err)
}

// Install finds SetAllocator in syms and calls it with h. The symbol may be
// an exported function or an exported function variable.
func Install(syms Lookuper, h sharedalloc.Handle) error {
	sym, err := syms.Lookup(SetAllocatorSymbol)
	if err != nil {
		return err
	}

	var setAllocator func(sharedalloc.Handle) error
	switch fn := sym.(type) {
	case func(sharedalloc.Handle) error:
		setAllocator = fn
	case *func(sharedalloc.Handle) error:
		if fn == nil || *fn == nil {
			return fmt.Errorf("%w: nil function variable", ErrBadSymbol)
		}
		setAllocator = *fn
	default:
		return fmt.Errorf("%w: %T", ErrBadSymbol, sym)
	}

	return setAllocator(h)
}
