package sharedalloc_test

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pboyd/sharedalloc"
	"github.com/pboyd/sharedalloc/host"
)

const processLimit = 1 << 20

var (
	processArena     *host.Arena
	processArenaOnce sync.Once
)

// installArena installs one arena for the whole test binary, since the
// process-wide allocator can only be set once.
func installArena(t *testing.T) *host.Arena {
	t.Helper()

	processArenaOnce.Do(func() {
		processArena = host.NewArena(host.WithLimit(processLimit))
		require.NoError(t, sharedalloc.SetAllocator(processArena.Handle()))
	})
	require.True(t, sharedalloc.Installed())
	return processArena
}

func TestSetAllocator_Twice(t *testing.T) {
	arena := installArena(t)

	other := host.NewArena()
	err := sharedalloc.SetAllocator(other.Handle())
	assert.ErrorIs(t, err, sharedalloc.ErrAlreadyInstalled)

	l := sharedalloc.LayoutOf[uint64]()
	p := sharedalloc.Alloc(l)
	require.NotNil(t, p)
	assert.Equal(t, 0, other.Stats().Live)
	assert.GreaterOrEqual(t, arena.Stats().Live, 1)
	sharedalloc.Dealloc(p, l)
}

func TestAllocDealloc(t *testing.T) {
	arena := installArena(t)
	before := arena.Stats()

	layouts := []sharedalloc.Layout{
		{Size: 1, Align: 1},
		{Size: 3, Align: 2},
		{Size: 24, Align: 8},
		{Size: 100, Align: 64},
		{Size: 4096, Align: 4096},
	}

	for _, l := range layouts {
		p := sharedalloc.Alloc(l)
		if !assert.NotNil(t, p, "layout %v", l) {
			continue
		}
		assert.Zero(t, uintptr(p)%l.Align, "layout %v", l)

		buf := unsafe.Slice((*byte)(p), l.Size)
		for i := range buf {
			buf[i] = byte(i)
		}
		sharedalloc.Dealloc(p, l)
	}

	assert.Equal(t, before, arena.Stats())
}

func TestAllocDealloc_Stress(t *testing.T) {
	arena := installArena(t)
	before := arena.Stats()

	l, err := sharedalloc.NewLayout(64, 16)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		p := sharedalloc.Alloc(l)
		require.NotNil(t, p)
		*(*uint64)(p) = uint64(i)
		sharedalloc.Dealloc(p, l)
	}

	assert.Equal(t, before, arena.Stats())
}

type point struct {
	X, Y int64
}

func TestNewFree(t *testing.T) {
	assert := assert.New(t)
	arena := installArena(t)
	before := arena.Stats()

	p, err := sharedalloc.New[point]()
	require.NoError(t, err)
	assert.Equal(point{}, *p)

	p.X, p.Y = 3, 4
	assert.Equal(before.Live+1, arena.Stats().Live)

	sharedalloc.Free(p)
	assert.Equal(before, arena.Stats())

	sharedalloc.Free[point](nil)

	empty, err := sharedalloc.New[struct{}]()
	assert.NoError(err)
	assert.NotNil(empty)
	assert.Equal(before, arena.Stats())
	sharedalloc.Free(empty)
}

func TestMakeSlice(t *testing.T) {
	assert := assert.New(t)
	arena := installArena(t)
	before := arena.Stats()

	s, err := sharedalloc.MakeSlice[uint32](100)
	require.NoError(t, err)
	assert.Len(s, 100)
	assert.Equal(100, cap(s))
	for _, v := range s {
		assert.Zero(v)
	}
	for i := range s {
		s[i] = uint32(i)
	}
	assert.Equal(before.InUse+400, arena.Stats().InUse)

	sharedalloc.FreeSlice(s[:10])
	assert.Equal(before, arena.Stats())

	s, err = sharedalloc.MakeSlice[uint32](0)
	assert.NoError(err)
	assert.Empty(s)
	sharedalloc.FreeSlice(s)

	_, err = sharedalloc.MakeSlice[uint32](-1)
	assert.ErrorIs(err, sharedalloc.ErrInvalidLayout)
	assert.Equal(before, arena.Stats())
}

func TestMakeSlice_OutOfMemory(t *testing.T) {
	arena := installArena(t)
	before := arena.Stats()

	_, err := sharedalloc.MakeSlice[byte](processLimit + 1)
	assert.ErrorIs(t, err, sharedalloc.ErrOutOfMemory)
	assert.Equal(t, before, arena.Stats())
}

func TestConcurrentAlloc(t *testing.T) {
	arena := installArena(t)
	before := arena.Stats()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				v, err := sharedalloc.New[point]()
				if !assert.NoError(t, err) {
					return
				}
				v.X = int64(j)
				sharedalloc.Free(v)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, before, arena.Stats())
}

const abortChildEnv = "SHAREDALLOC_ABORT_CHILD"

// The uninstalled cases run in a fresh copy of the test binary, because the
// expected outcome is the process dying.
func TestUninstalledUseAborts(t *testing.T) {
	l := sharedalloc.LayoutOf[uint64]()
	cases := map[string]func(){
		"alloc": func() {
			sharedalloc.Alloc(l)
		},
		"dealloc": func() {
			var v uint64
			sharedalloc.Dealloc(unsafe.Pointer(&v), l)
		},
		"new": func() {
			sharedalloc.New[point]()
		},
		"slot": func() {
			var slot sharedalloc.Slot
			slot.Alloc(l)
		},
		"recovered": func() {
			defer func() { recover() }()
			sharedalloc.Alloc(l)
		},
	}

	if name := os.Getenv(abortChildEnv); name != "" {
		cases[name]()
		os.Exit(0)
	}

	for name := range cases {
		t.Run(name, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=^TestUninstalledUseAborts$")
			cmd.Env = append(os.Environ(), abortChildEnv+"="+name)
			out, err := cmd.CombinedOutput()

			var exitErr *exec.ExitError
			require.True(t, errors.As(err, &exitErr), "child exited cleanly: %s", out)
			assert.False(t, exitErr.Success())
			assert.Contains(t, string(out), "allocator used before SetAllocator")
		})
	}
}
