//go:build unix

package host

import "golang.org/x/sys/unix"

const (
	arenaProt     = unix.PROT_READ | unix.PROT_WRITE
	arenaMapFlags = 0
)
