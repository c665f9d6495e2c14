//go:build windows

package host

import "golang.org/x/sys/windows"

const (
	arenaProt     = windows.PAGE_READWRITE
	arenaMapFlags = 0
)
