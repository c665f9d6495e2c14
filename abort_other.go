//go:build !unix

package sharedalloc

import "os"

func abort() {
	os.Exit(abortExitCode)
}
