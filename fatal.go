package sharedalloc

import (
	"fmt"
	"os"
)

// abortExitCode matches the status a shell reports for SIGABRT.
const abortExitCode = 134

// fatal reports a misuse and stops the process. Unlike a panic, it can't be
// recovered.
func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "sharedalloc: fatal error: %s\n", msg)
	abort()
}
