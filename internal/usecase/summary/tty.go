package summary

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsInteractive reports whether stdout is a TTY. Streaming output is only
// worth emitting chunk by chunk when a human is watching; in CI or when
// piped, callers should prefer the non-streaming path.
func IsInteractive() bool {
	return IsTTY(os.Stdout.Fd())
}
