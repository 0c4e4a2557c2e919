package summary

import (
	"os"
	"testing"
)

func TestIsTTY(t *testing.T) {
	// Depends on the environment: false in CI, true in an interactive
	// terminal. Only verify it does not panic.
	result := IsTTY(os.Stdin.Fd())
	t.Logf("IsTTY(stdin) = %v", result)
}

func TestIsTTY_NonTerminalFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	defer f.Close()

	if IsTTY(f.Fd()) {
		t.Error("regular file should not be detected as a TTY")
	}
}

func TestIsInteractive(t *testing.T) {
	result := IsInteractive()
	t.Logf("IsInteractive() = %v", result)
}
