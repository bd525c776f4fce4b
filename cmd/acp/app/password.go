package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// readOperatorPassword reads the operator's password from a piped stdin, or
// interactively with echo disabled when stdin is a terminal.
func readOperatorPassword() (string, error) {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	}

	fmt.Fprint(os.Stderr, "Enter password: ")
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password from terminal: %w", err)
	}
	return string(data), nil
}
