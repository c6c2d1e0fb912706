//go:build !windows
// +build !windows

package flags

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// AskPassword reads the password of user from the terminal without echo.
func AskPassword(user string) (string, error) {
	var fd int
	if terminal.IsTerminal(syscall.Stdin) {
		fd = syscall.Stdin
	} else {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", errors.Wrap(err, "failed to allocate terminal")
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	fmt.Fprintf(os.Stderr, passwordPrompt, user)
	password, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err == io.EOF {
		return "", usageErrorf("password prompt cancelled")
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}
	return string(password), nil
}
