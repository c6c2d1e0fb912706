//go:build windows
// +build windows

package flags

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// AskPassword reads the password of user from the console without echo.
func AskPassword(user string) (string, error) {
	fmt.Fprintf(os.Stderr, passwordPrompt, user)
	fd := int(os.Stdin.Fd())
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
