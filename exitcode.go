package spie

import (
	"github.com/brandonbloom/spie/config"
	"github.com/brandonbloom/spie/exchange"
	"github.com/brandonbloom/spie/flags"
	"github.com/brandonbloom/spie/input"
	"github.com/pkg/errors"
)

const (
	ExitSuccess          = 0
	ExitError            = 1
	ExitRedirection      = 3
	ExitClientError      = 4
	ExitServerError      = 5
	ExitTooManyRedirects = 6
	// ExitUsage is EX_USAGE of sysexits.h.
	ExitUsage = 64
)

// statusExitCode maps the final status to the exit code of --check-status.
func statusExitCode(status int) int {
	switch {
	case status >= 300 && status < 400:
		return ExitRedirection
	case status >= 400 && status < 500:
		return ExitClientError
	case status >= 500 && status < 600:
		return ExitServerError
	default:
		return ExitSuccess
	}
}

// classifyError returns the exit code for err and the message printed on
// stderr.
func classifyError(err error) (int, string) {
	var (
		flagsErr     *flags.UsageError
		inputErr     *input.UsageError
		parseErr     *input.ParseError
		buildErr     *exchange.BuildError
		configErr    *config.Error
		transportErr *exchange.TransportError
	)
	switch {
	case errors.As(err, &transportErr):
		return ExitError, "transport error: " + transportErr.Message
	case errors.Is(err, exchange.ErrTooManyRedirects):
		return ExitTooManyRedirects, "error: " + err.Error()
	case errors.As(err, &flagsErr):
		return ExitUsage, "error: " + flagsErr.Error()
	case errors.As(err, &inputErr):
		return ExitUsage, "error: " + inputErr.Error()
	case errors.As(err, &parseErr):
		return ExitUsage, "error: " + parseErr.Error()
	case errors.As(err, &buildErr):
		return ExitUsage, "error: " + buildErr.Error()
	case errors.As(err, &configErr):
		return ExitUsage, "error: " + configErr.Error()
	default:
		return ExitError, "error: " + err.Error()
	}
}
