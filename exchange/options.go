package exchange

import "time"

// Options gathers everything the command line decides about how the
// request is sent.
type Options struct {
	Transport TransportOptions
	Redirect  RedirectOptions
	Auth      AuthOptions
	// AcceptJSON adds "Accept: application/json, */*;q=0.5" unless the
	// user supplied or removed Accept.
	AcceptJSON bool
}

type Verification int

const (
	VerifyEnforced Verification = iota
	VerifyDisabled
)

type HTTPVersion int

const (
	HTTPAutomatic HTTPVersion = iota
	HTTP1Only
)

type TransportOptions struct {
	// Timeout of a single hop. Zero means no timeout.
	Timeout     time.Duration
	Verify      Verification
	HTTPVersion HTTPVersion
}

type RedirectOptions struct {
	Follow       bool
	MaxRedirects int
}

const DefaultMaxRedirects = 30

func DefaultRedirectOptions() RedirectOptions {
	return RedirectOptions{MaxRedirects: DefaultMaxRedirects}
}

type AuthOptions struct {
	Enabled  bool
	Type     AuthType
	UserName string
	Password string
	// HasPassword is false for "-a user", which asks for the password.
	HasPassword bool
}
