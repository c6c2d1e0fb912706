package input

import "fmt"

type ParseErrorKind int

const (
	MissingURL ParseErrorKind = iota
	InvalidURL
	InvalidItem
	InvalidFile
	InvalidJSON
)

// ParseError is returned when the positional arguments cannot be turned
// into a request. All parse errors are usage errors.
type ParseError struct {
	Kind  ParseErrorKind
	Token string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case MissingURL:
		return "missing URL; provide a URL or shorthand"
	case InvalidURL:
		return fmt.Sprintf("invalid URL '%s'", e.Token)
	case InvalidItem:
		return fmt.Sprintf("invalid request item '%s'", e.Token)
	case InvalidFile:
		return fmt.Sprintf("invalid file reference '%s'", e.Token)
	case InvalidJSON:
		return fmt.Sprintf("invalid JSON value '%s'", e.Token)
	default:
		return fmt.Sprintf("unknown parse error '%s'", e.Token)
	}
}

// UsageError reports misuse of stdin-sourced items.
type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}
