package exchange

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brandonbloom/spie/input"
	"github.com/pkg/errors"
)

var (
	reToken = regexp.MustCompile("^[-!#$%&'*+.^_`|~a-zA-Z0-9]+$")
)

type BuildErrorKind int

const (
	InvalidMethod BuildErrorKind = iota
	UnsupportedURL
	InvalidHeaderName
	FileReadFailed
	StdinUnavailable
	JSONNotAllowedInForm
	FileUploadsRequireForm
	MissingRawBody
	RawBodyConflictsWithItems
)

// BuildError reports a request that cannot be sent as given. Subject names
// the offending method, URL, header or field.
type BuildError struct {
	Kind    BuildErrorKind
	Subject string
	Path    string
	Err     error
}

func (e *BuildError) Error() string {
	switch e.Kind {
	case InvalidMethod:
		return fmt.Sprintf("unsupported HTTP method '%s'", e.Subject)
	case UnsupportedURL:
		return fmt.Sprintf("unsupported URL '%s'", e.Subject)
	case InvalidHeaderName:
		return fmt.Sprintf("invalid header name '%s'", e.Subject)
	case FileReadFailed:
		return fmt.Sprintf("failed to read %s: %v (%s)", e.Subject, e.Err, e.Path)
	case StdinUnavailable:
		return fmt.Sprintf("%s requires stdin input, but it was not provided", e.Subject)
	case JSONNotAllowedInForm:
		return fmt.Sprintf("field '%s' uses JSON data which is not allowed with --form", e.Subject)
	case FileUploadsRequireForm:
		return "file uploads require --form"
	case MissingRawBody:
		return "--raw requires a request body value"
	case RawBodyConflictsWithItems:
		return "cannot mix --raw with request items"
	default:
		return fmt.Sprintf("cannot build request: %s", e.Subject)
	}
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func newBuildError(kind BuildErrorKind, subject string) error {
	return errors.WithStack(&BuildError{Kind: kind, Subject: subject})
}

// BuildPayload resolves the file sourced values of req and checks that its
// items fit the body mode. Stdin sourced values must have been expanded
// with input.ExpandStdin beforehand.
func BuildPayload(req *input.ParsedRequest, mode BodyMode, raw *RawBody) (*RequestPayload, error) {
	method := string(req.Method)
	if !reToken.MatchString(method) {
		return nil, newBuildError(InvalidMethod, method)
	}

	u := req.URL
	if u == nil || u.Scheme == "" || u.Hostname() == "" {
		subject := ""
		if u != nil {
			subject = u.String()
		}
		return nil, newBuildError(UnsupportedURL, subject)
	}

	p := &RequestPayload{
		Request: Head{
			Method:    method,
			Scheme:    u.Scheme,
			Authority: buildAuthority(u),
			Path:      buildPath(u),
		},
		Files:    req.Items.Files,
		BodyMode: mode,
	}

	if err := resolveHeaders(req.Items.Headers, p); err != nil {
		return nil, err
	}
	data, err := resolveData(req.Items.Data)
	if err != nil {
		return nil, err
	}
	p.Data = data

	if mode == FormMode {
		for _, field := range data {
			if field.Value.IsJSON() {
				return nil, newBuildError(JSONNotAllowedInForm, field.Name)
			}
		}
	}

	if mode == RawMode {
		if raw == nil {
			return nil, newBuildError(MissingRawBody, "")
		}
		if len(data) > 0 || len(req.Items.Files) > 0 {
			return nil, newBuildError(RawBodyConflictsWithItems, "")
		}
		resolved, err := resolveRawBody(raw)
		if err != nil {
			return nil, err
		}
		p.RawBody = resolved
	} else if len(req.Items.Files) > 0 && mode != FormMode {
		return nil, newBuildError(FileUploadsRequireForm, "")
	}

	return p, nil
}

func buildAuthority(u *url.URL) string {
	host := u.Hostname()
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(u.Hostname(), port)
	}
	if u.User != nil {
		return u.User.String() + "@" + host
	}
	return host
}

func buildPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

func resolveHeaders(fields []input.HeaderField, p *RequestPayload) error {
	for _, field := range fields {
		if !reToken.MatchString(field.Name) {
			return newBuildError(InvalidHeaderName, field.Name)
		}
		switch field.Value.Source {
		case input.HeaderLiteral:
			p.Request.Header = append(p.Request.Header, HeaderPair{Name: field.Name, Value: field.Value.Text})
		case input.HeaderAbsent:
			p.HeaderRemovals = append(p.HeaderRemovals, field.Name)
		case input.HeaderFromFile:
			text, err := readTextFile(field.Value.Path, fmt.Sprintf("header '%s'", field.Name))
			if err != nil {
				return err
			}
			p.Request.Header = append(p.Request.Header, HeaderPair{Name: field.Name, Value: input.TrimLineEnd(text)})
		case input.HeaderFromStdin:
			return newBuildError(StdinUnavailable, fmt.Sprintf("header '%s'", field.Name))
		default:
			return errors.Errorf("unknown header source: %v", field.Value.Source)
		}
	}
	return nil
}

func resolveData(fields []input.DataField) ([]input.DataField, error) {
	resolved := make([]input.DataField, 0, len(fields))
	for _, field := range fields {
		subject := fmt.Sprintf("field '%s'", field.Name)
		switch field.Value.Source {
		case input.DataText, input.DataJSON:
		case input.DataTextFromFile:
			text, err := readTextFile(field.Value.Path, subject)
			if err != nil {
				return nil, err
			}
			field.Value = input.TextData(text)
		case input.DataJSONFromFile:
			b, err := os.ReadFile(field.Value.Path)
			if err != nil {
				return nil, errors.WithStack(&BuildError{Kind: FileReadFailed, Subject: subject, Path: field.Value.Path, Err: err})
			}
			v, err := input.ParseJSON(b)
			if err != nil {
				return nil, errors.WithStack(&BuildError{Kind: FileReadFailed, Subject: subject, Path: field.Value.Path, Err: err})
			}
			field.Value = input.JSONData(v)
		case input.DataTextFromStdin, input.DataJSONFromStdin:
			return nil, newBuildError(StdinUnavailable, subject)
		default:
			return nil, errors.Errorf("unknown data source: %v", field.Value.Source)
		}
		resolved = append(resolved, field)
	}
	return resolved, nil
}

func resolveRawBody(raw *RawBody) (*RawBody, error) {
	if raw.Source != RawFile {
		return raw, nil
	}
	b, err := os.ReadFile(raw.Path)
	if err != nil {
		return nil, errors.WithStack(&BuildError{Kind: FileReadFailed, Subject: "raw body", Path: raw.Path, Err: err})
	}
	return DataRawBody(b), nil
}

func readTextFile(path, subject string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WithStack(&BuildError{Kind: FileReadFailed, Subject: subject, Path: path, Err: err})
	}
	if !utf8.Valid(b) {
		return "", errors.WithStack(&BuildError{
			Kind:    FileReadFailed,
			Subject: subject,
			Path:    path,
			Err:     errors.New("file is not valid UTF-8"),
		})
	}
	return string(b), nil
}
