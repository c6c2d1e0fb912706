package input

import (
	"strings"

	"github.com/pkg/errors"
)

// StdinSource is the process's standard input as seen by the request
// pipeline.
type StdinSource interface {
	IsInteractive() bool
	ReadAll() ([]byte, error)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

// ExpandStdin returns a copy of req in which every header and data value
// sourced from stdin ("Name:@-", "name=@-", "name:=@-") carries the stdin
// contents. Stdin is read at most once; every reference sees the same
// bytes. A nil src means stdin must not be touched.
func ExpandStdin(req *ParsedRequest, src StdinSource) (*ParsedRequest, error) {
	if !req.UsesStdin() {
		return req, nil
	}
	if src == nil {
		return nil, newUsageError("stdin is disabled by --ignore-stdin")
	}

	b, err := src.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read stdin")
	}
	text := string(b)

	expanded := *req
	expanded.Items.Headers = make([]HeaderField, len(req.Items.Headers))
	for i, h := range req.Items.Headers {
		if h.Value.Source == HeaderFromStdin {
			h.Value = LiteralHeader(TrimLineEnd(text))
		}
		expanded.Items.Headers[i] = h
	}

	expanded.Items.Data = make([]DataField, len(req.Items.Data))
	for i, d := range req.Items.Data {
		switch d.Value.Source {
		case DataTextFromStdin:
			d.Value = TextData(text)
		case DataJSONFromStdin:
			v, err := parseJSONLiteral(text)
			if err != nil {
				return nil, err
			}
			d.Value = JSONData(v)
		}
		expanded.Items.Data[i] = d
	}
	return &expanded, nil
}

// TrimLineEnd drops a single trailing newline (LF or CRLF), as left by
// "echo" or a text editor.
func TrimLineEnd(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
