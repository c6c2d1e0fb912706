package exchange

import (
	"net/url"
	"strings"

	"github.com/brandonbloom/spie/input"
	"github.com/pkg/errors"
)

type BodyMode int

const (
	JSONMode BodyMode = iota
	FormMode
	RawMode
)

func (m BodyMode) String() string {
	switch m {
	case JSONMode:
		return "json"
	case FormMode:
		return "form"
	case RawMode:
		return "raw"
	default:
		return "unknown"
	}
}

type RawSource int

const (
	RawInline RawSource = iota
	RawData
	// RawFile is resolved into RawData by BuildPayload.
	RawFile
)

// RawBody is the value of --raw: inline text, bytes read from stdin or a
// file to be read.
type RawBody struct {
	Source RawSource
	Text   string
	Data   []byte
	Path   string
}

func InlineRawBody(s string) *RawBody {
	return &RawBody{Source: RawInline, Text: s}
}

func DataRawBody(b []byte) *RawBody {
	return &RawBody{Source: RawData, Data: b}
}

func FileRawBody(path string) *RawBody {
	return &RawBody{Source: RawFile, Path: path}
}

func (r *RawBody) Bytes() []byte {
	if r.Source == RawInline {
		return []byte(r.Text)
	}
	return r.Data
}

type HeaderPair struct {
	Name  string
	Value string
}

// Head is the request line and the user supplied header fields.
type Head struct {
	Method    string
	Scheme    string
	Authority string
	Path      string
	Header    []HeaderPair
}

// URL reassembles the target of the request.
func (h *Head) URL() (*url.URL, error) {
	u, err := url.Parse(h.Scheme + "://" + h.Authority + h.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid request target '%s://%s%s'", h.Scheme, h.Authority, h.Path)
	}
	return u, nil
}

// Values returns the values of all header fields named name.
func (h *Head) Values(name string) []string {
	var values []string
	for _, p := range h.Header {
		if strings.EqualFold(p.Name, name) {
			values = append(values, p.Value)
		}
	}
	return values
}

// RequestPayload is a fully resolved request, ready to be encoded and
// sent. Data holds only DataText and DataJSON values.
type RequestPayload struct {
	Request        Head
	Data           []input.DataField
	Files          []input.FileField
	HeaderRemovals []string
	BodyMode       BodyMode
	RawBody        *RawBody
}

func (p *RequestPayload) removes(name string) bool {
	for _, r := range p.HeaderRemovals {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// HasBody reports whether the payload carries anything to encode.
func (p *RequestPayload) HasBody() bool {
	if p.BodyMode == RawMode {
		return p.RawBody != nil
	}
	return len(p.Data) > 0 || len(p.Files) > 0
}

func (p *RequestPayload) clone() *RequestPayload {
	c := *p
	c.Request.Header = append([]HeaderPair(nil), p.Request.Header...)
	c.HeaderRemovals = append([]string(nil), p.HeaderRemovals...)
	return &c
}
