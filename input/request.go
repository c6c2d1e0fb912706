package input

import "net/url"

// ParsedRequest is the result of parsing the positional arguments of a
// command line.
type ParsedRequest struct {
	Method Method
	// ExplicitMethod is false when Method was inferred from the items.
	ExplicitMethod bool
	URL            *url.URL
	Items          RequestItems
}

type Method string

// RequestItems holds the request items in the order they were given.
// Duplicates are preserved.
type RequestItems struct {
	Headers []HeaderField
	Data    []DataField
	Query   []QueryField
	Files   []FileField
}

type HeaderField struct {
	Name  string
	Value HeaderValue
}

type HeaderSource int

const (
	// HeaderLiteral is a header given inline (Name:value or Name;).
	HeaderLiteral HeaderSource = iota
	// HeaderAbsent removes the header entirely (Name:).
	HeaderAbsent
	HeaderFromFile
	HeaderFromStdin
)

type HeaderValue struct {
	Source HeaderSource
	Text   string // used only when Source == HeaderLiteral
	Path   string // used only when Source == HeaderFromFile
}

func LiteralHeader(s string) HeaderValue {
	return HeaderValue{Source: HeaderLiteral, Text: s}
}

type DataField struct {
	Name  string
	Value DataValue
}

type DataSource int

const (
	DataText DataSource = iota
	DataJSON
	DataTextFromFile
	DataJSONFromFile
	DataTextFromStdin
	DataJSONFromStdin
)

type DataValue struct {
	Source DataSource
	Text   string    // used only when Source == DataText
	JSON   JSONValue // used only when Source == DataJSON
	Path   string    // used only for the file sources
}

func TextData(s string) DataValue {
	return DataValue{Source: DataText, Text: s}
}

func JSONData(v JSONValue) DataValue {
	return DataValue{Source: DataJSON, JSON: v}
}

// IsJSON reports whether the value is (or will resolve to) a JSON literal.
func (v DataValue) IsJSON() bool {
	switch v.Source {
	case DataJSON, DataJSONFromFile, DataJSONFromStdin:
		return true
	default:
		return false
	}
}

// IsStdin reports whether the value still has to be read from stdin.
func (v DataValue) IsStdin() bool {
	return v.Source == DataTextFromStdin || v.Source == DataJSONFromStdin
}

type QueryField struct {
	Name   string
	Values []string
}

type FileField struct {
	Name string
	Path string
}

// UsesStdin reports whether any item of the request reads its value from
// stdin.
func (r *ParsedRequest) UsesStdin() bool {
	for _, h := range r.Items.Headers {
		if h.Value.Source == HeaderFromStdin {
			return true
		}
	}
	for _, d := range r.Items.Data {
		if d.Value.IsStdin() {
			return true
		}
	}
	return false
}
