package input

import (
	"strings"

	"github.com/pkg/errors"
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	emptyHeaderItem
	urlParameterItem
	dataFieldItem
	rawJSONFieldItem
	formFileFieldItem
)

const stdinMarker = "-"

type separator struct {
	itemType itemType
	index    int
	width    int
}

// findSeparator looks for the first unescaped ":=", "==", ":" or "=".
// At any position the two-character separators win over the
// one-character ones.
func findSeparator(s string) (separator, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != ':' && c != '=' {
			continue
		}
		if isEscaped(s, i) {
			continue
		}
		if i+1 < len(s) && s[i+1] == '=' {
			if c == ':' {
				return separator{itemType: rawJSONFieldItem, index: i, width: 2}, true
			}
			return separator{itemType: urlParameterItem, index: i, width: 2}, true
		}
		if c == ':' {
			return separator{itemType: httpHeaderItem, index: i, width: 1}, true
		}
		return separator{itemType: dataFieldItem, index: i, width: 1}, true
	}
	return separator{}, false
}

// splitItem classifies s and returns the still-escaped key and value.
func splitItem(s string) (itemType, string, string) {
	sep, found := findSeparator(s)

	// "@" only starts a file upload when no other separator precedes it;
	// otherwise it belongs to the value ("Name:@path", "name=@-", ...).
	if at := firstUnescaped(s, '@'); at >= 0 && (!found || at < sep.index) {
		return formFileFieldItem, s[:at], s[at+1:]
	}

	if last := len(s) - 1; last > 0 && s[last] == ';' && !isEscaped(s, last) {
		return emptyHeaderItem, s[:last], ""
	}

	if !found {
		return unknownItem, "", ""
	}
	return sep.itemType, s[:sep.index], s[sep.index+sep.width:]
}

func parseItem(s string, req *ParsedRequest) error {
	itemType, key, value := splitItem(s)
	switch itemType {
	case formFileFieldItem:
		name := unescape(key)
		path := unescape(value)
		if name == "" || path == "" {
			return errors.WithStack(&ParseError{Kind: InvalidFile, Token: s})
		}
		req.Items.Files = append(req.Items.Files, FileField{Name: name, Path: path})
	case emptyHeaderItem:
		req.Items.Headers = append(req.Items.Headers, HeaderField{
			Name:  unescape(key),
			Value: LiteralHeader(""),
		})
	case httpHeaderItem:
		v, err := parseHeaderValue(s, value)
		if err != nil {
			return err
		}
		req.Items.Headers = append(req.Items.Headers, HeaderField{Name: unescape(key), Value: v})
	case dataFieldItem:
		v, err := parseDataValue(s, value)
		if err != nil {
			return err
		}
		req.Items.Data = append(req.Items.Data, DataField{Name: unescape(key), Value: v})
	case rawJSONFieldItem:
		v, err := parseRawJSONValue(s, value)
		if err != nil {
			return err
		}
		req.Items.Data = append(req.Items.Data, DataField{Name: unescape(key), Value: v})
	case urlParameterItem:
		req.Items.Query = appendQueryField(req.Items.Query, unescape(key), unescape(value))
	default:
		return errors.WithStack(&ParseError{Kind: InvalidItem, Token: s})
	}
	return nil
}

// valueSource inspects a raw value for a leading "@" and returns the
// unescaped path behind it. "-" stands for stdin.
func valueSource(token, raw string) (path string, sourced bool, err error) {
	if !strings.HasPrefix(raw, "@") {
		return "", false, nil
	}
	path = unescape(raw[1:])
	if path == "" {
		return "", false, errors.WithStack(&ParseError{Kind: InvalidFile, Token: token})
	}
	return path, true, nil
}

func parseHeaderValue(token, raw string) (HeaderValue, error) {
	if raw == "" {
		return HeaderValue{Source: HeaderAbsent}, nil
	}
	path, sourced, err := valueSource(token, raw)
	if err != nil {
		return HeaderValue{}, err
	}
	switch {
	case !sourced:
		return LiteralHeader(unescape(raw)), nil
	case path == stdinMarker:
		return HeaderValue{Source: HeaderFromStdin}, nil
	default:
		return HeaderValue{Source: HeaderFromFile, Path: path}, nil
	}
}

func parseDataValue(token, raw string) (DataValue, error) {
	path, sourced, err := valueSource(token, raw)
	if err != nil {
		return DataValue{}, err
	}
	switch {
	case !sourced:
		return TextData(unescape(raw)), nil
	case path == stdinMarker:
		return DataValue{Source: DataTextFromStdin}, nil
	default:
		return DataValue{Source: DataTextFromFile, Path: path}, nil
	}
}

func parseRawJSONValue(token, raw string) (DataValue, error) {
	path, sourced, err := valueSource(token, raw)
	if err != nil {
		return DataValue{}, err
	}
	switch {
	case !sourced:
		v, err := parseJSONLiteral(raw)
		if err != nil {
			return DataValue{}, err
		}
		return JSONData(v), nil
	case path == stdinMarker:
		return DataValue{Source: DataJSONFromStdin}, nil
	default:
		return DataValue{Source: DataJSONFromFile, Path: path}, nil
	}
}

func parseJSONLiteral(raw string) (JSONValue, error) {
	v, err := ParseJSON([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return nil, errors.WithStack(&ParseError{Kind: InvalidJSON, Token: raw})
	}
	return v, nil
}

func appendQueryField(fields []QueryField, name, value string) []QueryField {
	for i := range fields {
		if fields[i].Name == name {
			fields[i].Values = append(fields[i].Values, value)
			return fields
		}
	}
	return append(fields, QueryField{Name: name, Values: []string{value}})
}
