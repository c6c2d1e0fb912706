package input

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	reMethod    = regexp.MustCompile("^[-!#$%&'*+.^_`|~a-zA-Z0-9]+$")
	reUppercase = regexp.MustCompile(`[A-Z]`)

	standardMethods = map[string]bool{
		"GET":     true,
		"POST":    true,
		"PUT":     true,
		"PATCH":   true,
		"DELETE":  true,
		"HEAD":    true,
		"OPTIONS": true,
		"TRACE":   true,
		"CONNECT": true,
	}
)

// Options configures how the URL argument is interpreted.
type Options struct {
	// DefaultScheme is prepended to URLs without "://". Defaults to "http".
	DefaultScheme string
	// BaseURL, when set, is used to resolve URLs starting with "/".
	BaseURL *url.URL
}

func (o *Options) scheme() string {
	if o == nil || o.DefaultScheme == "" {
		return "http"
	}
	return o.DefaultScheme
}

// ParseArgs parses "[METHOD] URL [REQUEST_ITEM ...]".
func ParseArgs(args []string, options *Options) (*ParsedRequest, error) {
	var method Method
	if len(args) > 0 {
		if m, ok := parseMethod(args[0]); ok {
			method = m
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return nil, errors.WithStack(&ParseError{Kind: MissingURL})
	}

	u, err := parseURL(args[0], options)
	if err != nil {
		return nil, err
	}

	req := &ParsedRequest{URL: u}
	req.Items.Query = splitQuery(u.RawQuery)
	native := len(req.Items.Query)
	nativeValues := countValues(req.Items.Query)

	for _, arg := range args[1:] {
		if err := parseItem(arg, req); err != nil {
			return nil, err
		}
	}

	// Rebuild the query only when items added to it, so that a URL given
	// without query items goes out exactly as written.
	if len(req.Items.Query) != native || countValues(req.Items.Query) != nativeValues {
		u.RawQuery = encodeQuery(req.Items.Query)
	}

	if method != "" {
		req.Method = method
		req.ExplicitMethod = true
	} else {
		req.Method = guessMethod(req)
	}
	return req, nil
}

// parseMethod accepts a token made of RFC 7230 token characters if it
// contains an uppercase letter or is one of the standard verbs.
func parseMethod(s string) (Method, bool) {
	s = strings.TrimSpace(s)
	if !reMethod.MatchString(s) {
		return "", false
	}
	upper := strings.ToUpper(s)
	if reUppercase.MatchString(s) || standardMethods[upper] {
		return Method(upper), true
	}
	return "", false
}

func guessMethod(req *ParsedRequest) Method {
	if len(req.Items.Data) > 0 || len(req.Items.Files) > 0 {
		return Method("POST")
	}
	return Method("GET")
}

func parseURL(s string, options *Options) (*url.URL, error) {
	normalized, err := normalizeURL(s, options)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, errors.WithStack(&ParseError{Kind: InvalidURL, Token: s})
	}
	return u, nil
}

func normalizeURL(s string, options *Options) (string, error) {
	prefix := options.scheme() + "://"

	// ex) :8080/hello, :/hello or ::1
	if strings.HasPrefix(s, ":") {
		return expandLocalhost(s, prefix), nil
	}

	if strings.Contains(s, "://") {
		return s, nil
	}

	// ex) /hello with a base URL
	if strings.HasPrefix(s, "/") && options != nil && options.BaseURL != nil {
		ref, err := url.Parse(s)
		if err != nil {
			return "", errors.WithStack(&ParseError{Kind: InvalidURL, Token: s})
		}
		return options.BaseURL.ResolveReference(ref).String(), nil
	}

	// ex) example.com/hello
	return prefix + s, nil
}

func expandLocalhost(s, prefix string) string {
	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, ":"):
		return prefix + s
	case rest == "":
		return prefix + "localhost"
	case strings.HasPrefix(rest, "/"):
		return prefix + "localhost" + rest
	default:
		return prefix + "localhost:" + rest
	}
}

// splitQuery splits a raw query into fields, keeping names in order of
// first appearance.
func splitQuery(rawQuery string) []QueryField {
	var fields []QueryField
	if rawQuery == "" {
		return fields
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value := pair, ""
		if i := strings.IndexByte(pair, '='); i >= 0 {
			name, value = pair[:i], pair[i+1:]
		}
		fields = appendQueryField(fields, queryUnescape(name), queryUnescape(value))
	}
	return fields
}

func queryUnescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// encodeQuery is like url.Values.Encode but does not sort the names.
func encodeQuery(fields []QueryField) string {
	var b strings.Builder
	for _, f := range fields {
		for _, v := range f.Values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(f.Name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func countValues(fields []QueryField) int {
	n := 0
	for _, f := range fields {
		n += len(f.Values)
	}
	return n
}
