package exchange

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

type AuthType int

const (
	BasicAuth AuthType = iota
	BearerAuth
)

func (a AuthType) String() string {
	switch a {
	case BasicAuth:
		return "basic"
	case BearerAuth:
		return "bearer"
	default:
		return "unknown"
	}
}

// ParseAuthType parses the value of --auth-type.
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(s) {
	case "basic":
		return BasicAuth, nil
	case "bearer":
		return BearerAuth, nil
	default:
		return BasicAuth, errors.Errorf("unsupported auth type '%s'", s)
	}
}

// AuthorizationValue returns the Authorization header value for auth.
// For bearer auth the user name holds the token.
func AuthorizationValue(auth AuthOptions) string {
	switch auth.Type {
	case BearerAuth:
		return "Bearer " + auth.UserName
	default:
		credential := auth.UserName + ":" + auth.Password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(credential))
	}
}

// ApplyAuthorization returns a copy of p whose Authorization header is
// value, replacing any supplied or removed one.
func ApplyAuthorization(p *RequestPayload, value string) *RequestPayload {
	updated := p.clone()

	header := updated.Request.Header[:0]
	for _, h := range updated.Request.Header {
		if !strings.EqualFold(h.Name, "Authorization") {
			header = append(header, h)
		}
	}
	updated.Request.Header = append(header, HeaderPair{Name: "Authorization", Value: value})

	removals := updated.HeaderRemovals[:0]
	for _, name := range updated.HeaderRemovals {
		if !strings.EqualFold(name, "Authorization") {
			removals = append(removals, name)
		}
	}
	updated.HeaderRemovals = removals
	return updated
}
