package exchange

import (
	"context"
	"strings"
)

// Transport sends one hop and returns its response. Redirects are never
// followed by a Transport.
type Transport interface {
	Send(ctx context.Context, p *RequestPayload, options TransportOptions) (*ResponsePayload, error)
}

type ResponseBodyKind int

const (
	NoBody ResponseBodyKind = iota
	TextBody
	DataBody
)

type ResponseBody struct {
	Kind ResponseBodyKind
	Text string
	Data []byte
}

func (b ResponseBody) Bytes() []byte {
	switch b.Kind {
	case TextBody:
		return []byte(b.Text)
	case DataBody:
		return b.Data
	default:
		return nil
	}
}

type ResponsePayload struct {
	Status int
	Reason string
	Proto  string
	Header []HeaderPair
	Body   ResponseBody
}

// HeaderValue returns the first value of the header field named name.
func (r *ResponsePayload) HeaderValue(name string) (string, bool) {
	for _, h := range r.Header {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

type TransportErrorKind int

const (
	// NetworkError covers connectivity problems and timeouts.
	NetworkError TransportErrorKind = iota
	// InternalFailure covers everything else, such as an unreadable upload.
	InternalFailure
)

type TransportError struct {
	Kind    TransportErrorKind
	Message string
}

func (e *TransportError) Error() string {
	return e.Message
}
