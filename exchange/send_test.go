package exchange

import (
	"context"
	"testing"

	"github.com/brandonbloom/spie/input"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	responses []*ResponsePayload
	errAt     int
	sent      []*RequestPayload
}

func (r *recordingTransport) Send(_ context.Context, p *RequestPayload, _ TransportOptions) (*ResponsePayload, error) {
	r.sent = append(r.sent, p)
	if r.errAt > 0 && len(r.sent) == r.errAt {
		return nil, &TransportError{Kind: NetworkError, Message: "connection refused"}
	}
	i := len(r.sent) - 1
	if i >= len(r.responses) {
		return r.responses[len(r.responses)-1], nil
	}
	return r.responses[i], nil
}

func redirectTo(status int, location string) *ResponsePayload {
	return &ResponsePayload{
		Status: status,
		Header: []HeaderPair{{Name: "Location", Value: location}},
	}
}

func ok() *ResponsePayload {
	return &ResponsePayload{Status: 200, Reason: "OK"}
}

func following() RedirectOptions {
	return RedirectOptions{Follow: true, MaxRedirects: DefaultMaxRedirects}
}

func TestExchangeWithoutFollow(t *testing.T) {
	transport := &recordingTransport{responses: []*ResponsePayload{redirectTo(302, "/next")}}
	p := payloadOf(t, JSONMode, "example.com")

	result, err := Exchange(context.Background(), transport, p, TransportOptions{}, DefaultRedirectOptions())

	require.NoError(t, err)
	assert.Len(t, result.Responses, 1)
	assert.Len(t, transport.sent, 1)
	assert.Equal(t, 302, result.Final().Status)
}

func TestExchangeFollowsRedirects(t *testing.T) {
	transport := &recordingTransport{responses: []*ResponsePayload{
		redirectTo(301, "/moved?x=1"),
		redirectTo(302, "https://other.example.com:8443/final"),
		ok(),
	}}
	p := payloadOf(t, JSONMode, "GET", "http://example.com/start", "X-A:1")

	result, err := Exchange(context.Background(), transport, p, TransportOptions{}, following())

	require.NoError(t, err)
	require.Len(t, result.Responses, 3)
	assert.Equal(t, 200, result.Final().Status)
	assert.False(t, result.TooManyRedirects)

	second := transport.sent[1].Request
	assert.Equal(t, "http", second.Scheme)
	assert.Equal(t, "example.com", second.Authority)
	assert.Equal(t, "/moved?x=1", second.Path)
	assert.Equal(t, []HeaderPair{{Name: "X-A", Value: "1"}}, second.Header)

	third := transport.sent[2].Request
	assert.Equal(t, "https", third.Scheme)
	assert.Equal(t, "other.example.com:8443", third.Authority)
	assert.Equal(t, "/final", third.Path)
}

func TestExchangeMethodDowngrade(t *testing.T) {
	testCases := []struct {
		name           string
		method         string
		status         int
		expectedMethod string
		keepsBody      bool
	}{
		{name: "POST 303", method: "POST", status: 303, expectedMethod: "GET"},
		{name: "POST 301", method: "POST", status: 301, expectedMethod: "GET"},
		{name: "PUT 302", method: "PUT", status: 302, expectedMethod: "GET"},
		{name: "POST 307", method: "POST", status: 307, expectedMethod: "POST", keepsBody: true},
		{name: "POST 308", method: "POST", status: 308, expectedMethod: "POST", keepsBody: true},
		{name: "HEAD 303", method: "HEAD", status: 303, expectedMethod: "HEAD", keepsBody: true},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			transport := &recordingTransport{responses: []*ResponsePayload{redirectTo(tt.status, "/next"), ok()}}
			p := payloadOf(t, JSONMode, tt.method, "example.com/start", "a=1")

			_, err := Exchange(context.Background(), transport, p, TransportOptions{}, following())

			require.NoError(t, err)
			require.Len(t, transport.sent, 2)
			next := transport.sent[1]
			assert.Equal(t, tt.expectedMethod, next.Request.Method)
			assert.Equal(t, "/next", next.Request.Path)
			if tt.keepsBody {
				assert.Equal(t, p.Data, next.Data)
			} else {
				assert.Empty(t, next.Data)
				assert.Nil(t, next.RawBody)
				body, err := EncodeBody(next)
				require.NoError(t, err)
				assert.Nil(t, body)
			}
			// the first hop is left untouched
			assert.Equal(t, tt.method, transport.sent[0].Request.Method)
			assert.Equal(t, []input.DataField{{Name: "a", Value: input.TextData("1")}}, transport.sent[0].Data)
		})
	}
}

func TestExchangeTooManyRedirects(t *testing.T) {
	transport := &recordingTransport{responses: []*ResponsePayload{redirectTo(302, "/loop")}}
	p := payloadOf(t, JSONMode, "example.com")

	result, err := Exchange(context.Background(), transport, p, TransportOptions{}, RedirectOptions{Follow: true, MaxRedirects: 3})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
	assert.True(t, result.TooManyRedirects)
	assert.Len(t, result.Responses, 4)
	assert.Len(t, transport.sent, 4)
}

func TestExchangeStopsOnUnresolvableLocation(t *testing.T) {
	transport := &recordingTransport{responses: []*ResponsePayload{redirectTo(302, "http://[::1"), ok()}}
	p := payloadOf(t, JSONMode, "example.com")

	result, err := Exchange(context.Background(), transport, p, TransportOptions{}, following())

	require.NoError(t, err)
	assert.Len(t, result.Responses, 1)
	assert.Equal(t, 302, result.Final().Status)
}

func TestExchangeIgnoresRedirectWithoutLocation(t *testing.T) {
	transport := &recordingTransport{responses: []*ResponsePayload{{Status: 304}, ok()}}
	p := payloadOf(t, JSONMode, "example.com")

	result, err := Exchange(context.Background(), transport, p, TransportOptions{}, following())

	require.NoError(t, err)
	assert.Len(t, result.Responses, 1)
}

func TestExchangeTransportErrorKeepsResponses(t *testing.T) {
	transport := &recordingTransport{responses: []*ResponsePayload{redirectTo(302, "/next")}, errAt: 2}
	p := payloadOf(t, JSONMode, "example.com")

	result, err := Exchange(context.Background(), transport, p, TransportOptions{}, following())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, NetworkError, transportErr.Kind)
	assert.Len(t, result.Responses, 1)
	assert.Len(t, result.Requests, 2)
}

func TestApplyAuthorization(t *testing.T) {
	p := payloadOf(t, JSONMode, "example.com", "Authorization:", "X-A:1")

	updated := ApplyAuthorization(p, AuthorizationValue(AuthOptions{Type: BasicAuth, UserName: "alice", Password: "open sesame"}))

	assert.Equal(t, []HeaderPair{
		{Name: "X-A", Value: "1"},
		{Name: "Authorization", Value: "Basic YWxpY2U6b3BlbiBzZXNhbWU="},
	}, updated.Request.Header)
	assert.Empty(t, updated.HeaderRemovals)
	assert.Equal(t, []string{"Authorization"}, p.HeaderRemovals)

	bearer := ApplyAuthorization(updated, AuthorizationValue(AuthOptions{Type: BearerAuth, UserName: "t0k3n"}))
	assert.Equal(t, []string{"Bearer t0k3n"}, bearer.Request.Values("authorization"))
}

func TestParseAuthType(t *testing.T) {
	authType, err := ParseAuthType("Bearer")
	require.NoError(t, err)
	assert.Equal(t, BearerAuth, authType)

	_, err = ParseAuthType("digest")
	assert.EqualError(t, err, "unsupported auth type 'digest'")
}
