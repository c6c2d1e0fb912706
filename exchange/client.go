package exchange

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/brandonbloom/spie/version"
	"github.com/gogama/httpx"
	"github.com/gogama/httpx/request"
	"github.com/gogama/httpx/retry"
	"github.com/gogama/httpx/timeout"
	"github.com/gogama/httpx/transient"
	"github.com/pkg/errors"
	"golang.org/x/net/http2"
)

const acceptJSON = "application/json, */*;q=0.5"

// ApplyAcceptJSON returns a copy of p asking for JSON, unless the user
// supplied or removed Accept.
func ApplyAcceptJSON(p *RequestPayload) *RequestPayload {
	if !ShouldApplyDefaultHeader("Accept", p) {
		return p
	}
	updated := p.clone()
	updated.Request.Header = append(updated.Request.Header, HeaderPair{Name: "Accept", Value: acceptJSON})
	return updated
}

// HTTPTransport sends hops over the network with net/http. Hops sent with
// the same TransportOptions share one client and its connection pool.
type HTTPTransport struct {
	logger *slog.Logger

	// RoundTripper replaces the network transport when set.
	RoundTripper http.RoundTripper

	mu      sync.Mutex
	clients map[TransportOptions]*pooledClient
}

type pooledClient struct {
	client *httpx.Client
	// transport is nil when RoundTripper is set.
	transport *http.Transport
}

func NewHTTPTransport(logger *slog.Logger) *HTTPTransport {
	return &HTTPTransport{logger: logger}
}

func (t *HTTPTransport) Send(ctx context.Context, p *RequestPayload, options TransportOptions) (*ResponsePayload, error) {
	plan, err := BuildPlan(ctx, p, options)
	if err != nil {
		return nil, err
	}

	client, err := t.client(options)
	if err != nil {
		return nil, err
	}

	e, err := client.Do(plan)
	if err != nil {
		return nil, classifyError(err, options)
	}
	return buildResponsePayload(e.Response, e.Body), nil
}

// BuildPlan turns p into an httpx request plan, adding the default
// headers the user did not supply or remove.
func BuildPlan(ctx context.Context, p *RequestPayload, options TransportOptions) (*request.Plan, error) {
	body, err := EncodeBody(p)
	if err != nil {
		if _, ok := errors.Cause(err).(*TransportError); ok {
			return nil, errors.Cause(err)
		}
		return nil, &TransportError{Kind: InternalFailure, Message: err.Error()}
	}

	u, err := p.Request.URL()
	if err != nil {
		return nil, &TransportError{Kind: InternalFailure, Message: err.Error()}
	}

	var data []byte
	if body != nil {
		data = body.Data
	}
	plan, err := request.NewPlanWithContext(ctx, p.Request.Method, u.String(), data)
	if err != nil {
		return nil, &TransportError{Kind: InternalFailure, Message: err.Error()}
	}

	for _, h := range p.Request.Header {
		if strings.EqualFold(h.Name, "Host") {
			plan.Host = h.Value
			continue
		}
		plan.Header.Add(h.Name, h.Value)
	}

	if body != nil && body.ContentType != "" && ShouldApplyDefaultHeader("Content-Type", p) {
		plan.Header.Set("Content-Type", body.ContentType)
	}
	if body != nil && body.ContentType == contentTypeJSON && ShouldApplyDefaultHeader("Accept", p) {
		plan.Header.Set("Accept", acceptJSON)
	}
	if ShouldApplyDefaultHeader("User-Agent", p) {
		plan.Header.Set("User-Agent", "spie/"+version.Current().String())
	} else if p.removes("User-Agent") {
		// net/http leaves out User-Agent only when it is present but empty.
		plan.Header["User-Agent"] = []string{""}
	}
	if options.HTTPVersion == HTTP1Only && ShouldApplyDefaultHeader("Connection", p) {
		plan.Close = true
	}
	return plan, nil
}

// CloseIdleConnections closes the idle connections of every pool opened
// so far.
func (t *HTTPTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		if c.transport != nil {
			c.transport.CloseIdleConnections()
		}
	}
}

func (t *HTTPTransport) client(options TransportOptions) (*httpx.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clients[options]; ok {
		return c.client, nil
	}

	c, err := t.buildClient(options)
	if err != nil {
		return nil, err
	}
	if t.clients == nil {
		t.clients = make(map[TransportOptions]*pooledClient)
	}
	t.clients[options] = c
	return c.client, nil
}

func (t *HTTPTransport) buildClient(options TransportOptions) (*pooledClient, error) {
	pooled := &pooledClient{}
	rt := t.RoundTripper
	if rt == nil {
		transport, err := buildHTTPTransport(options)
		if err != nil {
			return nil, err
		}
		pooled.transport = transport
		rt = transport
	}

	timeoutPolicy := timeout.Infinite
	if options.Timeout > 0 {
		timeoutPolicy = timeout.Fixed(options.Timeout)
	}

	pooled.client = &httpx.Client{
		HTTPDoer: &http.Client{
			Transport: rt,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Redirects are followed by Exchange
				return http.ErrUseLastResponse
			},
		},
		RetryPolicy:   retry.Never,
		TimeoutPolicy: timeoutPolicy,
		Handlers:      t.handlers(),
	}
	return pooled, nil
}

func buildHTTPTransport(options TransportOptions) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: options.Verify == VerifyDisabled,
		},
	}

	switch options.HTTPVersion {
	case HTTP1Only:
		transport.TLSClientConfig.NextProtos = []string{"http/1.1", "http/1.0"}
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	default:
		if _, err := http2.ConfigureTransports(transport); err != nil {
			return nil, &TransportError{Kind: InternalFailure, Message: errors.Wrap(err, "configuring HTTP/2").Error()}
		}
	}
	return transport, nil
}

func (t *HTTPTransport) handlers() *httpx.HandlerGroup {
	if t.logger == nil {
		return nil
	}
	logger := t.logger
	handlers := &httpx.HandlerGroup{}
	handlers.PushBack(httpx.BeforeAttempt, httpx.HandlerFunc(func(_ httpx.Event, e *request.Execution) {
		logger.Debug("sending request",
			"method", e.Request.Method,
			"url", e.Request.URL.String(),
			"body_bytes", len(e.Plan.Body))
	}))
	handlers.PushBack(httpx.AfterAttempt, httpx.HandlerFunc(func(_ httpx.Event, e *request.Execution) {
		if e.Err != nil {
			logger.Debug("request failed", "error", e.Err, "timeout", e.Timeout())
			return
		}
		logger.Debug("received response",
			"status", e.StatusCode(),
			"proto", e.Response.Proto,
			"body_bytes", len(e.Body))
	}))
	handlers.PushBack(httpx.AfterExecutionEnd, httpx.HandlerFunc(func(_ httpx.Event, e *request.Execution) {
		logger.Debug("exchange finished", "duration", e.Duration())
	}))
	return handlers
}

func classifyError(err error, options TransportOptions) error {
	switch transient.Categorize(err) {
	case transient.Timeout:
		return &TransportError{
			Kind:    NetworkError,
			Message: fmt.Sprintf("request timed out after %gs", options.Timeout.Seconds()),
		}
	case transient.ConnRefused, transient.ConnReset:
		return &TransportError{Kind: NetworkError, Message: err.Error()}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Kind: NetworkError, Message: err.Error()}
	}
	return &TransportError{Kind: InternalFailure, Message: err.Error()}
}

func buildResponsePayload(resp *http.Response, body []byte) *ResponsePayload {
	payload := &ResponsePayload{
		Status: resp.StatusCode,
		Reason: reasonPhrase(resp),
		Proto:  resp.Proto,
		Body:   buildResponseBody(body),
	}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range resp.Header[name] {
			payload.Header = append(payload.Header, HeaderPair{Name: name, Value: value})
		}
	}
	return payload
}

func reasonPhrase(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if strings.HasPrefix(resp.Status, prefix) {
		return strings.TrimPrefix(resp.Status, prefix)
	}
	return http.StatusText(resp.StatusCode)
}

func buildResponseBody(body []byte) ResponseBody {
	switch {
	case len(body) == 0:
		return ResponseBody{Kind: NoBody}
	case utf8.Valid(body) && bytes.IndexByte(body, 0) < 0:
		return ResponseBody{Kind: TextBody, Text: string(body)}
	default:
		return ResponseBody{Kind: DataBody, Data: body}
	}
}
