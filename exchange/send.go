package exchange

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var ErrTooManyRedirects = errors.New("too many redirects")

// Result holds every hop of an exchange in order. Requests[i] produced
// Responses[i]; after a transport failure the last request has no response.
type Result struct {
	Requests         []*RequestPayload
	Responses        []*ResponsePayload
	TooManyRedirects bool
}

// Final returns the last response received, or nil.
func (r *Result) Final() *ResponsePayload {
	if len(r.Responses) == 0 {
		return nil
	}
	return r.Responses[len(r.Responses)-1]
}

// Exchange sends p and, when redirects are followed, every request the
// redirect responses lead to. Each hop is sent exactly once.
//
// The returned Result is never nil. When the transport fails or the
// redirect budget runs out, the error is returned together with the
// responses received so far.
func Exchange(ctx context.Context, t Transport, p *RequestPayload, options TransportOptions, redirect RedirectOptions) (*Result, error) {
	result := &Result{}
	current := p
	for {
		result.Requests = append(result.Requests, current)
		resp, err := t.Send(ctx, current, options)
		if err != nil {
			return result, err
		}
		result.Responses = append(result.Responses, resp)

		if !redirect.Follow {
			return result, nil
		}
		next, ok := nextHop(current, resp)
		if !ok {
			return result, nil
		}
		if len(result.Responses) > redirect.MaxRedirects {
			result.TooManyRedirects = true
			return result, errors.Wrapf(ErrTooManyRedirects, "exceeded %d redirects", redirect.MaxRedirects)
		}
		current = next
	}
}

func isRedirect(status int) bool {
	return status >= 300 && status <= 399
}

// nextHop derives the request a redirect response leads to. It reports
// false when resp is not a redirect or its target cannot be resolved.
func nextHop(p *RequestPayload, resp *ResponsePayload) (*RequestPayload, bool) {
	if !isRedirect(resp.Status) {
		return nil, false
	}
	location, ok := resp.HeaderValue("Location")
	if !ok || location == "" {
		return nil, false
	}

	base, err := p.Request.URL()
	if err != nil {
		return nil, false
	}
	target, err := base.Parse(location)
	if err != nil || target.Scheme == "" || target.Hostname() == "" {
		return nil, false
	}

	next := p.clone()
	next.Request.Scheme = target.Scheme
	next.Request.Authority = buildAuthority(target)
	next.Request.Path = buildPath(target)

	if downgradesToGet(p.Request.Method, resp.Status) {
		next.Request.Method = http.MethodGet
		next.Data = nil
		next.Files = nil
		next.RawBody = nil
		next.BodyMode = JSONMode
	}
	return next, true
}

func downgradesToGet(method string, status int) bool {
	if method == http.MethodGet || method == http.MethodHead {
		return false
	}
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		return true
	default:
		return false
	}
}

// RedirectSummary describes the hop that ended an exchange, for logs.
func RedirectSummary(r *Result) string {
	final := r.Final()
	if final == nil {
		return "no response"
	}
	return fmt.Sprintf("%d hop(s), final status %d", len(r.Responses), final.Status)
}
