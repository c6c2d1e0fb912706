package output

import (
	"context"
	"strings"
	"testing"

	"github.com/brandonbloom/spie/exchange"
	"github.com/brandonbloom/spie/input"
)

func buildPayload(t *testing.T, args ...string) *exchange.RequestPayload {
	req, err := input.ParseArgs(args, nil)
	if err != nil {
		t.Fatalf("failed to parse args %v: %v", args, err)
	}
	p, err := exchange.BuildPayload(req, exchange.JSONMode, nil)
	if err != nil {
		t.Fatalf("failed to build payload: %v", err)
	}
	return p
}

func textResponse(status int, reason string, contentType string, body string) *exchange.ResponsePayload {
	resp := &exchange.ResponsePayload{
		Status: status,
		Reason: reason,
		Proto:  "HTTP/1.1",
		Header: []exchange.HeaderPair{{Name: "Content-Type", Value: contentType}},
	}
	if body != "" {
		resp.Body = exchange.ResponseBody{Kind: exchange.TextBody, Text: body}
	}
	return resp
}

// defaultOptions prints the response head and body, formatted.
func defaultOptions() Options {
	return Options{
		PrintResponseHeader: true,
		PrintResponseBody:   true,
		EnableFormat:        true,
	}
}

func TestWriter_WriteResponse(t *testing.T) {
	testCases := []struct {
		title    string
		options  Options
		terminal bool
		response *exchange.ResponsePayload
		expected string
	}{
		{
			title:    "Head and formatted body",
			options:  defaultOptions(),
			response: textResponse(200, "OK", "application/json", `{"a":1}`),
			expected: "HTTP/1.1 200 OK\nContent-Type: application/json\n\n{\n    \"a\": 1\n}\n",
		},
		{
			title:    "Plain body gets a trailing newline",
			options:  Options{PrintResponseBody: true},
			response: textResponse(200, "OK", "text/plain", "hello"),
			expected: "hello\n",
		},
		{
			title:    "Head only",
			options:  Options{PrintResponseHeader: true},
			response: textResponse(404, "Not Found", "text/plain", "missing"),
			expected: "HTTP/1.1 404 Not Found\nContent-Type: text/plain\n\n",
		},
		{
			title:    "Status without reason",
			options:  Options{PrintResponseHeader: true},
			response: &exchange.ResponsePayload{Status: 599, Proto: "HTTP/1.1"},
			expected: "HTTP/1.1 599\n\n",
		},
		{
			title:    "Binary body on a terminal",
			options:  Options{PrintResponseBody: true},
			terminal: true,
			response: &exchange.ResponsePayload{
				Status: 200,
				Body:   exchange.ResponseBody{Kind: exchange.DataBody, Data: make([]byte, 2048)},
			},
			expected: "NOTE: binary data not shown in terminal (2K)\n",
		},
		{
			title:   "Binary body to a pipe",
			options: Options{PrintResponseBody: true},
			response: &exchange.ResponsePayload{
				Status: 200,
				Body:   exchange.ResponseBody{Kind: exchange.DataBody, Data: []byte{0x00, 0x01, '\n'}},
			},
			expected: "\x00\x01\n",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Setup
			var buffer strings.Builder
			options := tt.options
			writer := NewWriter(&buffer, &options, tt.terminal)

			// Exercise
			if err := writer.WriteResponse(tt.response); err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}

			// Verify
			if buffer.String() != tt.expected {
				t.Errorf("unexpected output: expected=%q, actual=%q", tt.expected, buffer.String())
			}
		})
	}
}

func TestWriter_WriteRequest(t *testing.T) {
	// Setup
	var buffer strings.Builder
	options := Options{PrintRequestHeader: true, PrintRequestBody: true}
	writer := NewWriter(&buffer, &options, false)
	p := buildPayload(t, "http://alice:pw@example.com:8080/a?b=c", "X-Foo:bar", "n=1")

	// Exercise
	err := writer.WriteRequest(context.Background(), p, exchange.TransportOptions{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	output := buffer.String()
	for _, expected := range []string{
		"POST /a?b=c HTTP/1.1\n",
		"Host: example.com:8080\n",
		"X-Foo: bar\n",
		"Content-Type: application/json\n",
		"\n{\"n\":\"1\"}\n\n",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected %q in output:\n%s", expected, output)
		}
	}
	if !strings.HasPrefix(output, "POST ") {
		t.Errorf("request line should come first:\n%s", output)
	}
}

func TestWriter_WriteExchange(t *testing.T) {
	// Setup
	var buffer strings.Builder
	options := Options{PrintResponseHeader: true}
	writer := NewWriter(&buffer, &options, false)
	first := buildPayload(t, "example.com/old")
	second := buildPayload(t, "example.com/new")
	result := &exchange.Result{
		Requests: []*exchange.RequestPayload{first, second},
		Responses: []*exchange.ResponsePayload{
			{Status: 302, Reason: "Found", Proto: "HTTP/1.1", Header: []exchange.HeaderPair{{Name: "Location", Value: "/new"}}},
			{Status: 200, Reason: "OK", Proto: "HTTP/1.1"},
		},
	}

	// Exercise
	err := writer.WriteExchange(context.Background(), result, exchange.TransportOptions{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expected := "HTTP/1.1 302 Found\nLocation: /new\n\n\nHTTP/1.1 200 OK\n\n"
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=%q, actual=%q", expected, buffer.String())
	}
}

func TestWriter_WriteExchangeWithoutResponse(t *testing.T) {
	// Setup
	var buffer strings.Builder
	options := Options{PrintRequestHeader: true, PrintResponseHeader: true}
	writer := NewWriter(&buffer, &options, false)
	result := &exchange.Result{
		Requests: []*exchange.RequestPayload{buildPayload(t, "GET", "example.com")},
	}

	// Exercise
	err := writer.WriteExchange(context.Background(), result, exchange.TransportOptions{})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if !strings.HasPrefix(buffer.String(), "GET / HTTP/1.1\n") {
		t.Errorf("unexpected output: %q", buffer.String())
	}
	if strings.Count(buffer.String(), "HTTP/1.1") != 1 {
		t.Errorf("no response should be printed: %q", buffer.String())
	}
}
