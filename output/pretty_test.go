package output

import (
	"strings"
	"testing"

	"github.com/brandonbloom/spie/exchange"
)

func TestPrettyPrinter_PrintStatusLine(t *testing.T) {
	// Setup
	var buffer strings.Builder
	printer := NewPrettyPrinter(PrettyPrinterConfig{
		Writer:      &buffer,
		EnableColor: false,
	})

	// Exercise
	err := printer.PrintStatusLine("HTTP/1.1", "200 OK", 200)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expected := "HTTP/1.1 200 OK\n"
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=%s, actual=%s", expected, buffer.String())
	}
}

func TestPrettyPrinter_PrintRequestLine(t *testing.T) {
	// Setup
	var buffer strings.Builder
	printer := NewPrettyPrinter(PrettyPrinterConfig{
		Writer:      &buffer,
		EnableColor: false,
	})

	// Exercise
	err := printer.PrintRequestLine("GET", "/hello?foo=bar&hoge=piyo", "HTTP/1.1")
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expected := "GET /hello?foo=bar&hoge=piyo HTTP/1.1\n"
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=%s, actual=%s", expected, buffer.String())
	}
}

func TestPrettyPrinter_PrintHeader(t *testing.T) {
	// Setup
	var buffer strings.Builder
	printer := NewPrettyPrinter(PrettyPrinterConfig{
		Writer:      &buffer,
		EnableColor: false,
	})
	header := []exchange.HeaderPair{
		{Name: "X-Foo", Value: "hello"},
		{Name: "Content-Type", Value: "application/json"},
		{Name: "X-Foo", Value: "world"},
		{Name: "Date", Value: "Tue, 12 Feb 2019 16:01:54 GMT"},
		{Name: "X-Foo", Value: "aaa"},
	}

	// Exercise
	err := printer.PrintHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expected := strings.Join([]string{
		"Content-Type: application/json\n",
		"Date: Tue, 12 Feb 2019 16:01:54 GMT\n",
		"X-Foo: hello\n",
		"X-Foo: world\n",
		"X-Foo: aaa\n",
		"\n",
	}, "")
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=\n%s\n (len=%d)\nactual=\n%s\n (len=%d)",
			expected, len(expected), buffer.String(), len(buffer.String()))
	}
}

func TestPrettyPrinter_PrintHeaderWithColor(t *testing.T) {
	// Setup
	var buffer strings.Builder
	printer := NewPrettyPrinter(PrettyPrinterConfig{
		Writer:      &buffer,
		EnableColor: true,
	})
	header := []exchange.HeaderPair{
		{Name: "X-Foo", Value: "hello"},
	}

	// Exercise
	err := printer.PrintHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	expected := "\x1b[90mX-Foo\x1b[0m\x1b[90m:\x1b[0m \x1b[36mhello\x1b[0m\n\n"
	if buffer.String() != expected {
		t.Errorf("unexpected output: expected=%q, actual=%q", expected, buffer.String())
	}
}

func TestPrettyPrinter_PrintBody(t *testing.T) {
	testCases := []struct {
		title    string
		body     string
		expected string
	}{
		{
			title: "Normal JSON",
			body:  `{"zzz": "hello ⚡", "aaa": [3.14, true, false, "üç"], "123": {}, "": [], "ñ": null}`,
			expected: strings.Join([]string{
				`{`,
				`    "zzz": "hello ⚡",`,
				`    "aaa": [`,
				`        3.14,`,
				`        true,`,
				`        false,`,
				`        "üç"`,
				`    ],`,
				`    "123": {},`,
				`    "": [],`,
				`    "ñ": null`,
				"}\n",
			}, "\n"),
		},
		{
			title: "Escaped",
			body:  `{"\"": "aaa\nbbb", "html": "<a>&"}`,
			expected: strings.Join([]string{
				`{`,
				`    "\"": "aaa\nbbb",`,
				`    "html": "<a>&"`,
				"}\n",
			}, "\n"),
		},
		{
			title: "Nested",
			body:  `[{"a": [1, {"b": 1e3}]}, []]`,
			expected: strings.Join([]string{
				`[`,
				`    {`,
				`        "a": [`,
				`            1,`,
				`            {`,
				`                "b": 1e3`,
				`            }`,
				`        ]`,
				`    },`,
				`    []`,
				"]\n",
			}, "\n"),
		},
		{
			title:    "Scalar",
			body:     `"just a string"`,
			expected: "\"just a string\"\n",
		},
		{
			title:    "Body is empty",
			body:     "",
			expected: "",
		},
		{
			title:    "Body contains only whitespaces",
			body:     "    \n",
			expected: "    \n",
		},
		{
			title:    "Not a JSON 1",
			body:     "xyz",
			expected: "xyz",
		},
		{
			title:    "Not a JSON 2",
			body:     `[100 200]`,
			expected: `[100 200]`,
		},
		{
			title:    "Malformed JSON 1",
			body:     `{`,
			expected: "{\n    \n",
		},
		{
			title:    "Malformed JSON 2",
			body:     `[`,
			expected: "[\n    \n",
		},
		{
			title:    "Malformed JSON 3",
			body:     `[1`,
			expected: "[\n    1,\n    \n",
		},
		{
			title: "Malformed JSON 4",
			body:  `{"hello": "world"`,
			expected: strings.Join([]string{
				`{`,
				`    "hello": "world",`,
				`    `,
				``,
			}, "\n"),
		},
		{
			title: "Malformed JSON 5",
			body:  `{"a": [1`,
			expected: strings.Join([]string{
				`{`,
				`    "a": [`,
				`        1,`,
				`        `,
				``,
			}, "\n"),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Setup
			var buffer strings.Builder
			printer := NewPrettyPrinter(PrettyPrinterConfig{
				Writer:      &buffer,
				EnableColor: false,
			})

			// Exercise
			err := printer.PrintBody(strings.NewReader(tt.body), "application/json")
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}

			// Verify
			if buffer.String() != tt.expected {
				t.Errorf("unexpected output: expected=\n%s\nactual=\n%s\n", tt.expected, buffer.String())
			}
		})
	}
}

func TestPrettyPrinter_PrintBodyWithoutFormat(t *testing.T) {
	// Setup
	var buffer strings.Builder
	printer := NewPrettyPrinter(PrettyPrinterConfig{
		Writer:        &buffer,
		DisableFormat: true,
	})

	// Exercise
	err := printer.PrintBody(strings.NewReader(`{"a":1}`), "application/json")
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if buffer.String() != `{"a":1}` {
		t.Errorf("unexpected output: %s", buffer.String())
	}
}

func TestPrettyPrinter_PrintBodyWithColor(t *testing.T) {
	// Setup
	var buffer strings.Builder
	printer := NewPrettyPrinter(PrettyPrinterConfig{
		Writer:      &buffer,
		EnableColor: true,
	})

	// Exercise
	err := printer.PrintBody(strings.NewReader(`{"a":1}`), "application/json")
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if !strings.Contains(buffer.String(), "\x1b[") {
		t.Errorf("expected ANSI escapes in output: %q", buffer.String())
	}
	if !strings.Contains(buffer.String(), `"a"`) {
		t.Errorf("expected the member name in output: %q", buffer.String())
	}
}

func TestPrettyPrinter_DetectJSON(t *testing.T) {
	testCases := []struct {
		contentType string
		expected    bool
	}{
		{contentType: "application/json", expected: true},
		{contentType: "application/json; charset=utf-8", expected: true},
		{contentType: "Application/JSON", expected: true},
		// See https://tools.ietf.org/html/rfc7807
		{contentType: "application/problem+json", expected: true},
		{contentType: "text/json", expected: true},
		{contentType: "text/html", expected: false},
		{contentType: "", expected: false},
	}
	for _, tt := range testCases {
		if actual := isJSON(tt.contentType); actual != tt.expected {
			t.Errorf("unexpected result for %q: expected=%v, actual=%v", tt.contentType, tt.expected, actual)
		}
	}
}
