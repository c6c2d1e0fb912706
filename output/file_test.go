package output

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDownloadName(t *testing.T) {
	testCases := []struct {
		title    string
		rawurl   string
		expected string
	}{
		{title: "File path", rawurl: "http://example.com/files/report.pdf", expected: "report.pdf"},
		{title: "Root path", rawurl: "http://example.com/", expected: "index.html"},
		{title: "Empty path", rawurl: "http://example.com", expected: "index.html"},
		{title: "Trailing slash", rawurl: "http://example.com/dir/", expected: "dir"},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			u, err := url.Parse(tt.rawurl)
			if err != nil {
				t.Fatalf("failed to parse URL: %v", err)
			}
			if actual := downloadName(u); actual != tt.expected {
				t.Errorf("unexpected name: expected=%v, actual=%v", tt.expected, actual)
			}
		})
	}
}

func TestMakeNonOverlappingFilename(t *testing.T) {
	// Setup
	dir := t.TempDir()
	base := filepath.Join(dir, "data.json")
	for _, name := range []string{base, base + ".1", base + ".2"} {
		if err := os.WriteFile(name, []byte("x"), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	// Exercise
	actual := makeNonOverlappingFilename(base)

	// Verify
	if expected := base + ".3"; actual != expected {
		t.Errorf("unexpected filename: expected=%v, actual=%v", expected, actual)
	}
	if fresh := filepath.Join(dir, "fresh"); makeNonOverlappingFilename(fresh) != fresh {
		t.Errorf("a free name should be kept")
	}
}

func TestFileWriter_Download(t *testing.T) {
	// Setup
	dir := t.TempDir()
	target := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatalf("failed to create %s: %v", target, err)
	}

	testCases := []struct {
		title        string
		overwrite    bool
		expectedPath string
	}{
		{title: "Keeps existing file", overwrite: false, expectedPath: target + ".1"},
		{title: "Overwrites existing file", overwrite: true, expectedPath: target},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			writer := NewFileWriter(nil, &Options{OutputFile: target, Overwrite: tt.overwrite})

			// Exercise
			report, err := writer.Download([]byte("hello, world"))
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}

			// Verify
			content, err := os.ReadFile(tt.expectedPath)
			if err != nil {
				t.Fatalf("failed to read %s: %v", tt.expectedPath, err)
			}
			if string(content) != "hello, world" {
				t.Errorf("unexpected content: %q", content)
			}
			if !strings.Contains(report, "12B") || !strings.Contains(report, tt.expectedPath) {
				t.Errorf("unexpected report: %s", report)
			}
			if writer.Filename() != filepath.Base(tt.expectedPath) {
				t.Errorf("unexpected filename: %s", writer.Filename())
			}
		})
	}
}
