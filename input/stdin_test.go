package input

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

type fakeStdin struct {
	data  string
	reads int
}

func (f *fakeStdin) IsInteractive() bool { return false }

func (f *fakeStdin) ReadAll() ([]byte, error) {
	f.reads++
	if f.reads > 1 {
		return nil, nil
	}
	return []byte(f.data), nil
}

func TestExpandStdin(t *testing.T) {
	// Setup
	req, err := ParseArgs([]string{"example.com", "X-Token:@-", "note=@-", "doc:=@-", "plain=x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stdin := &fakeStdin{data: "{\"ok\":true}\n"}

	// Exercise
	expanded, err := ExpandStdin(req, stdin)

	// Verify
	if err != nil {
		t.Fatal(err)
	}
	if stdin.reads != 1 {
		t.Errorf("stdin must be read once: reads=%d", stdin.reads)
	}
	expectedHeaders := []HeaderField{{Name: "X-Token", Value: LiteralHeader(`{"ok":true}`)}}
	if !reflect.DeepEqual(expanded.Items.Headers, expectedHeaders) {
		t.Errorf("unexpected headers: expected=%+v, actual=%+v", expectedHeaders, expanded.Items.Headers)
	}
	expectedData := []DataField{
		{Name: "note", Value: TextData("{\"ok\":true}\n")},
		{Name: "doc", Value: JSONData(JSONObject{{Key: "ok", Value: JSONBool(true)}})},
		{Name: "plain", Value: TextData("x")},
	}
	if !reflect.DeepEqual(expanded.Items.Data, expectedData) {
		t.Errorf("unexpected data: expected=%+v, actual=%+v", expectedData, expanded.Items.Data)
	}
	if expanded.UsesStdin() {
		t.Errorf("expanded request still uses stdin")
	}
	if !req.UsesStdin() {
		t.Errorf("original request must not be modified")
	}
}

func TestExpandStdinWithoutStdinItems(t *testing.T) {
	// Setup
	req, err := ParseArgs([]string{"example.com", "a=1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stdin := &fakeStdin{data: "ignored"}

	// Exercise
	expanded, err := ExpandStdin(req, stdin)

	// Verify
	if err != nil {
		t.Fatal(err)
	}
	if expanded != req {
		t.Errorf("request without stdin items must be returned as is")
	}
	if stdin.reads != 0 {
		t.Errorf("stdin must not be read: reads=%d", stdin.reads)
	}
}

func TestExpandStdinIgnored(t *testing.T) {
	// Setup
	req, err := ParseArgs([]string{"example.com", "a=@-"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Exercise
	_, err = ExpandStdin(req, nil)

	// Verify
	if _, ok := errors.Cause(err).(*UsageError); !ok {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExpandStdinInvalidJSON(t *testing.T) {
	// Setup
	req, err := ParseArgs([]string{"example.com", "a:=@-"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Exercise
	_, err = ExpandStdin(req, &fakeStdin{data: "not json"})

	// Verify
	parseErr, ok := errors.Cause(err).(*ParseError)
	if !ok || parseErr.Kind != InvalidJSON {
		t.Errorf("unexpected error: %v", err)
	}
}
