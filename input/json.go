package input

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// JSONValue is a JSON document given on the command line. It is one of
// JSONString, JSONNumber, JSONBool, JSONNull, JSONArray or JSONObject.
type JSONValue interface {
	json.Marshaler
	isJSONValue()
}

type JSONString string

// JSONNumber keeps the literal text of a number so that no precision is
// lost on the way to the wire.
type JSONNumber string

type JSONBool bool

type JSONNull struct{}

type JSONArray []JSONValue

// JSONObject keeps its members in the order they were written.
type JSONObject []JSONMember

type JSONMember struct {
	Key   string
	Value JSONValue
}

func (JSONString) isJSONValue() {}
func (JSONNumber) isJSONValue() {}
func (JSONBool) isJSONValue()   {}
func (JSONNull) isJSONValue()   {}
func (JSONArray) isJSONValue()  {}
func (JSONObject) isJSONValue() {}

func (s JSONString) MarshalJSON() ([]byte, error) {
	return marshalString(string(s)), nil
}

func (n JSONNumber) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

func (b JSONBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (JSONNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (a JSONArray) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (o JSONObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalString(m.Key))
		buf.WriteByte(':')
		b, err := m.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (o JSONObject) Get(key string) (JSONValue, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// With returns o with key set to v. An existing member keeps its position.
func (o JSONObject) With(key string, v JSONValue) JSONObject {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = v
			return o
		}
	}
	return append(o, JSONMember{Key: key, Value: v})
}

// JSONText renders v as compact JSON.
func JSONText(v JSONValue) (string, error) {
	b, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// ParseJSON parses exactly one JSON document of any kind.
func ParseJSON(data []byte) (JSONValue, error) {
	if !json.Valid(data) {
		return nil, errors.New("malformed JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (JSONValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "reading JSON token")
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			arr := JSONArray{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, errors.Wrap(err, "closing JSON array")
			}
			return arr, nil
		case '{':
			obj := JSONObject{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, errors.Wrap(err, "reading JSON object key")
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Errorf("unexpected JSON object key: %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj = obj.With(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, errors.Wrap(err, "closing JSON object")
			}
			return obj, nil
		default:
			return nil, errors.Errorf("unexpected JSON delimiter: %v", t)
		}
	case string:
		return JSONString(t), nil
	case json.Number:
		return JSONNumber(t), nil
	case bool:
		return JSONBool(t), nil
	case nil:
		return JSONNull{}, nil
	default:
		return nil, errors.Errorf("unexpected JSON token: %v", tok)
	}
}
