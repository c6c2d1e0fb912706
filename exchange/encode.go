package exchange

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandonbloom/spie/input"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	contentTypeJSON      = "application/json"
	contentTypeForm      = "application/x-www-form-urlencoded; charset=utf-8"
	contentTypeMultipart = "multipart/form-data"
	contentTypeBinary    = "application/octet-stream"
)

// EncodedBody is the wire form of a request body. ContentType is empty for
// raw bodies.
type EncodedBody struct {
	Data        []byte
	ContentType string
}

var multipartNameEscaper = strings.NewReplacer(`"`, "%22", "\r", " ", "\n", " ")

// EncodeBody serializes the body of p, or returns nil when there is none.
// Failing to read an uploaded file is reported as an internal transport
// failure.
func EncodeBody(p *RequestPayload) (*EncodedBody, error) {
	if !p.HasBody() {
		return nil, nil
	}
	if p.BodyMode == RawMode {
		return &EncodedBody{Data: p.RawBody.Bytes()}, nil
	}
	if len(p.Files) > 0 {
		return encodeMultipartBody(p)
	}
	if p.BodyMode == JSONMode || hasJSONField(p.Data) {
		return encodeJSONBody(p.Data)
	}
	return encodeFormBody(p.Data)
}

// ShouldApplyDefaultHeader reports whether a header the client adds on its
// own may be added, that is, the user neither supplied nor removed it.
func ShouldApplyDefaultHeader(name string, p *RequestPayload) bool {
	if p.removes(name) {
		return false
	}
	return len(p.Request.Values(name)) == 0
}

func hasJSONField(fields []input.DataField) bool {
	for _, f := range fields {
		if f.Value.IsJSON() {
			return true
		}
	}
	return false
}

func fieldText(f input.DataField) (string, error) {
	if f.Value.Source == input.DataJSON {
		return input.JSONText(f.Value.JSON)
	}
	return f.Value.Text, nil
}

func fieldJSON(f input.DataField) input.JSONValue {
	if f.Value.Source == input.DataJSON {
		return f.Value.JSON
	}
	return input.JSONString(f.Value.Text)
}

func encodeJSONBody(fields []input.DataField) (*EncodedBody, error) {
	obj := input.JSONObject{}
	for _, field := range fields {
		value := fieldJSON(field)
		existing, ok := obj.Get(field.Name)
		if !ok {
			obj = obj.With(field.Name, value)
			continue
		}
		var folded input.JSONArray
		if arr, isArray := existing.(input.JSONArray); isArray {
			folded = append(append(folded, arr...), value)
		} else {
			folded = input.JSONArray{existing, value}
		}
		obj = obj.With(field.Name, folded)
	}

	body, err := obj.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "marshaling JSON of HTTP body")
	}
	return &EncodedBody{Data: body, ContentType: contentTypeJSON}, nil
}

func encodeFormBody(fields []input.DataField) (*EncodedBody, error) {
	pairs := make([]string, 0, len(fields))
	for _, field := range fields {
		value, err := fieldText(field)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding field '%s'", field.Name)
		}
		pairs = append(pairs, url.QueryEscape(field.Name)+"="+url.QueryEscape(value))
	}
	return &EncodedBody{
		Data:        []byte(strings.Join(pairs, "&")),
		ContentType: contentTypeForm,
	}, nil
}

func encodeMultipartBody(p *RequestPayload) (*EncodedBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary("spie-" + uuid.NewString()); err != nil {
		return nil, errors.Wrap(err, "setting multipart boundary")
	}

	for _, field := range p.Data {
		value, err := fieldText(field)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding field '%s'", field.Name)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, multipartNameEscaper.Replace(field.Name)))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, errors.Wrap(err, "creating multipart field")
		}
		if _, err := part.Write([]byte(value)); err != nil {
			return nil, errors.Wrap(err, "writing multipart field")
		}
	}

	for _, file := range p.Files {
		content, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, &TransportError{
				Kind:    InternalFailure,
				Message: fmt.Sprintf("failed to read file '%s': %v", file.Path, err),
			}
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			multipartNameEscaper.Replace(file.Name),
			multipartNameEscaper.Replace(filepath.Base(file.Path))))
		h.Set("Content-Type", contentTypeBinary)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, errors.Wrap(err, "creating multipart file")
		}
		if _, err := part.Write(content); err != nil {
			return nil, errors.Wrap(err, "writing multipart file")
		}
	}

	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart body")
	}
	return &EncodedBody{
		Data:        buf.Bytes(),
		ContentType: contentTypeMultipart + "; boundary=" + w.Boundary(),
	}, nil
}
