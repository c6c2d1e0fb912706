package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"code.cloudfoundry.org/bytefmt"
	"github.com/brandonbloom/spie/exchange"
	"github.com/gogama/httpx/request"
	"github.com/pkg/errors"
)

const requestProto = "HTTP/1.1"

// Writer prints the hops of an exchange according to Options.
type Writer struct {
	out      *trackingWriter
	printer  Printer
	options  *Options
	terminal bool
}

// NewWriter returns a Writer printing to out. terminal reports whether out
// is an interactive terminal, in which case binary bodies are not printed.
func NewWriter(out io.Writer, options *Options, terminal bool) *Writer {
	tracked := &trackingWriter{w: out}
	var printer Printer
	if options.EnableFormat || options.EnableColor {
		printer = NewPrettyPrinter(PrettyPrinterConfig{
			Writer:        tracked,
			EnableColor:   options.EnableColor,
			DisableFormat: !options.EnableFormat,
		})
	} else {
		printer = NewPlainPrinter(tracked)
	}
	return &Writer{
		out:      tracked,
		printer:  printer,
		options:  options,
		terminal: terminal,
	}
}

func (w *Writer) printsRequest() bool {
	return w.options.PrintRequestHeader || w.options.PrintRequestBody
}

func (w *Writer) printsResponse() bool {
	return w.options.PrintResponseHeader || w.options.PrintResponseBody
}

// WriteExchange prints every hop of result in order. A request whose
// response never arrived is printed alone.
func (w *Writer) WriteExchange(ctx context.Context, result *exchange.Result, transport exchange.TransportOptions) error {
	if result == nil {
		return nil
	}
	for i, req := range result.Requests {
		if i > 0 && (w.printsRequest() || w.printsResponse()) {
			fmt.Fprintln(w.out)
		}
		if w.printsRequest() {
			if err := w.WriteRequest(ctx, req, transport); err != nil {
				return err
			}
		}
		if i < len(result.Responses) {
			if err := w.WriteResponse(result.Responses[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteRequest prints the request as it goes on the wire, including the
// default headers added by the transport.
func (w *Writer) WriteRequest(ctx context.Context, p *exchange.RequestPayload, transport exchange.TransportOptions) error {
	plan, err := exchange.BuildPlan(ctx, p, transport)
	if err != nil {
		return err
	}

	if w.options.PrintRequestHeader {
		if err := w.printer.PrintRequestLine(p.Request.Method, p.Request.Path, requestProto); err != nil {
			return err
		}
		if err := w.printer.PrintHeader(requestHeader(p, plan)); err != nil {
			return err
		}
	}

	if w.options.PrintRequestBody && len(plan.Body) > 0 {
		contentType := plan.Header.Get("Content-Type")
		if err := w.writeBody(plan.Body, isText(plan.Body), contentType); err != nil {
			return err
		}
		w.endBody()
		fmt.Fprintln(w.out)
	}
	return nil
}

func requestHeader(p *exchange.RequestPayload, plan *request.Plan) []exchange.HeaderPair {
	host := plan.Host
	if host == "" {
		host = p.Request.Authority
		if i := strings.LastIndex(host, "@"); i >= 0 {
			host = host[i+1:]
		}
	}
	header := []exchange.HeaderPair{{Name: "Host", Value: host}}
	for name, values := range plan.Header {
		for _, value := range values {
			if value == "" && strings.EqualFold(name, "User-Agent") {
				continue
			}
			header = append(header, exchange.HeaderPair{Name: name, Value: value})
		}
	}
	if plan.Close {
		header = append(header, exchange.HeaderPair{Name: "Connection", Value: "close"})
	}
	return header
}

func (w *Writer) WriteResponse(resp *exchange.ResponsePayload) error {
	if w.options.PrintResponseHeader {
		if err := w.printer.PrintStatusLine(resp.Proto, statusText(resp), resp.Status); err != nil {
			return err
		}
		if err := w.printer.PrintHeader(resp.Header); err != nil {
			return err
		}
	}

	if w.options.PrintResponseBody && resp.Body.Kind != exchange.NoBody {
		contentType, _ := resp.HeaderValue("Content-Type")
		if err := w.writeBody(resp.Body.Bytes(), resp.Body.Kind == exchange.TextBody, contentType); err != nil {
			return err
		}
		w.endBody()
	}
	return nil
}

func (w *Writer) writeBody(body []byte, text bool, contentType string) error {
	if !text && w.terminal {
		fmt.Fprintf(w.out, "NOTE: binary data not shown in terminal (%s)\n", bytefmt.ByteSize(uint64(len(body))))
		return nil
	}
	return w.printer.PrintBody(bytes.NewReader(body), contentType)
}

// endBody terminates a body that did not end with a newline.
func (w *Writer) endBody() {
	if w.out.written > 0 && w.out.last != '\n' {
		fmt.Fprintln(w.out)
	}
}

func statusText(resp *exchange.ResponsePayload) string {
	if resp.Reason == "" {
		return strconv.Itoa(resp.Status)
	}
	return fmt.Sprintf("%d %s", resp.Status, resp.Reason)
}

func isText(body []byte) bool {
	return utf8.Valid(body) && bytes.IndexByte(body, 0) < 0
}

type trackingWriter struct {
	w       io.Writer
	written int64
	last    byte
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.written += int64(n)
		t.last = p[n-1]
	}
	if err != nil {
		return n, errors.Wrap(err, "writing output")
	}
	return n, nil
}
