package output

import (
	"fmt"
	"io"

	"github.com/brandonbloom/spie/exchange"
	"github.com/pkg/errors"
)

type PlainPrinter struct {
	writer io.Writer
}

func NewPlainPrinter(writer io.Writer) Printer {
	return &PlainPrinter{
		writer: writer,
	}
}

func (p *PlainPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n", proto, status)
	return nil
}

func (p *PlainPrinter) PrintRequestLine(method string, target string, proto string) error {
	fmt.Fprintf(p.writer, "%s %s %s\n", method, target, proto)
	return nil
}

func (p *PlainPrinter) PrintHeader(header []exchange.HeaderPair) error {
	for _, field := range sortedHeader(header) {
		fmt.Fprintf(p.writer, "%s: %s\n", field.Name, field.Value)
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintBody(body io.Reader, contentType string) error {
	_, err := io.Copy(p.writer, body)
	if err != nil {
		return errors.Wrap(err, "printing body")
	}
	return nil
}
