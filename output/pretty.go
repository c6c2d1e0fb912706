package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/brandonbloom/spie/exchange"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	format        bool
	aurora        aurora.Aurora
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool

	// DisableFormat prints bodies as they are received.
	DisableFormat bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	Status         aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

// grayFg is the bright variant of black, rendered as gray by terminals.
const grayFg = aurora.BlackFg | aurora.BrightFg

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.GreenFg | aurora.BoldFm,
	URL:            aurora.CyanFg | aurora.UnderlineFm,
	Proto:          aurora.BlueFg,
	Status:         aurora.BrownFg | aurora.BoldFm,
	FieldName:      grayFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: grayFg,
}

type JSONPalette struct {
	Name    aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Name:    aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.RedFg | aurora.BoldFm,
	Null:    aurora.RedFg | aurora.BoldFm,
	Symbol:  grayFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		format:        !config.DisableFormat,
		aurora:        aurora.NewAurora(config.EnableColor),
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.headerPalette.Status))
	return nil
}

func (p *PrettyPrinter) PrintRequestLine(method string, target string, proto string) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(method, p.headerPalette.Method),
		p.aurora.Colorize(target, p.headerPalette.URL),
		p.aurora.Colorize(proto, p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header []exchange.HeaderPair) error {
	for _, field := range sortedHeader(header) {
		fmt.Fprintf(p.writer, "%s%s %s\n",
			p.aurora.Colorize(field.Name, p.headerPalette.FieldName),
			p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
			p.aurora.Colorize(field.Value, p.headerPalette.FieldValue))
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	if !p.format || !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	tokens, ok := tokenizeJSON(data)
	if !ok || len(tokens) == 0 {
		// Not JSON after all
		if _, err := p.writer.Write(data); err != nil {
			return errors.Wrap(err, "printing body")
		}
		return nil
	}

	jp := &jsonPrinter{
		out:     &bytes.Buffer{},
		aurora:  p.aurora,
		palette: p.jsonPalette,
		tokens:  tokens,
	}
	jp.print()
	if _, err := p.writer.Write(jp.out.Bytes()); err != nil {
		return errors.Wrap(err, "printing body")
	}
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.ToLower(contentType))
	}
	if mediaType == "application/json" || mediaType == "text/json" {
		return true
	}
	return strings.HasSuffix(mediaType, "+json")
}

// tokenizeJSON splits data into JSON tokens. Input that ends early still
// yields the tokens read so far; a syntax error reports false.
func tokenizeJSON(data []byte) ([]json.Token, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tokens []json.Token
	for {
		tok, err := dec.Token()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return tokens, true
		}
		if err != nil {
			return nil, false
		}
		tokens = append(tokens, tok)
	}
}

type jsonPrinter struct {
	out       *bytes.Buffer
	aurora    aurora.Aurora
	palette   *JSONPalette
	tokens    []json.Token
	pos       int
	truncated bool
}

const jsonIndent = "    "

func (p *jsonPrinter) print() {
	for p.pos < len(p.tokens) {
		p.printValue(0)
		p.out.WriteString("\n")
		if p.truncated {
			return
		}
	}
}

func (p *jsonPrinter) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *jsonPrinter) next() json.Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

func (p *jsonPrinter) closes(delim json.Delim) bool {
	if p.done() {
		return false
	}
	d, ok := p.tokens[p.pos].(json.Delim)
	return ok && d == delim
}

func (p *jsonPrinter) indent(depth int) {
	p.out.WriteString(strings.Repeat(jsonIndent, depth))
}

func (p *jsonPrinter) symbol(s string) {
	fmt.Fprint(p.out, p.aurora.Colorize(s, p.palette.Symbol))
}

func (p *jsonPrinter) printValue(depth int) {
	switch v := p.next().(type) {
	case json.Delim:
		switch v {
		case '{':
			p.printContainer(depth, '}', true)
		case '[':
			p.printContainer(depth, ']', false)
		}
	case string:
		fmt.Fprint(p.out, p.aurora.Colorize(quoteJSON(v), p.palette.String))
	case json.Number:
		fmt.Fprint(p.out, p.aurora.Colorize(v.String(), p.palette.Number))
	case bool:
		fmt.Fprint(p.out, p.aurora.Colorize(fmt.Sprint(v), p.palette.Boolean))
	case nil:
		fmt.Fprint(p.out, p.aurora.Colorize("null", p.palette.Null))
	}
}

// printContainer prints an object or array whose opening delimiter has
// already been consumed. When the tokens run out, the container is left
// open and printing stops.
func (p *jsonPrinter) printContainer(depth int, end json.Delim, object bool) {
	open := "["
	if object {
		open = "{"
	}
	p.symbol(open)
	if p.closes(end) {
		p.next()
		p.symbol(string(end))
		return
	}
	p.out.WriteString("\n")

	for {
		p.indent(depth + 1)
		if p.done() {
			p.truncated = true
			return
		}
		if object {
			name, _ := p.next().(string)
			fmt.Fprint(p.out, p.aurora.Colorize(quoteJSON(name), p.palette.Name))
			p.symbol(":")
			p.out.WriteString(" ")
			if p.done() {
				p.truncated = true
				return
			}
		}
		p.printValue(depth + 1)
		if p.truncated {
			return
		}
		if p.closes(end) {
			p.next()
			p.out.WriteString("\n")
			p.indent(depth)
			p.symbol(string(end))
			return
		}
		p.symbol(",")
		p.out.WriteString("\n")
	}
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Sprintf("%q", s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
