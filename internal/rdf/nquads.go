package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TermQuad is a quad of lexical terms as read from a document.
// A zero Graph denotes the default graph.
type TermQuad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// String renders the quad as an N-Quads statement.
func (q TermQuad) String() string {
	if q.Graph.IsZero() {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// SyntaxError reports a malformed N-Quads statement.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// Decoder is a pull-style N-Quads (and N-Triples) reader.
//
//	dec := rdf.NewDecoder(r)
//	for {
//	    q, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // use q
//	}
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Decoder{scanner: s}
}

// Next returns the next statement, or io.EOF once the input is consumed.
func (d *Decoder) Next() (TermQuad, error) {
	for d.scanner.Scan() {
		d.line++
		p := &lineParser{src: d.scanner.Text(), line: d.line}
		q, ok, err := p.statement()
		if err != nil {
			return TermQuad{}, err
		}
		if ok {
			return q, nil
		}
	}
	if err := d.scanner.Err(); err != nil {
		return TermQuad{}, err
	}
	return TermQuad{}, io.EOF
}

// ParseNQuads reads every statement of r.
func ParseNQuads(r io.Reader) ([]TermQuad, error) {
	dec := NewDecoder(r)
	var quads []TermQuad
	for {
		q, err := dec.Next()
		if err == io.EOF {
			return quads, nil
		}
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
}

type lineParser struct {
	src  string
	pos  int
	line int
}

func (p *lineParser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Column: p.pos + 1, Message: fmt.Sprintf(format, args...)}
}

func (p *lineParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *lineParser) atEnd() bool {
	return p.pos >= len(p.src) || p.src[p.pos] == '#'
}

// statement parses one line. ok is false for blank and comment lines.
func (p *lineParser) statement() (q TermQuad, ok bool, err error) {
	p.skipSpace()
	if p.atEnd() {
		return TermQuad{}, false, nil
	}
	if q.Subject, err = p.term(); err != nil {
		return q, false, err
	}
	if q.Subject.Kind == TermLiteral {
		return q, false, p.errorf("literal in subject position")
	}
	p.skipSpace()
	if q.Predicate, err = p.term(); err != nil {
		return q, false, err
	}
	if q.Predicate.Kind != TermIRI {
		return q, false, p.errorf("predicate must be an IRI")
	}
	p.skipSpace()
	if q.Object, err = p.term(); err != nil {
		return q, false, err
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] != '.' {
		if q.Graph, err = p.term(); err != nil {
			return q, false, err
		}
		if q.Graph.Kind == TermLiteral {
			return q, false, p.errorf("literal in graph position")
		}
		p.skipSpace()
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '.' {
		return q, false, p.errorf("expected '.'")
	}
	p.pos++
	p.skipSpace()
	if !p.atEnd() {
		return q, false, p.errorf("unexpected content after '.'")
	}
	return q, true, nil
}

func (p *lineParser) term() (Term, error) {
	if p.pos >= len(p.src) {
		return Term{}, p.errorf("unexpected end of line")
	}
	switch c := p.src[p.pos]; {
	case c == '<':
		iri, err := p.iriRef()
		if err != nil {
			return Term{}, err
		}
		return IRI(iri), nil
	case c == '_':
		return p.blankNode()
	case c == '"':
		return p.literal()
	default:
		return Term{}, p.errorf("unexpected character %q", c)
	}
}

func (p *lineParser) iriRef() (string, error) {
	p.pos++ // '<'
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '>':
			p.pos++
			iri := b.String()
			if !utf8.ValidString(iri) {
				return "", p.errorf("invalid UTF-8 in IRI")
			}
			return iri, nil
		case '\\':
			r, err := p.unicodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		case ' ', '<', '"', '{', '}', '|', '^', '`':
			return "", p.errorf("invalid character %q in IRI", c)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated IRI")
}

func (p *lineParser) blankNode() (Term, error) {
	if !strings.HasPrefix(p.src[p.pos:], "_:") {
		return Term{}, p.errorf("expected '_:'")
	}
	p.pos += 2
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '<' || c == '"' {
			break
		}
		if c == '.' && (p.pos+1 >= len(p.src) || p.src[p.pos+1] == ' ' || p.src[p.pos+1] == '\t') {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return Term{}, p.errorf("empty blank node label")
	}
	return Blank(p.src[start:p.pos]), nil
}

func (p *lineParser) literal() (Term, error) {
	p.pos++ // '"'
	var b strings.Builder
	closed := false
	for p.pos < len(p.src) && !closed {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			closed = true
		case '\\':
			if p.pos+1 >= len(p.src) {
				return Term{}, p.errorf("unterminated escape")
			}
			switch e := p.src[p.pos+1]; e {
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\':
				b.WriteByte(e)
			case 'u', 'U':
				r, err := p.unicodeEscape()
				if err != nil {
					return Term{}, err
				}
				b.WriteRune(r)
				continue
			default:
				return Term{}, p.errorf("invalid escape \\%c", e)
			}
			p.pos += 2
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	if !closed {
		return Term{}, p.errorf("unterminated string literal")
	}
	value := b.String()
	if !utf8.ValidString(value) {
		return Term{}, p.errorf("invalid UTF-8 in literal")
	}

	switch {
	case strings.HasPrefix(p.src[p.pos:], "^^"):
		p.pos += 2
		if p.pos >= len(p.src) || p.src[p.pos] != '<' {
			return Term{}, p.errorf("expected datatype IRI")
		}
		dt, err := p.iriRef()
		if err != nil {
			return Term{}, err
		}
		return TypedLiteral(value, dt), nil
	case strings.HasPrefix(p.src[p.pos:], "@"):
		p.pos++
		start := p.pos
		for p.pos < len(p.src) {
			c := p.src[p.pos]
			if !(c == '-' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				break
			}
			p.pos++
		}
		if p.pos == start {
			return Term{}, p.errorf("empty language tag")
		}
		return LangString(value, p.src[start:p.pos]), nil
	default:
		return String(value), nil
	}
}

// unicodeEscape decodes \uXXXX or \UXXXXXXXX at the current position.
func (p *lineParser) unicodeEscape() (rune, error) {
	if p.pos+1 >= len(p.src) {
		return 0, p.errorf("unterminated escape")
	}
	var n int
	switch p.src[p.pos+1] {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, p.errorf("invalid escape \\%c", p.src[p.pos+1])
	}
	start := p.pos + 2
	if start+n > len(p.src) {
		return 0, p.errorf("truncated unicode escape")
	}
	v, err := strconv.ParseUint(p.src[start:start+n], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape %q", p.src[start:start+n])
	}
	if v > utf8.MaxRune || !utf8.ValidRune(rune(v)) {
		return 0, p.errorf("invalid code point U+%X", v)
	}
	p.pos = start + n
	return rune(v), nil
}
