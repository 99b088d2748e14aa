package rdf

import (
	"fmt"
	"strconv"
	"strings"
)

// Common vocabulary IRIs.
const (
	RDFType       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFFirst      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	RDFRest       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	RDFNil        = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"
	RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	XSDString    = XSDNamespace + "string"
	XSDBoolean   = XSDNamespace + "boolean"
	XSDDecimal   = XSDNamespace + "decimal"
	XSDInteger   = XSDNamespace + "integer"
	XSDHexBinary = XSDNamespace + "hexBinary"
	XSDBase64    = XSDNamespace + "base64Binary"
)

// TermKind identifies the lexical category of a Term.
type TermKind uint8

const (
	// TermNone is the zero kind. A zero Term stands for "no term", which
	// in a quad's graph position means the default graph.
	TermNone TermKind = iota
	TermIRI
	TermBlank
	TermLiteral
)

// String returns the kind name.
func (k TermKind) String() string {
	switch k {
	case TermNone:
		return "none"
	case TermIRI:
		return "iri"
	case TermBlank:
		return "blank"
	case TermLiteral:
		return "literal"
	default:
		return fmt.Sprintf("TermKind(%d)", uint8(k))
	}
}

// Literal is a lexical literal representation.
// Datatype is always set; language-tagged strings use rdf:langString.
type Literal struct {
	Value    string
	Datatype string
	Language string
}

// String renders the literal in N-Quads syntax.
func (l Literal) String() string {
	var b strings.Builder
	b.WriteString(quoteString(l.Value))
	switch {
	case l.Language != "":
		b.WriteByte('@')
		b.WriteString(l.Language)
	case l.Datatype != "" && l.Datatype != XSDString:
		b.WriteString("^^<")
		b.WriteString(l.Datatype)
		b.WriteByte('>')
	}
	return b.String()
}

// Term is a lexical RDF term. Terms are comparable and may be used as
// map keys.
type Term struct {
	Kind TermKind

	// Value is the IRI, the blank node label or the literal lexical form.
	Value string

	// Datatype and Language are only set for literals.
	Datatype string
	Language string
}

// IRI creates an IRI term.
func IRI(iri string) Term {
	return Term{Kind: TermIRI, Value: iri}
}

// Blank creates a blank node term from its label (without "_:").
func Blank(label string) Term {
	return Term{Kind: TermBlank, Value: label}
}

// TypedLiteral creates a literal term with the given datatype.
// An empty datatype defaults to xsd:string.
func TypedLiteral(value, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: TermLiteral, Value: value, Datatype: datatype}
}

// LangString creates a language-tagged string literal term.
func LangString(value, language string) Term {
	return Term{Kind: TermLiteral, Value: value, Datatype: RDFLangString, Language: language}
}

// String creates an xsd:string literal term.
func String(value string) Term {
	return TypedLiteral(value, XSDString)
}

// IsZero reports whether t is the "no term" value.
func (t Term) IsZero() bool {
	return t.Kind == TermNone
}

// Literal returns the literal representation of t.
// The boolean is false if t is not a literal.
func (t Term) Literal() (Literal, bool) {
	if t.Kind != TermLiteral {
		return Literal{}, false
	}
	return Literal{Value: t.Value, Datatype: t.Datatype, Language: t.Language}, true
}

// String renders the term in N-Quads syntax.
func (t Term) String() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermBlank:
		return "_:" + t.Value
	case TermLiteral:
		lit, _ := t.Literal()
		return lit.String()
	default:
		return ""
	}
}

// LiteralTerm converts a literal representation back into a term.
func LiteralTerm(l Literal) Term {
	return Term{Kind: TermLiteral, Value: l.Value, Datatype: l.Datatype, Language: l.Language}
}

// quoteString produces an N-Quads string literal with ECHAR escapes.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				b.WriteString(`\u`)
				hex := strconv.FormatInt(int64(r), 16)
				b.WriteString(strings.Repeat("0", 4-len(hex)))
				b.WriteString(strings.ToUpper(hex))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
