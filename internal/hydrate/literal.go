package hydrate

import (
	"encoding/base64"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/pattern"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/typed"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// literalParser parses one literal representation. ok is false when the
// lexical form is invalid, in which case the representation is skipped.
// A non-nil error aborts hydration.
type literalParser func(lit rdf.Literal, ref layout.Ref) (v typed.Value, ok bool, err error)

// hydrateData hydrates a data literal layout: every literal representation
// of the designated resource with a matching datatype is parsed, and
// exactly one must succeed.
func (h *Hydrator) hydrateData(c call, scope pattern.Scope, l layout.Data, parse literalParser) (typed.Value, error) {
	scope, err := h.solve(c, scope, l.Header, "literal dataset")
	if err != nil {
		return nil, err
	}
	r, err := l.Resource.ApplyResource(scope)
	if err != nil {
		return nil, &Error{Code: ErrCodeIncompatibleLayout, Layout: c.ref, Message: "cannot evaluate literal resource", Err: err}
	}

	datatypes, err := h.interp.Iris(l.Datatype)
	if err != nil {
		return nil, &Error{Code: ErrCodeDataset, Layout: c.ref, Message: "datatype lookup failed", Err: err}
	}
	lits, err := h.interp.Literals(r)
	if err != nil {
		return nil, &Error{Code: ErrCodeDataset, Layout: c.ref, Message: "literal lookup failed", Err: err}
	}

	var (
		result  typed.Value
		matches int
	)
	for _, lit := range lits {
		if !slices.Contains(datatypes, lit.Datatype) {
			continue
		}
		v, ok, err := parse(lit, c.ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		matches++
		if matches > 1 {
			return nil, newError(ErrCodeDataAmbiguity, c.ref, "resource %s has several literal representations", r)
		}
		result = v
	}
	if matches == 0 {
		return nil, newError(ErrCodeNoMatchingLiteral, c.ref, "resource %s has no literal of the expected datatype", r)
	}
	return result, nil
}

// collapse strips the leading and trailing XML whitespace that the
// collapse facet of xsd:boolean, xsd:decimal and the integer types allows.
func collapse(lexical string) string {
	return strings.Trim(lexical, " \t\r\n")
}

func parseBoolean(lit rdf.Literal, ref layout.Ref) (typed.Value, bool, error) {
	if lit.Datatype != rdf.XSDBoolean {
		return nil, false, unknownDatatype(ErrCodeUnknownBooleanDatatype, ref, lit.Datatype)
	}
	switch collapse(lit.Value) {
	case "true", "1":
		return typed.Boolean{Value: true, Layout: ref}, true, nil
	case "false", "0":
		return typed.Boolean{Value: false, Layout: ref}, true, nil
	default:
		return nil, false, nil
	}
}

func parseNumber(lit rdf.Literal, ref layout.Ref) (typed.Value, bool, error) {
	if lit.Datatype == rdf.XSDDecimal {
		n, err := value.ParseDecimal(collapse(lit.Value))
		if err != nil {
			return nil, false, nil
		}
		return typed.Number{Value: n, Layout: ref}, true, nil
	}

	bounds, ok := integerTypes[strings.TrimPrefix(lit.Datatype, rdf.XSDNamespace)]
	if !ok || !strings.HasPrefix(lit.Datatype, rdf.XSDNamespace) {
		return nil, false, unknownDatatype(ErrCodeUnknownNumberDatatype, ref, lit.Datatype)
	}
	n, err := value.ParseInteger(collapse(lit.Value))
	if err != nil || !bounds.contains(n) {
		return nil, false, nil
	}
	return typed.Number{Value: n, Layout: ref}, true, nil
}

func parseBytes(lit rdf.Literal, ref layout.Ref) (typed.Value, bool, error) {
	var (
		b   []byte
		err error
	)
	switch lit.Datatype {
	case rdf.XSDHexBinary:
		b, err = hex.DecodeString(lit.Value)
	case rdf.XSDBase64:
		b, err = base64.StdEncoding.DecodeString(strings.Join(strings.Fields(lit.Value), ""))
	default:
		return nil, false, unknownDatatype(ErrCodeUnknownBytesDatatype, ref, lit.Datatype)
	}
	if err != nil {
		return nil, false, nil
	}
	return typed.ByteString{Value: b, Layout: ref}, true, nil
}

func parseText(lit rdf.Literal, ref layout.Ref) (typed.Value, bool, error) {
	return typed.TextString{Value: lit.Value, Layout: ref}, true, nil
}

func unknownDatatype(code ErrorCode, ref layout.Ref, datatype string) error {
	return &Error{Code: code, Layout: ref, Datatype: datatype, Message: "unsupported datatype"}
}

// integerBounds is the value space of an xsd integer datatype. A nil bound
// is unbounded.
type integerBounds struct {
	min, max *value.Number
}

func (b integerBounds) contains(n value.Number) bool {
	if b.min != nil && n.Cmp(*b.min) < 0 {
		return false
	}
	if b.max != nil && n.Cmp(*b.max) > 0 {
		return false
	}
	return true
}

func bound(s string) *value.Number {
	n, err := value.ParseInteger(s)
	if err != nil {
		panic("invalid integer bound " + s)
	}
	return &n
}

// integerTypes maps xsd integer datatype local names to their bounds.
var integerTypes = map[string]integerBounds{
	"integer":            {},
	"nonNegativeInteger": {min: bound("0")},
	"positiveInteger":    {min: bound("1")},
	"nonPositiveInteger": {max: bound("0")},
	"negativeInteger":    {max: bound("-1")},
	"long":               {min: bound("-9223372036854775808"), max: bound("9223372036854775807")},
	"int":                {min: bound("-2147483648"), max: bound("2147483647")},
	"short":              {min: bound("-32768"), max: bound("32767")},
	"byte":               {min: bound("-128"), max: bound("127")},
	"unsignedLong":       {min: bound("0"), max: bound("18446744073709551615")},
	"unsignedInt":        {min: bound("0"), max: bound("4294967295")},
	"unsignedShort":      {min: bound("0"), max: bound("65535")},
	"unsignedByte":       {min: bound("0"), max: bound("255")},
}
