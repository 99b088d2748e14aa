// Package typed defines typed tree values: the output of hydration.
//
// Every typed value except Always remembers the layout that produced it.
// Values are totally ordered by Compare, which the interpreter uses to sort
// the elements of unordered lists.
package typed

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// Value is a sealed interface over typed values.
type Value interface {
	typed() // Sealed
	String() string
}

// Literal is implemented by the literal typed values.
type Literal interface {
	Value
	literal()
	LayoutRef() layout.Ref
}

// Always is produced by the Always layout.
type Always struct{}

// Unit is a unit literal. Const is the constant declared by the layout,
// or nil.
type Unit struct {
	Const  value.Value
	Layout layout.Ref
}

// Boolean is a boolean literal.
type Boolean struct {
	Value  bool
	Layout layout.Ref
}

// Number is a numeric literal.
type Number struct {
	Value  value.Number
	Layout layout.Ref
}

// ByteString is a byte string literal.
type ByteString struct {
	Value  []byte
	Layout layout.Ref
}

// TextString is a text string literal.
type TextString struct {
	Value  string
	Layout layout.Ref
}

// ID is an IRI identifying the hydrated resource.
type ID struct {
	IRI    string
	Layout layout.Ref
}

// Record is a hydrated product layout. Absent optional fields have no entry.
type Record struct {
	Fields map[string]Value
	Layout layout.Ref
}

// Variant is the single matching variant of a sum layout.
type Variant struct {
	Value  Value
	Layout layout.Ref
	Index  int
}

// List is a hydrated list layout.
type List struct {
	Items  []Value
	Layout layout.Ref
}

func (Always) typed()     {}
func (Unit) typed()       {}
func (Boolean) typed()    {}
func (Number) typed()     {}
func (ByteString) typed() {}
func (TextString) typed() {}
func (ID) typed()         {}
func (Record) typed()     {}
func (Variant) typed()    {}
func (List) typed()       {}

func (Unit) literal()       {}
func (Boolean) literal()    {}
func (Number) literal()     {}
func (ByteString) literal() {}
func (TextString) literal() {}
func (ID) literal()         {}

func (v Unit) LayoutRef() layout.Ref       { return v.Layout }
func (v Boolean) LayoutRef() layout.Ref    { return v.Layout }
func (v Number) LayoutRef() layout.Ref     { return v.Layout }
func (v ByteString) LayoutRef() layout.Ref { return v.Layout }
func (v TextString) LayoutRef() layout.Ref { return v.Layout }
func (v ID) LayoutRef() layout.Ref         { return v.Layout }

func (Always) String() string { return "()" }

func (v Unit) String() string {
	if v.Const == nil {
		return "()"
	}
	return v.Const.String()
}

func (v Boolean) String() string    { return strconv.FormatBool(v.Value) }
func (v Number) String() string     { return v.Value.String() }
func (v ByteString) String() string { return "#x" + hex.EncodeToString(v.Value) }
func (v TextString) String() string { return strconv.Quote(v.Value) }
func (v ID) String() string         { return "<" + v.IRI + ">" }

func (v Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range SortedKeys(v.Fields) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", strconv.Quote(k), v.Fields[k])
	}
	b.WriteByte('}')
	return b.String()
}

func (v Variant) String() string {
	return fmt.Sprintf("%d(%s)", v.Index, v.Value)
}

func (v List) String() string {
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SortedKeys returns the field names of a record in ascending byte order.
func SortedKeys(fields map[string]Value) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Untyped drops layout information, turning v into an untyped value.
// Always and constant-less units become value.Unit; variants are
// transparent; IDs become text strings.
func Untyped(v Value) value.Value {
	switch v := v.(type) {
	case Unit:
		if v.Const != nil {
			return v.Const
		}
		return value.Unit{}
	case Boolean:
		return value.Boolean(v.Value)
	case Number:
		return v.Value
	case ByteString:
		return value.ByteString(slices.Clone(v.Value))
	case TextString:
		return value.TextString(v.Value)
	case ID:
		return value.TextString(v.IRI)
	case Record:
		m := make(value.Map, len(v.Fields))
		for k, f := range v.Fields {
			m[k] = Untyped(f)
		}
		return m
	case Variant:
		return Untyped(v.Value)
	case List:
		l := make(value.List, len(v.Items))
		for i, item := range v.Items {
			l[i] = Untyped(item)
		}
		return l
	default:
		return value.Unit{}
	}
}

func rank(v Value) int {
	switch v.(type) {
	case Always:
		return 0
	case Unit:
		return 1
	case Boolean:
		return 2
	case Number:
		return 3
	case ByteString:
		return 4
	case TextString:
		return 5
	case ID:
		return 6
	case Record:
		return 7
	case Variant:
		return 8
	case List:
		return 9
	default:
		return 10
	}
}

// Compare is a total order over typed values: by variant, then content,
// then producing layout. nil sorts first.
func Compare(a, b Value) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		return cmpOrdered(ra, rb)
	}
	switch a := a.(type) {
	case Always:
		return 0
	case Unit:
		bu := b.(Unit)
		return thenLayout(value.Compare(a.Const, bu.Const), a.Layout, bu.Layout)
	case Boolean:
		bb := b.(Boolean)
		return thenLayout(value.Compare(value.Boolean(a.Value), value.Boolean(bb.Value)), a.Layout, bb.Layout)
	case Number:
		bn := b.(Number)
		return thenLayout(a.Value.Compare(bn.Value), a.Layout, bn.Layout)
	case ByteString:
		bb := b.(ByteString)
		return thenLayout(bytes.Compare(a.Value, bb.Value), a.Layout, bb.Layout)
	case TextString:
		bt := b.(TextString)
		return thenLayout(strings.Compare(a.Value, bt.Value), a.Layout, bt.Layout)
	case ID:
		bi := b.(ID)
		return thenLayout(strings.Compare(a.IRI, bi.IRI), a.Layout, bi.Layout)
	case Record:
		br := b.(Record)
		return thenLayout(compareFields(a.Fields, br.Fields), a.Layout, br.Layout)
	case Variant:
		bv := b.(Variant)
		if c := cmpOrdered(a.Index, bv.Index); c != 0 {
			return c
		}
		return thenLayout(Compare(a.Value, bv.Value), a.Layout, bv.Layout)
	case List:
		bl := b.(List)
		return thenLayout(slices.CompareFunc(a.Items, bl.Items, Compare), a.Layout, bl.Layout)
	default:
		return 0
	}
}

// Equal reports whether a and b are the same typed value.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Sort sorts values in place by Compare.
func Sort(values []Value) {
	slices.SortStableFunc(values, Compare)
}

func compareFields(a, b map[string]Value) int {
	ka, kb := SortedKeys(a), SortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := Compare(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return cmpOrdered(len(ka), len(kb))
}

func thenLayout(c int, a, b layout.Ref) int {
	if c != 0 {
		return c
	}
	return a.Resource().Compare(b.Resource())
}

func cmpOrdered[T int | uint32](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
