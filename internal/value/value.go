// Package value defines untyped tree values: the values bound to pattern
// variables during matching and the constants carried by layouts.
//
// Value is a sealed interface. Only Resource, Unit, Boolean, Number,
// ByteString, TextString, Map and List implement it. Values are totally
// ordered by Compare; use Equal instead of == since some variants hold
// slices.
package value

import (
	"bytes"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/spruceid/treeldr-sub002/internal/rdf"
)

// Value is a sealed interface over untyped tree values.
type Value interface {
	value() // Sealed
	String() string
}

// Resource is a bare RDF resource.
type Resource rdf.Resource

func (Resource) value() {}

// String returns the resource debug representation.
func (r Resource) String() string { return rdf.Resource(r).String() }

// Unit is the unit literal.
type Unit struct{}

func (Unit) value() {}

// String returns "()".
func (Unit) String() string { return "()" }

// Boolean is a boolean literal.
type Boolean bool

func (Boolean) value() {}

// String returns "true" or "false".
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

func (Number) value() {}

// ByteString is a byte string literal.
type ByteString []byte

func (ByteString) value() {}

// String returns the hexadecimal encoding prefixed with "#x".
func (b ByteString) String() string { return "#x" + hex.EncodeToString(b) }

// TextString is a text string literal.
type TextString string

func (TextString) value() {}

// String returns the quoted text.
func (s TextString) String() string { return strconv.Quote(string(s)) }

// Map is a map of text keys to values. Use SortedKeys for deterministic
// iteration.
type Map map[string]Value

func (Map) value() {}

// SortedKeys returns the keys in ascending byte order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String renders the map with sorted keys.
func (m Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range m.SortedKeys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(m[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

// List is an ordered list of values.
type List []Value

func (List) value() {}

// String renders the list.
func (l List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}

// IntoResource returns the resource held by v. The boolean is false when v
// is not a bare resource.
func IntoResource(v Value) (rdf.Resource, bool) {
	r, ok := v.(Resource)
	return rdf.Resource(r), ok
}

// Of wraps a resource.
func Of(r rdf.Resource) Value {
	return Resource(r)
}

// Resources wraps every resource of rs.
func Resources(rs []rdf.Resource) []Value {
	vals := make([]Value, len(rs))
	for i, r := range rs {
		vals[i] = Resource(r)
	}
	return vals
}

// rank orders variants: resources first, then literals, then maps and lists.
func rank(v Value) int {
	switch v.(type) {
	case Resource:
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
	case Map:
		return 6
	case List:
		return 7
	default:
		return 8
	}
}

// Compare is a total order over values: first by variant, then by content.
// nil sorts before every value.
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
		return cmpInt(ra, rb)
	}
	switch a := a.(type) {
	case Resource:
		return rdf.Resource(a).Compare(rdf.Resource(b.(Resource)))
	case Unit:
		return 0
	case Boolean:
		bb := b.(Boolean)
		switch {
		case a == bb:
			return 0
		case !bool(a):
			return -1
		default:
			return 1
		}
	case Number:
		return a.Compare(b.(Number))
	case ByteString:
		return bytes.Compare(a, b.(ByteString))
	case TextString:
		return strings.Compare(string(a), string(b.(TextString)))
	case Map:
		return compareMaps(a, b.(Map))
	case List:
		return slices.CompareFunc(a, b.(List), Compare)
	default:
		return 0
	}
}

// compareMaps orders maps by their sorted (key, value) entries.
func compareMaps(a, b Map) int {
	ka, kb := a.SortedKeys(), b.SortedKeys()
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := Compare(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ka), len(kb))
}

// Equal reports whether a and b are the same value.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
