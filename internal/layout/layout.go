// Package layout defines layouts: declarative descriptions of how a typed
// tree value is laid out in an RDF dataset.
//
// Layout is a sealed interface; the hydration interpreter dispatches over
// its variants with an exhaustive type switch. Layouts are read-only once
// registered and are identified by a Ref.
//
// Every layout except Never and Always carries a Header: the number of
// input resources it expects, the number of variables it introduces, and
// its own dataset patterns. Variable indices used by a layout and its
// children are relative to the enclosing scope: inputs first, then the
// introduced variables, then the variables introduced by the child.
package layout

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spruceid/treeldr-sub002/internal/pattern"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// Ref identifies a layout. It is the resource interpreting the layout IRI.
type Ref rdf.Resource

// String returns the underlying resource representation.
func (r Ref) String() string { return rdf.Resource(r).String() }

// Resource returns the underlying resource.
func (r Ref) Resource() rdf.Resource { return rdf.Resource(r) }

// Kind enumerates the layout variants.
type Kind uint8

const (
	KindNever Kind = iota
	KindAlways
	KindUnit
	KindBoolean
	KindNumber
	KindByteString
	KindTextString
	KindID
	KindProduct
	KindSum
	KindUnorderedList
	KindOrderedList
	KindSizedList
)

var kindNames = [...]string{
	KindNever:         "never",
	KindAlways:        "always",
	KindUnit:          "unit",
	KindBoolean:       "boolean",
	KindNumber:        "number",
	KindByteString:    "bytes",
	KindTextString:    "string",
	KindID:            "id",
	KindProduct:       "record",
	KindSum:           "sum",
	KindUnorderedList: "set",
	KindOrderedList:   "list",
	KindSizedList:     "tuple",
}

// String returns the kind keyword used in layout definitions.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Layout is a sealed interface over layout variants.
type Layout interface {
	layout() // Sealed
	Kind() Kind
}

// Header is shared by every layout except Never and Always.
type Header struct {
	// Input is the number of input resources.
	Input uint32

	// Intro is the number of variables introduced before matching Dataset.
	Intro uint32

	// Dataset is the layout's own patterns. Indices below Input refer to
	// the inputs, the next Intro indices to the introduced variables.
	Dataset []pattern.Quad
}

// InputCount returns the number of inputs a layout expects. fixed is false
// for Never and Always, which accept any inputs.
func InputCount(l Layout) (count uint32, fixed bool) {
	if h, ok := HeaderOf(l); ok {
		return h.Input, true
	}
	return 0, false
}

// HeaderOf returns the header of l; ok is false for Never and Always.
func HeaderOf(l Layout) (Header, bool) {
	switch l := l.(type) {
	case *Unit:
		return l.Header, true
	case *Boolean:
		return l.Header, true
	case *Number:
		return l.Header, true
	case *ByteString:
		return l.Header, true
	case *TextString:
		return l.Header, true
	case *ID:
		return l.Header, true
	case *Product:
		return l.Header, true
	case *Sum:
		return l.Header, true
	case *UnorderedList:
		return l.Header, true
	case *OrderedList:
		return l.Header, true
	case *SizedList:
		return l.Header, true
	default:
		return Header{}, false
	}
}

// Children returns the value formats l delegates to. Record fields come
// in name order, everything else in declaration order.
func Children(l Layout) []ValueFormat {
	var fs []ValueFormat
	switch l := l.(type) {
	case *Product:
		for _, name := range slices.Sorted(maps.Keys(l.Fields)) {
			fs = append(fs, l.Fields[name].Value)
		}
	case *Sum:
		for _, v := range l.Variants {
			fs = append(fs, v.Value)
		}
	case *UnorderedList:
		fs = append(fs, l.Item.Value)
	case *OrderedList:
		fs = append(fs, l.Node.Value)
	case *SizedList:
		for _, item := range l.Items {
			fs = append(fs, item.Value)
		}
	}
	return fs
}

// Never matches nothing. Hydrating it always fails.
type Never struct{}

// Always matches anything without looking at the dataset.
type Always struct{}

// Unit is a literal layout without content. Const, if set, is the value
// the unit stands for in the tree.
type Unit struct {
	Header
	Const value.Value
}

// Data is shared by the data literal layouts: Resource designates the
// literal resource and Datatype the resource of the accepted datatype.
type Data struct {
	Header
	Resource pattern.Pattern
	Datatype rdf.Resource
}

// Boolean is a boolean literal layout.
type Boolean struct{ Data }

// Number is a numeric literal layout.
type Number struct{ Data }

// ByteString is a byte string literal layout.
type ByteString struct{ Data }

// TextString is a text string literal layout.
type TextString struct{ Data }

// ID is a literal layout whose value is the IRI of Resource.
type ID struct {
	Header
	Resource pattern.Pattern
}

// Product is a record layout.
type Product struct {
	Header
	Fields map[string]Field
}

// Field is a record field. Fields do not interact: each one is matched
// independently from the record substitution.
type Field struct {
	Intro   uint32
	Dataset []pattern.Quad
	Value   ValueFormat

	// Required fields must match; other fields are omitted when their
	// dataset has no solution.
	Required bool
}

// Sum is a tagged union layout. Exactly one variant must match.
type Sum struct {
	Header
	Variants []Variant
}

// Variant is a sum variant.
type Variant struct {
	Name    string
	Intro   uint32
	Dataset []pattern.Quad
	Value   ValueFormat
}

// Item describes one element of an unordered or sized list.
type Item struct {
	Intro   uint32
	Dataset []pattern.Quad
	Value   ValueFormat
}

// UnorderedList is a set layout: every solution of Item.Dataset is an
// element.
type UnorderedList struct {
	Header
	Item Item
}

// OrderedList is a linked list layout. Head and Tail are evaluated after
// the layout's own dataset; nodes are visited from Head until Tail.
type OrderedList struct {
	Header
	Head pattern.Pattern
	Tail pattern.Pattern
	Node Node
}

// Node describes one cell of an ordered list. With a scope of length n,
// variable n is the current cell, n+1 the rest of the list, and the Intro
// following variables are the node's own.
type Node struct {
	Intro   uint32
	Dataset []pattern.Quad
	Value   ValueFormat
}

// SizedList is a tuple layout with one Item per position.
type SizedList struct {
	Header
	Items []Item
}

func (*Never) layout()         {}
func (*Always) layout()        {}
func (*Unit) layout()          {}
func (*Boolean) layout()       {}
func (*Number) layout()        {}
func (*ByteString) layout()    {}
func (*TextString) layout()    {}
func (*ID) layout()            {}
func (*Product) layout()       {}
func (*Sum) layout()           {}
func (*UnorderedList) layout() {}
func (*OrderedList) layout()   {}
func (*SizedList) layout()     {}

func (*Never) Kind() Kind         { return KindNever }
func (*Always) Kind() Kind        { return KindAlways }
func (*Unit) Kind() Kind          { return KindUnit }
func (*Boolean) Kind() Kind       { return KindBoolean }
func (*Number) Kind() Kind        { return KindNumber }
func (*ByteString) Kind() Kind    { return KindByteString }
func (*TextString) Kind() Kind    { return KindTextString }
func (*ID) Kind() Kind            { return KindID }
func (*Product) Kind() Kind       { return KindProduct }
func (*Sum) Kind() Kind           { return KindSum }
func (*UnorderedList) Kind() Kind { return KindUnorderedList }
func (*OrderedList) Kind() Kind   { return KindOrderedList }
func (*SizedList) Kind() Kind     { return KindSizedList }
