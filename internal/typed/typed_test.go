package typed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

func text(s string) Value {
	return TextString{Value: s, Layout: 1}
}

func TestCompareOrdersVariantsThenContent(t *testing.T) {
	ordered := []Value{
		Always{},
		Unit{Layout: 1},
		Boolean{Value: false, Layout: 1},
		Boolean{Value: true, Layout: 1},
		Number{Value: value.NumberFromInt64(-2), Layout: 1},
		Number{Value: value.NewNumber(314, -2), Layout: 1},
		ByteString{Value: []byte{0x01}, Layout: 1},
		text("a"),
		text("b"),
		ID{IRI: "https://example.org/a", Layout: 1},
		Record{Fields: map[string]Value{"a": text("x")}, Layout: 1},
		Variant{Value: text("x"), Layout: 1, Index: 0},
		Variant{Value: text("x"), Layout: 1, Index: 1},
		List{Items: []Value{text("x")}, Layout: 1},
	}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Negative(t, Compare(ordered[i], ordered[i+1]), "%s < %s", ordered[i], ordered[i+1])
		assert.Positive(t, Compare(ordered[i+1], ordered[i]), "%s > %s", ordered[i+1], ordered[i])
	}
}

func TestCompareUsesLayoutAsTieBreak(t *testing.T) {
	a := TextString{Value: "x", Layout: 1}
	b := TextString{Value: "x", Layout: 2}
	assert.Negative(t, Compare(a, b))
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, TextString{Value: "x", Layout: 1}))
}

func TestCompareRecords(t *testing.T) {
	r := func(fields map[string]Value) Value { return Record{Fields: fields, Layout: 3} }
	assert.Equal(t, 0, Compare(r(map[string]Value{"a": text("1"), "b": text("2")}), r(map[string]Value{"b": text("2"), "a": text("1")})))
	assert.Negative(t, Compare(r(map[string]Value{"a": text("1")}), r(map[string]Value{"a": text("1"), "b": text("2")})))
	assert.Negative(t, Compare(r(map[string]Value{"a": text("1")}), r(map[string]Value{"a": text("2")})))
}

func TestSortIsDeterministic(t *testing.T) {
	vals := []Value{text("c"), text("a"), text("b")}
	Sort(vals)
	assert.Equal(t, []Value{text("a"), text("b"), text("c")}, vals)
}

func TestUntyped(t *testing.T) {
	v := Record{
		Layout: 1,
		Fields: map[string]Value{
			"name": text("Alice"),
			"kind": Variant{Value: ID{IRI: "https://example.org/Person", Layout: 2}, Layout: 3},
			"tags": List{Items: []Value{Boolean{Value: true}, Unit{}}, Layout: 4},
			"k":    Unit{Const: value.TextString("fixed")},
		},
	}
	assert.True(t, value.Equal(value.Map{
		"name": value.TextString("Alice"),
		"kind": value.TextString("https://example.org/Person"),
		"tags": value.List{value.Boolean(true), value.Unit{}},
		"k":    value.TextString("fixed"),
	}, Untyped(v)))
}

func TestString(t *testing.T) {
	v := Record{Layout: 1, Fields: map[string]Value{
		"b": List{Items: []Value{Number{Value: value.NewNumber(15, -1)}}},
		"a": text("x"),
	}}
	assert.Equal(t, `{"a": "x", "b": [1.5]}`, v.String())

	var lit Literal = ID{IRI: "urn:x", Layout: layout.Ref(7)}
	assert.Equal(t, layout.Ref(7), lit.LayoutRef())
}
