package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/pattern"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	reg, _ := compile(t, `
		layouts: {
			"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
			"https://example.org/layouts/Person": {
				kind:  "record"
				input: 1
				fields: name: {
					intro:   1
					dataset: [["?0", "https://example.org/name", "?1"]]
					value:   {layout: "https://example.org/layouts/Text", input: ["?1"]}
				}
			}
			"https://example.org/layouts/Names": {
				kind:  "list"
				input: 1
				head:  "?0"
				tail:  "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"
				node: {
					intro: 1
					dataset: [
						["?1", "http://www.w3.org/1999/02/22-rdf-syntax-ns#first", "?3"],
						["?1", "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest", "?2"],
					]
					value: {layout: "https://example.org/layouts/Text", input: ["?3"]}
				}
			}
		}
	`)

	errs := Validate(reg)
	assert.Empty(t, errs, "valid layouts should have no errors")
}

func TestValidateUnknownLayoutRef(t *testing.T) {
	reg, _ := compile(t, `
		layouts: "https://example.org/layouts/Tags": {
			kind:  "set"
			input: 1
			item: {
				intro:   1
				dataset: [["?0", "https://example.org/tag", "?1"]]
				value:   {layout: "https://example.org/layouts/Missing", input: ["?1"]}
			}
		}
	`)

	errs := Validate(reg)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownLayoutRef, errs[0].Code)
	assert.Equal(t, `layouts["https://example.org/layouts/Tags"].item.value.layout`, errs[0].Field)
	assert.Contains(t, errs[0].Message, "is not registered")
}

func TestValidateVariableOutOfScope(t *testing.T) {
	reg, _ := compile(t, `
		layouts: {
			"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?1"}
			"https://example.org/layouts/Person": {
				kind:  "record"
				input: 1
				dataset: [["?0", "https://example.org/p", "?2"]]
				fields: name: {
					intro:   1
					dataset: [["?0", "https://example.org/name", "?1"]]
					value:   {layout: "https://example.org/layouts/Text", input: ["?5"]}
				}
			}
		}
	`)

	errs := Validate(reg)
	assert.Equal(t, []string{ErrVariableOutOfScope, ErrVariableOutOfScope, ErrVariableOutOfScope}, codes(errs))
	assert.Equal(t, `layouts["https://example.org/layouts/Text"].resource`, errs[0].Field)
	assert.Equal(t, `layouts["https://example.org/layouts/Person"].dataset[0]`, errs[1].Field)
	assert.Equal(t, `layouts["https://example.org/layouts/Person"].fields.name.value.input[0]`, errs[2].Field)
}

func TestValidateInputArity(t *testing.T) {
	reg, _ := compile(t, `
		layouts: {
			"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
			"https://example.org/layouts/Any":  {kind: "always"}
			"https://example.org/layouts/Pair": {
				kind:  "tuple"
				input: 1
				items: [
					{value: {layout: "https://example.org/layouts/Text", input: ["?0", "?0"]}},
					{value: {layout: "https://example.org/layouts/Any", input: ["?0", "?0", "?0"]}},
				]
			}
		}
	`)

	errs := Validate(reg)
	require.Len(t, errs, 1, "always accepts any inputs")
	assert.Equal(t, ErrInputArity, errs[0].Code)
	assert.Contains(t, errs[0].Message, "expects 1 inputs, got 2")
}

func TestValidateEmptySum(t *testing.T) {
	reg, _ := compile(t, `
		layouts: "https://example.org/layouts/Nothing": {kind: "sum", input: 1}
	`)

	errs := Validate(reg)
	assert.Equal(t, []string{ErrEmptySum}, codes(errs))
}

func TestValidateUnboundIntro(t *testing.T) {
	reg, _ := compile(t, `
		layouts: {
			"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
			"https://example.org/layouts/Person": {
				kind:  "record"
				input: 1
				intro: 1
				fields: name: {
					intro:   2
					dataset: [["?0", "https://example.org/name", "?2"]]
					value:   {layout: "https://example.org/layouts/Text", input: ["?2"]}
				}
			}
		}
	`)

	errs := Validate(reg)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrUnboundIntro, errs[0].Code)
	assert.Contains(t, errs[0].Message, "?1")
	assert.Equal(t, `layouts["https://example.org/layouts/Person"].intro`, errs[0].Field)
	assert.Equal(t, ErrUnboundIntro, errs[1].Code)
	assert.Contains(t, errs[1].Message, "?3")
}

func TestValidateOrderedListNodeScope(t *testing.T) {
	reg := layout.NewRegistry()
	text := layout.Ref(1)
	list := layout.Ref(2)
	require.NoError(t, reg.Insert(text, &layout.TextString{Data: layout.Data{
		Header:   layout.Header{Input: 1},
		Resource: pattern.Var(0),
	}}))
	require.NoError(t, reg.Insert(list, &layout.OrderedList{
		Header: layout.Header{Input: 1},
		Head:   pattern.Var(0),
		Tail:   pattern.Var(0),
		Node: layout.Node{
			// The rest variable ?2 is never bound.
			Dataset: []pattern.Quad{pattern.NewQuad(pattern.Var(1), pattern.Var(0), pattern.Var(0))},
			Value:   layout.ValueFormat{Layout: text, Input: []pattern.Pattern{pattern.Var(3)}},
		},
	}))

	errs := Validate(reg)
	assert.Equal(t, []string{ErrUnboundIntro, ErrVariableOutOfScope}, codes(errs))
	assert.Equal(t, `layouts["#2"].node.intro`, errs[0].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "layouts.x", Message: "broken", Code: ErrEmptySum}
	assert.Equal(t, "[E204] layouts.x: broken", err.Error())
}
