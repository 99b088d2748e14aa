package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spruceid/treeldr-sub002/internal/layout"
)

func TestAnalyzeCyclesEmpty(t *testing.T) {
	warnings := AnalyzeCycles(layout.NewRegistry())
	assert.Empty(t, warnings, "empty registry should produce no warnings")
}

func TestAnalyzeCyclesDAG(t *testing.T) {
	reg, _ := compile(t, `
		layouts: {
			"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
			"https://example.org/layouts/Tags": {
				kind:  "set"
				input: 1
				item: {
					intro:   1
					dataset: [["?0", "https://example.org/tag", "?1"]]
					value:   {layout: "https://example.org/layouts/Text", input: ["?1"]}
				}
			}
			"https://example.org/layouts/Post": {
				kind:  "record"
				input: 1
				fields: {
					tags:  {value: {layout: "https://example.org/layouts/Tags", input: ["?0"]}}
					title: {value: {layout: "https://example.org/layouts/Text", input: ["?0"]}}
				}
			}
		}
	`)

	warnings := AnalyzeCycles(reg)
	assert.Empty(t, warnings, "DAG should produce no cycle warnings")
}

func TestAnalyzeCyclesSelfLoop(t *testing.T) {
	reg, _ := compile(t, `
		layouts: "https://example.org/layouts/Person": {
			kind:  "record"
			input: 1
			fields: friend: {
				intro:   1
				dataset: [["?0", "https://example.org/knows", "?1"]]
				value:   {layout: "https://example.org/layouts/Person", input: ["?1"]}
			}
		}
	`)

	warnings := AnalyzeCycles(reg)
	require.Len(t, warnings, 1)
	person := "https://example.org/layouts/Person"
	assert.Equal(t, []string{person, person}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "Self-recursive layout")
}

func TestAnalyzeCyclesMutualRecursion(t *testing.T) {
	reg, _ := compile(t, `
		layouts: {
			"https://example.org/layouts/Expr": {
				kind:  "sum"
				input: 1
				variants: [{
					name:    "lit"
					dataset: [["?0", "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", "https://example.org/Lit"]]
					value:   {layout: "https://example.org/layouts/Text", input: ["?0"]}
				}, {
					name:    "call"
					dataset: [["?0", "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", "https://example.org/Call"]]
					value:   {layout: "https://example.org/layouts/Call", input: ["?0"]}
				}]
			}
			"https://example.org/layouts/Call": {
				kind:  "set"
				input: 1
				item: {
					intro:   1
					dataset: [["?0", "https://example.org/arg", "?1"]]
					value:   {layout: "https://example.org/layouts/Expr", input: ["?1"]}
				}
			}
			"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
		}
	`)

	warnings := AnalyzeCycles(reg)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{
		"https://example.org/layouts/Call",
		"https://example.org/layouts/Expr",
		"https://example.org/layouts/Call",
	}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "Mutually recursive layouts")
}

func TestAnalyzeCyclesDeterministic(t *testing.T) {
	src := `
		layouts: {
			"https://example.org/layouts/B": {kind: "set", input: 1, item: value: {layout: "https://example.org/layouts/B", input: ["?0"]}}
			"https://example.org/layouts/A": {kind: "set", input: 1, item: value: {layout: "https://example.org/layouts/A", input: ["?0"]}}
		}
	`
	reg, _ := compile(t, src)
	first := AnalyzeCycles(reg)
	require.Len(t, first, 2)
	assert.Equal(t, "https://example.org/layouts/A", first[0].Path[0])
	assert.Equal(t, "https://example.org/layouts/B", first[1].Path[0])

	for range 10 {
		assert.Equal(t, first, AnalyzeCycles(reg))
	}
}
