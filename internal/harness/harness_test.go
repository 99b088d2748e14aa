package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const peopleLayouts = `
layouts: {
	"https://example.org/layouts/Text": {kind: "string", input: 1, resource: "?0"}
	"https://example.org/layouts/Person": {
		kind:  "record"
		input: 1
		fields: name: {
			intro:    1
			dataset:  [["?0", "https://example.org/name", "?1"]]
			value:    {layout: "https://example.org/layouts/Text", input: ["?1"]}
			required: true
		}
	}
}
`

const peopleData = `<https://example.org/alice> <https://example.org/name> "Alice" .
_:anon <https://example.org/name> "Anon" .
`

func expectValue(t *testing.T, src string) Expect {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &node))
	// Unmarshal yields a document node; the value is its only child.
	return Expect{Value: *node.Content[0]}
}

func personScenario(t *testing.T, backend string) *Scenario {
	return &Scenario{
		Name:        "person_" + backend,
		Description: "Hydrate a person",
		Layouts:     peopleLayouts,
		Datasets:    []string{peopleData},
		Layout:      "https://example.org/layouts/Person",
		Inputs:      []string{"https://example.org/alice"},
		Backend:     backend,
		Expect:      expectValue(t, "{name: Alice}"),
	}
}

func TestRun_Backends(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			result, err := Run(personScenario(t, backend))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Equal(t, map[string]any{"name": "Alice"}, result.Value)
			assert.False(t, result.Failed())
		})
	}
}

func TestRun_BlankInput(t *testing.T) {
	scenario := personScenario(t, BackendMemory)
	scenario.Inputs = []string{"_:anon"}
	scenario.Expect = expectValue(t, "{name: Anon}")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ValueMismatch(t *testing.T) {
	scenario := personScenario(t, BackendMemory)
	scenario.Expect = expectValue(t, "{name: Bob}")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "value mismatch")
	assert.Contains(t, result.Errors[0], `{"name":"Bob"}`)
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := personScenario(t, BackendMemory)
	scenario.Inputs = []string{"https://example.org/nobody"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "MISSING_DATA", result.ErrorCode)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Errors[0], "expected a value, got error MISSING_DATA")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	scenario := personScenario(t, BackendMemory)
	scenario.Expect = Expect{Error: "DATA_AMBIGUITY"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expected error DATA_AMBIGUITY, got success"}, result.Errors)
}

func TestRun_InputCount(t *testing.T) {
	scenario := personScenario(t, BackendMemory)
	scenario.Inputs = nil
	scenario.Expect = Expect{Error: "INVALID_INPUT_COUNT"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AssertionFailure(t *testing.T) {
	scenario := personScenario(t, BackendMemory)
	scenario.Assertions = []Assertion{{Type: AssertAbsent, Path: "name"}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
}

func TestRun_ScenarioErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Scenario)
		contains string
	}{
		{
			name:     "bad cue",
			mutate:   func(s *Scenario) { s.Layouts = "layouts: {" },
			contains: "compile layouts",
		},
		{
			name:     "bad nquads",
			mutate:   func(s *Scenario) { s.Datasets = []string{"<a> <b> ."} },
			contains: "datasets[0]",
		},
		{
			name:     "undeclared layout",
			mutate:   func(s *Scenario) { s.Layout = "https://example.org/layouts/Nope" },
			contains: "layout https://example.org/layouts/Nope is not declared",
		},
		{
			name:     "unknown backend",
			mutate:   func(s *Scenario) { s.Backend = "postgres" },
			contains: `unknown backend "postgres"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := personScenario(t, BackendMemory)
			tt.mutate(scenario)
			_, err := Run(scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/multi_document.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, first.Pass, "errors: %v", first.Errors)

	for range 5 {
		again, err := Run(scenario)
		require.NoError(t, err)
		assert.Equal(t, first.Value, again.Value)
	}
}

func TestRun_NumbersKeepDigits(t *testing.T) {
	scenario := &Scenario{
		Name:        "price",
		Description: "Decimal digits survive hydration",
		Layouts: `layouts: {
			"https://example.org/layouts/Num": {kind: "number", input: 1, resource: "?0"}
			"https://example.org/layouts/Item": {
				kind:  "record"
				input: 1
				fields: price: {
					intro:   1
					dataset: [["?0", "https://example.org/price", "?1"]]
					value:   {layout: "https://example.org/layouts/Num", input: ["?1"]}
				}
			}
		}`,
		Datasets: []string{`<https://example.org/s> <https://example.org/price> "3.50"^^<http://www.w3.org/2001/XMLSchema#decimal> .` + "\n"},
		Layout:   "https://example.org/layouts/Item",
		Inputs:   []string{"https://example.org/s"},
		Expect:   expectValue(t, "{price: 3.5}"),
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "3.50 equals 3.5: %v", result.Errors)
	assert.Equal(t, map[string]any{"price": json.Number("3.50")}, result.Value)
}

func TestParseTerm(t *testing.T) {
	assert.Equal(t, "_:b0", ParseTerm("_:b0").String())
	assert.Equal(t, "<https://example.org/a>", ParseTerm("https://example.org/a").String())
}
