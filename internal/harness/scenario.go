package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a hydration conformance scenario.
// A scenario compiles its layouts, loads its datasets, hydrates one layout
// and checks the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Layouts is CUE source declaring a `layouts` struct.
	Layouts string `yaml:"layouts"`

	// Datasets lists N-Quads documents. Each document has its own blank
	// node scope when there are several; a single document keeps its
	// labels as written.
	Datasets []string `yaml:"datasets"`

	// Layout is the IRI of the layout to hydrate.
	Layout string `yaml:"layout"`

	// Inputs are the input resources, as IRIs or "_:label" blank nodes.
	Inputs []string `yaml:"inputs,omitempty"`

	// Graph is the current graph. Empty means the default graph.
	Graph string `yaml:"graph,omitempty"`

	// Backend selects the dataset implementation: "memory" (default) or
	// "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// Options tune the hydrator.
	Options Options `yaml:"options,omitempty"`

	// Expect specifies the expected outcome.
	Expect Expect `yaml:"expect"`

	// Assertions check parts of the hydrated value.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Options mirror the hydrator options. Zero means the hydrator default.
type Options struct {
	MaxListLength int `yaml:"max_list_length,omitempty"`
	MaxDepth      int `yaml:"max_depth,omitempty"`
}

// Expect is either an error code or a value, never both.
type Expect struct {
	// Error is a hydration error code (e.g. "MISSING_DATA") or a layout
	// validation code (e.g. "E201").
	Error string `yaml:"error,omitempty"`

	// Value is the expected hydrated value in its JSON form.
	// Kind is zero when absent, so an explicit null can be expected.
	Value yaml.Node `yaml:"value,omitempty"`
}

// HasValue reports whether a value is expected.
func (e Expect) HasValue() bool {
	return e.Value.Kind != 0
}

// Assertion checks one location of the hydrated value.
type Assertion struct {
	// Type is one of equals, count, present, absent.
	Type string `yaml:"type"`

	// Path addresses a location: "friends[0].name". Empty is the root.
	Path string `yaml:"path,omitempty"`

	// Value is the expected value (equals).
	Value any `yaml:"value,omitempty"`

	// Count is the expected number of items or entries (count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertEquals  = "equals"
	AssertCount   = "count"
	AssertPresent = "present"
	AssertAbsent  = "absent"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if strings.TrimSpace(s.Layouts) == "" {
		return fmt.Errorf("layouts is required")
	}

	if s.Layout == "" {
		return fmt.Errorf("layout is required")
	}

	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	if s.Options.MaxListLength < 0 {
		return fmt.Errorf("options.max_list_length must be non-negative")
	}
	if s.Options.MaxDepth < 0 {
		return fmt.Errorf("options.max_depth must be non-negative")
	}

	if s.Expect.Error == "" && !s.Expect.HasValue() {
		return fmt.Errorf("expect requires error or value")
	}
	if s.Expect.Error != "" && s.Expect.HasValue() {
		return fmt.Errorf("expect cannot have both error and value")
	}
	if s.Expect.Error != "" && len(s.Assertions) > 0 {
		return fmt.Errorf("assertions require an expected value")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if _, err := parsePath(a.Path); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}

	switch a.Type {
	case AssertEquals, AssertPresent, AssertAbsent:
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
