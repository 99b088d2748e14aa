package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/spruceid/treeldr-sub002/internal/format"
)

// Snapshot is the golden file content of a scenario outcome.
type Snapshot struct {
	ScenarioName string
	Value        any
	ErrorCode    string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical
// JSON serialization. A failed hydration records its code, not a value.
func (s *Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{"scenario": s.ScenarioName}
	if s.ErrorCode != "" {
		m["error"] = s.ErrorCode
	} else {
		m["value"] = s.Value
	}
	return m
}

// Marshal returns the canonical JSON of the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return format.MarshalAny(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Value:        result.Value,
		ErrorCode:    result.ErrorCode,
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
