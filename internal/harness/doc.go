// Package harness runs hydration conformance scenarios.
//
// A scenario compiles CUE layouts, loads N-Quads documents into a dataset,
// hydrates one layout from its inputs and checks the outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: person_record
//	description: "A record with a required and an optional field"
//	layouts: |
//	  layouts: "https://example.org/layouts/Person": {
//	    kind: "record"
//	    input: 1
//	    fields: name: { ... }
//	  }
//	datasets:
//	  - |
//	    <https://example.org/alice> <https://example.org/name> "Alice" .
//	layout: https://example.org/layouts/Person
//	inputs: [https://example.org/alice]
//	backend: sqlite          # optional, default memory
//	options:
//	  max_list_length: 100   # optional
//	expect:
//	  value: { name: Alice } # or error: MISSING_DATA
//	assertions:
//	  - type: equals
//	    path: name
//	    value: Alice
//
// # Assertion Types
//
// Paths address the hydrated JSON value: "friends[0].name".
//
//   - equals: the value at path equals the given value
//   - count: the list or record at path has exactly N entries
//   - present: the path exists
//   - absent: the path does not exist
//
// # Deterministic Testing
//
// Every scenario runs against a fresh dataset. Blank node prefixes come
// from testutil generators, so the same scenario always produces the same
// resources. Hydrated values are snapshotted as canonical JSON for golden
// file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/person.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
