package harness

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// pathSegment matches one dotted path segment with optional indices:
// "friends", "friends[0]", "matrix[1][2]".
var pathSegment = regexp.MustCompile(`^([^\[\]]*)((?:\[[0-9]+\])*)$`)

// step is one path step: a key or an index.
type step struct {
	key   string
	index int
	isKey bool
}

func parsePath(path string) ([]step, error) {
	if path == "" {
		return nil, nil
	}
	var steps []step
	for _, seg := range strings.Split(path, ".") {
		m := pathSegment.FindStringSubmatch(seg)
		if m == nil || (m[1] == "" && m[2] == "") {
			return nil, fmt.Errorf("invalid path %q", path)
		}
		if m[1] != "" {
			steps = append(steps, step{key: m[1], isKey: true})
		}
		for _, idx := range strings.Split(strings.Trim(m[2], "[]"), "][") {
			if idx == "" {
				continue
			}
			n, err := strconv.Atoi(idx)
			if err != nil {
				return nil, fmt.Errorf("invalid index in path %q", path)
			}
			steps = append(steps, step{index: n})
		}
	}
	return steps, nil
}

// resolvePath walks a JSON tree. ok is false if a step does not exist.
func resolvePath(root any, path string) (v any, ok bool, err error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, false, err
	}
	v = root
	for _, s := range steps {
		switch node := v.(type) {
		case map[string]any:
			if !s.isKey {
				return nil, false, nil
			}
			if v, ok = node[s.key]; !ok {
				return nil, false, nil
			}
		case []any:
			if s.isKey || s.index >= len(node) {
				return nil, false, nil
			}
			v = node[s.index]
		default:
			return nil, false, nil
		}
	}
	return v, true, nil
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Path     string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	fmt.Fprintf(&buf, "Assertion failed: %s at %s\n", e.Type, path)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func evaluate(root any, a Assertion) error {
	v, ok, err := resolvePath(root, a.Path)
	if err != nil {
		return err
	}

	switch a.Type {
	case AssertPresent:
		if !ok {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: "present", Actual: "absent"}
		}
	case AssertAbsent:
		if ok {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: "absent", Actual: describe(v)}
		}
	case AssertEquals:
		expected, err := normalize(a.Value)
		if err != nil {
			return fmt.Errorf("assertion value: %w", err)
		}
		if !ok {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: describe(expected), Actual: "absent"}
		}
		if !valuesEqual(expected, v) {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: describe(expected), Actual: describe(v)}
		}
	case AssertCount:
		if !ok {
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: fmt.Sprintf("%d items", a.Count), Actual: "absent"}
		}
		var n int
		switch node := v.(type) {
		case []any:
			n = len(node)
		case map[string]any:
			n = len(node)
		default:
			return &AssertionError{Type: a.Type, Path: a.Path, Expected: "a list or record", Actual: describe(v)}
		}
		if n != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Path:     a.Path,
				Expected: fmt.Sprintf("%d items", a.Count),
				Actual:   fmt.Sprintf("%d items", n),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against a hydrated JSON tree.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(root any, assertions []Assertion) []string {
	var errors []string
	for i, assertion := range assertions {
		if err := evaluate(root, assertion); err != nil {
			errors = append(errors, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errors
}

// normalize converts a YAML-decoded value to the JSON tree shape produced
// by format.ToAny, with json.Number leaves.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// valuesEqual compares JSON trees. Numbers compare by decimal value, so
// 1.50 equals 1.5.
func valuesEqual(expected, actual any) bool {
	switch exp := expected.(type) {
	case nil:
		return actual == nil
	case json.Number:
		act, ok := actual.(json.Number)
		if !ok {
			return false
		}
		a, _, err := apd.NewFromString(exp.String())
		if err != nil {
			return exp == act
		}
		b, _, err := apd.NewFromString(act.String())
		if err != nil {
			return false
		}
		return a.Cmp(b) == 0
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok || !valuesEqual(ev, av) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(exp[i], act[i]) {
				return false
			}
		}
		return true
	default:
		return expected == actual
	}
}

func describe(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
