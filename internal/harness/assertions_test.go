package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() any {
	return map[string]any{
		"name": "Alice",
		"age":  json.Number("42"),
		"friends": []any{
			map[string]any{"name": "Bob"},
			map[string]any{"name": "Carol"},
		},
		"nick": nil,
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"name", "Alice", true},
		{"friends[1].name", "Carol", true},
		{"friends[2]", nil, false},
		{"friends.name", nil, false},
		{"name[0]", nil, false},
		{"nick", nil, true},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok, err := resolvePath(sampleTree(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	root, ok, err := resolvePath(sampleTree(), "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleTree(), root)
}

func TestParsePath_Nested(t *testing.T) {
	steps, err := parsePath("matrix[1][2].x")
	require.NoError(t, err)
	assert.Equal(t, []step{
		{key: "matrix", isKey: true},
		{index: 1},
		{index: 2},
		{key: "x", isKey: true},
	}, steps)

	_, err = parsePath("a[b]")
	assert.Error(t, err)
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleTree(), []Assertion{
		{Type: AssertEquals, Path: "name", Value: "Alice"},
		{Type: AssertEquals, Path: "age", Value: 42},
		{Type: AssertEquals, Path: "friends[0]", Value: map[string]any{"name": "Bob"}},
		{Type: AssertEquals, Path: "nick", Value: nil},
		{Type: AssertCount, Path: "friends", Count: 2},
		{Type: AssertCount, Count: 4},
		{Type: AssertPresent, Path: "nick"},
		{Type: AssertAbsent, Path: "email"},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	errs := EvaluateAssertions(sampleTree(), []Assertion{
		{Type: AssertEquals, Path: "name", Value: "Bob"},
		{Type: AssertEquals, Path: "email", Value: "a@b"},
		{Type: AssertCount, Path: "friends", Count: 3},
		{Type: AssertCount, Path: "name", Count: 1},
		{Type: AssertPresent, Path: "email"},
		{Type: AssertAbsent, Path: "name"},
	})
	require.Len(t, errs, 6)
	assert.Contains(t, errs[0], `assertions[0]: Assertion failed: equals at name`)
	assert.Contains(t, errs[0], `Expected: "Bob"`)
	assert.Contains(t, errs[0], `Actual: "Alice"`)
	assert.Contains(t, errs[1], "Actual: absent")
	assert.Contains(t, errs[2], "Actual: 2 items")
	assert.Contains(t, errs[3], "a list or record")
	assert.Contains(t, errs[4], "Expected: present")
	assert.Contains(t, errs[5], "Expected: absent")
}

func TestValuesEqual_Numbers(t *testing.T) {
	assert.True(t, valuesEqual(json.Number("1.5"), json.Number("1.50")))
	assert.True(t, valuesEqual(json.Number("100"), json.Number("1E+2")))
	assert.False(t, valuesEqual(json.Number("1"), json.Number("2")))
	assert.False(t, valuesEqual(json.Number("1"), "1"))
}

func TestValuesEqual_Structures(t *testing.T) {
	assert.True(t, valuesEqual([]any{"a", nil}, []any{"a", nil}))
	assert.False(t, valuesEqual([]any{"a"}, []any{"a", "b"}))
	assert.False(t, valuesEqual(map[string]any{"a": true}, map[string]any{"a": true, "b": true}))
	assert.False(t, valuesEqual(map[string]any{"a": true}, []any{true}))
	assert.False(t, valuesEqual(nil, false))
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertEquals, Expected: "1", Actual: "2"}
	assert.Equal(t, "Assertion failed: equals at (root)\n  Expected: 1\n  Actual: 2", err.Error())
}
