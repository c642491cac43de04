package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	testCases := []struct {
		name     string
		value    any
		filter   any
		expected bool
	}{
		{name: "implicit equality", value: 4.0, filter: 4, expected: true},
		{name: "implicit equality mismatch", value: "4", filter: 4, expected: false},
		{name: "eq", value: "a", filter: Condition{Op: OpEq, Value: "a"}, expected: true},
		{name: "ne", value: "a", filter: Condition{Op: OpNe, Value: "b"}, expected: true},
		{name: "lt numeric strings", value: "3", filter: Condition{Op: OpLt, Value: "10"}, expected: true},
		{name: "lte", value: 10.0, filter: &Condition{Op: OpLte, Value: 10}, expected: true},
		{name: "gt", value: 11.0, filter: Condition{Op: OpGt, Value: 10}, expected: true},
		{name: "gte", value: 30.0, filter: Condition{Op: OpGte, Value: 28}, expected: true},
		{name: "gte NaN is false", value: "abc", filter: Condition{Op: OpGte, Value: 0}, expected: false},
		{name: "lt nil is false", value: nil, filter: Condition{Op: OpLt, Value: 5}, expected: false},
		{name: "contains case insensitive", value: "Hello World", filter: Condition{Op: OpContains, Value: "WORLD"}, expected: true},
		{name: "contains nil value", value: nil, filter: Condition{Op: OpContains, Value: ""}, expected: true},
		{name: "in", value: "b", filter: Condition{Op: OpIn, Value: []any{"a", "b"}}, expected: true},
		{name: "in typed slice", value: 2.0, filter: Condition{Op: OpIn, Value: []int{1, 2}}, expected: true},
		{name: "in non array", value: "b", filter: Condition{Op: OpIn, Value: "b"}, expected: false},
		{name: "unknown op falls back to eq", value: "x", filter: Condition{Op: "like", Value: "x"}, expected: true},
		{name: "decoded json condition", value: 5.0, filter: map[string]any{"op": "gt", "value": 1.0}, expected: true},
		{name: "object without op is a bare value", value: 5.0, filter: map[string]any{"value": 5.0}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Matches(tc.value, tc.filter))
		})
	}
}

func TestApplyFilters(t *testing.T) {
	rows := []Row{
		{"id": 1.0, "name": "Bob", "age": 30.0, "status": "active"},
		{"id": 2.0, "name": "Amy", "age": 25.0, "status": "active"},
		{"id": 3.0, "name": "Cid", "age": 41.0, "status": "closed"},
	}

	got := ApplyFilters(rows, Filters{"age": Condition{Op: OpGte, Value: 28}})
	assert.Equal(t, []any{1.0, 3.0}, ids(got))

	got = ApplyFilters(rows, Filters{"age": Condition{Op: OpGte, Value: 28}, "status": "active"})
	assert.Equal(t, []any{1.0}, ids(got))

	assert.Len(t, ApplyFilters(rows, nil), 3)
}

func TestFilters_Flatten(t *testing.T) {
	f := Filters{
		"status": "active",
		"age":    Condition{Op: OpGte, Value: 28},
		"raw":    map[string]any{"value": "x"},
		"empty":  "",
		"zero":   0,
		"none":   nil,
	}

	assert.Equal(t, map[string]any{
		"status": "active",
		"age":    28,
		"raw":    "x",
	}, f.Flatten())
}

func TestFilters_Merge(t *testing.T) {
	var f Filters

	f = f.Merge(Filters{"status": "active"})
	f = f.Merge(Filters{"region": "west"})
	require.Equal(t, Filters{"status": "active", "region": "west"}, f)

	before := f
	f = f.Merge(Filters{"status": "closed"})
	assert.Equal(t, Filters{"status": "closed", "region": "west"}, f)
	assert.Equal(t, "active", before["status"], "merge never mutates the receiver")
}

func TestFilters_Encode(t *testing.T) {
	out, err := Filters{}.Encode()
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Filters{"age": Condition{Op: OpGte, Value: 28}}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"age":{"op":"gte","value":28}}`, out)

	_, err = Filters{"age": Condition{Op: OpGte, Value: math.Inf(1)}}.Encode()
	require.Error(t, err)
}

func TestFilters_Equal(t *testing.T) {
	inf := Condition{Op: OpGte, Value: math.Inf(1)}

	testCases := []struct {
		name     string
		a, b     Filters
		expected bool
	}{
		{name: "both empty", a: Filters{}, b: nil, expected: true},
		{name: "same scalar", a: Filters{"a": 1}, b: Filters{"a": 1}, expected: true},
		{name: "different scalar", a: Filters{"a": 1}, b: Filters{"a": 2}, expected: false},
		{name: "different keys", a: Filters{"a": 1}, b: Filters{"b": 1}, expected: false},
		{name: "extra key", a: Filters{"a": 1}, b: Filters{"a": 1, "b": 2}, expected: false},
		{name: "unencodable vs empty", a: Filters{}, b: Filters{"age": inf}, expected: false},
		{name: "same unencodable", a: Filters{"age": inf}, b: Filters{"age": inf}, expected: true},
		{name: "NaN equals NaN", a: Filters{"x": math.NaN()}, b: Filters{"x": math.NaN()}, expected: true},
		{
			name:     "condition shapes",
			a:        Filters{"age": Condition{Op: OpGte, Value: 28.0}},
			b:        Filters{"age": map[string]any{"op": "gte", "value": 28.0}},
			expected: true,
		},
		{
			name:     "condition vs bare value",
			a:        Filters{"age": Condition{Op: OpEq, Value: 28.0}},
			b:        Filters{"age": 28.0},
			expected: false,
		},
		{name: "slices", a: Filters{"id": []any{1.0, 2.0}}, b: Filters{"id": []any{1.0, 2.0}}, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Equal(tc.b))
			assert.Equal(t, tc.expected, tc.b.Equal(tc.a))
		})
	}
}
