package entity

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Op is a filter operator.
type Op string

// Supported filter operators.
const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpContains Op = "contains"
	OpIn       Op = "in"
)

// Condition is an explicit operator filter.
type Condition struct {
	Op    Op  `json:"op"`
	Value any `json:"value"`
}

// Filters maps a field name to either a bare value (implicit equality) or a Condition.
// Decoded JSON objects carrying an "op" key are treated as conditions too.
type Filters map[string]any

// asCondition reports whether f has the {op, value} shape.
func asCondition(f any) (Condition, bool) {
	switch c := f.(type) {
	case Condition:
		return c, true
	case *Condition:
		if c == nil {
			return Condition{}, false
		}

		return *c, true
	case map[string]any:
		op, ok := c["op"]
		if !ok {
			return Condition{}, false
		}

		s, _ := op.(string)

		return Condition{Op: Op(s), Value: c["value"]}, true
	}

	return Condition{}, false
}

// Matches evaluates a single filter against a field value.
func Matches(value, filter any) bool {
	c, ok := asCondition(filter)
	if !ok {
		return StrictEqual(value, filter)
	}

	switch c.Op {
	case OpNe:
		return !StrictEqual(value, c.Value)
	case OpLt:
		return ToNumber(value) < ToNumber(c.Value)
	case OpLte:
		return ToNumber(value) <= ToNumber(c.Value)
	case OpGt:
		return ToNumber(value) > ToNumber(c.Value)
	case OpGte:
		return ToNumber(value) >= ToNumber(c.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(ToString(value)), strings.ToLower(ToString(c.Value)))
	case OpIn:
		return containsValue(c.Value, value)
	default: // eq and unknown operators
		return StrictEqual(value, c.Value)
	}
}

func containsValue(list, value any) bool {
	if list == nil {
		return false
	}

	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}

	for i := range rv.Len() {
		if StrictEqual(rv.Index(i).Interface(), value) {
			return true
		}
	}

	return false
}

// ApplyFilters keeps the rows passing every filter.
func ApplyFilters(rows []Row, filters Filters) []Row {
	if len(filters) == 0 {
		return rows
	}

	out := make([]Row, 0, len(rows))

	for _, row := range rows {
		pass := true

		for key, f := range filters {
			if !Matches(row[key], f) {
				pass = false
				break
			}
		}

		if pass {
			out = append(out, row)
		}
	}

	return out
}

// Flatten reduces every set filter to its scalar value for use as query parameters.
// Operator semantics are lost; equality is all a remote backend can infer.
func (f Filters) Flatten() map[string]any {
	out := make(map[string]any, len(f))

	for key, v := range f {
		if !Truthy(v) {
			continue
		}

		if c, ok := asCondition(v); ok {
			out[key] = c.Value
			continue
		}

		if m, ok := v.(map[string]any); ok {
			if inner, has := m["value"]; has {
				out[key] = inner
				continue
			}
		}

		out[key] = v
	}

	return out
}

// Merge returns a new Filters with partial shallow-merged over f.
func (f Filters) Merge(partial Filters) Filters {
	out := f.Clone()
	for k, v := range partial {
		out[k] = v
	}

	return out
}

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}

	return out
}

// Encode renders the filters as JSON, or "" when there are none. Values JSON cannot represent, such as
// NaN or infinities, yield an error.
func (f Filters) Encode() (string, error) {
	if len(f) == 0 {
		return "", nil
	}

	b, err := json.Marshal(f)
	if err != nil {
		return "", errors.Wrap(err, "encode filters")
	}

	return string(b), nil
}

// Equal reports whether both filter sets hold the same keys with equal filters. A Condition, a *Condition
// and a decoded {op, value} map with the same operator and value are equal.
func (f Filters) Equal(other Filters) bool {
	if len(f) != len(other) {
		return false
	}

	for k, a := range f {
		b, ok := other[k]
		if !ok || !sameFilter(a, b) {
			return false
		}
	}

	return true
}

func sameFilter(a, b any) bool {
	ca, okA := asCondition(a)
	cb, okB := asCondition(b)

	if okA != okB {
		return false
	}

	if okA {
		return ca.Op == cb.Op && sameValue(ca.Value, cb.Value)
	}

	return sameValue(a, b)
}

// sameValue is reflect.DeepEqual that also treats two NaN floats as equal.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}

	fa, okA := a.(float64)
	fb, okB := b.(float64)

	return okA && okB && math.IsNaN(fa) && math.IsNaN(fb)
}
