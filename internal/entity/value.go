// Package entity holds the pure building blocks shared by the entity controller and the demo backend:
// row value coercion, the sort comparator, the filter engine, schema descriptors and the label picker.
package entity

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row is a single entity record keyed by field name.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// Keys returns the row keys in a stable (sorted) order.
// Decoded JSON objects lose their key order in Go, so every heuristic iterating "the row's own keys" uses this.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// ToNumber coerces a value to a float64 the way loosely typed UI code does.
// Values that carry no numeric meaning coerce to NaN.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case bool:
		if n {
			return 1
		}

		return 0
	case string:
		return parseNumber(n)
	case fmt.Stringer:
		return parseNumber(n.String())
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		n, err := strconv.ParseInt(lower, 0, 64)
		if err != nil {
			return math.NaN()
		}

		return float64(n)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(lower, "_n") {
		// ParseFloat accepts "inf", "nan" and underscores, which are not numbers in this domain
		return math.NaN()
	}

	return f
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ToString renders a value as display text.
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return formatFloat(s)
	case float32:
		return formatFloat(float64(s))
	case []any:
		parts := make([]string, len(s))
		for i, e := range s {
			parts[i] = ToString(e)
		}

		return strings.Join(parts, ",")
	case map[string]any, Row:
		return "[object Object]"
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// StrictEqual compares two values without type coercion.
// Numbers of any Go kind compare by value, composite values are never equal.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if isNumeric(a) && isNumeric(b) {
		return ToNumber(a) == ToNumber(b)
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any, map[string]any, Row:
		return false
	}

	defer func() { _ = recover() }() // uncomparable dynamic types

	return a == b
}

// Truthy reports whether v counts as set.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}

	if isNumeric(v) {
		n := ToNumber(v)
		return n != 0 && !math.IsNaN(n)
	}

	return true
}
