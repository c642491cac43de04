package entity

import (
	"regexp"
	"sort"
	"time"
)

// SortDir is the direction of a sort.
type SortDir string

const (
	// SortAsc sorts ascending.
	SortAsc SortDir = "asc"
	// SortDesc sorts descending.
	SortDesc SortDir = "desc"
)

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDate parses an ISO date-like string. The second result is false when no layout matches.
func ParseDate(s string) (time.Time, bool) {
	if !isoDatePrefix.MatchString(s) {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// Compare totally orders two heterogeneous field values and returns -1, 0 or 1.
//
// Absent values sort first. Values that both read as finite numbers compare numerically, then ISO dates by
// timestamp, then booleans with false before true. Everything else compares by its string form.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if an, bn := ToNumber(a), ToNumber(b); IsFinite(an) && IsFinite(bn) {
		return cmpOrdered(an, bn)
	}

	as, aok := a.(string)
	bs, bok := b.(string)

	if aok && bok {
		if ta, ok := ParseDate(as); ok {
			if tb, ok := ParseDate(bs); ok {
				return cmpOrdered(ta.UnixNano(), tb.UnixNano())
			}
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case ab:
				return 1
			default:
				return -1
			}
		}
	}

	return cmpOrdered(ToString(a), ToString(b))
}

func cmpOrdered[T float64 | int64 | string](a, b T) int {
	switch {
	case a == b:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}

// SortRows returns a stably sorted copy of rows ordered by key.
func SortRows(rows []Row, key string, dir SortDir) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		c := Compare(out[i][key], out[j][key])
		if dir == SortDesc {
			c = -c
		}

		return c < 0
	})

	return out
}
