package entity

import (
	"math"
	"strings"
)

// ListFromResponse extracts rows from one of the accepted list response shapes:
// an object with an "items" array (and optionally a numeric "total"), a bare array, or, when acceptSingle is
// set, a single object carrying an "id" key. hasTotal reports whether the response reported a finite total.
func ListFromResponse(data any, acceptSingle bool) (rows []Row, total int, hasTotal bool) {
	switch v := data.(type) {
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			rows = toRows(items)

			if t, ok := v["total"]; ok && isNumeric(t) && IsFinite(ToNumber(t)) {
				return rows, int(ToNumber(t)), true
			}

			return rows, len(rows), false
		}

		if _, ok := v["id"]; ok && acceptSingle {
			return []Row{Row(v)}, 1, false
		}
	case Row:
		if _, ok := v["id"]; ok && acceptSingle {
			return []Row{v}, 1, false
		}
	case []any:
		rows = toRows(v)
		return rows, len(rows), false
	case []Row:
		return v, len(v), false
	case []map[string]any:
		rows = make([]Row, len(v))
		for i, m := range v {
			rows[i] = m
		}

		return rows, len(rows), false
	}

	return []Row{}, 0, false
}

func toRows(items []any) []Row {
	out := make([]Row, 0, len(items))

	for _, it := range items {
		switch m := it.(type) {
		case map[string]any:
			out = append(out, m)
		case Row:
			out = append(out, m)
		default:
			out = append(out, Row{})
		}
	}

	return out
}

// Search keeps the rows where any of keys holds a value containing needle, case-insensitively.
// When keys is empty the keys of the first row are used.
func Search(rows []Row, needle string, keys []string) []Row {
	needle = strings.ToLower(needle)
	if needle == "" {
		return rows
	}

	if len(keys) == 0 && len(rows) > 0 {
		keys = rows[0].Keys()
	}

	out := make([]Row, 0, len(rows))

	for _, r := range rows {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(ToString(r[k])), needle) {
				out = append(out, r)
				break
			}
		}
	}

	return out
}

// Columns picks the visible columns from fields.
// Without preferences and cap all fields are returned in order. Otherwise the preferred columns present in
// fields come first in the caller's order, followed by the remaining fields, capped at maxColumns.
func Columns(fields, preferred []string, maxColumns *int) []string {
	if len(fields) == 0 {
		return []string{}
	}

	if len(preferred) == 0 && maxColumns == nil {
		return fields
	}

	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}

	out := make([]string, 0, len(fields))
	picked := make(map[string]struct{}, len(preferred))

	for _, p := range preferred {
		if _, ok := known[p]; ok {
			out = append(out, p)
			picked[p] = struct{}{}
		}
	}

	rest := make([]string, 0, len(fields))

	for _, f := range fields {
		if _, ok := picked[f]; !ok {
			rest = append(rest, f)
		}
	}

	if maxColumns != nil {
		room := max(0, *maxColumns-len(out))
		rest = rest[:min(room, len(rest))]
	}

	return append(out, rest...)
}

// TotalPages returns max(1, ceil(total/pageSize)).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}

	return max(1, int(math.Ceil(float64(total)/float64(pageSize))))
}

// Paginate returns the rows of the 1-based page.
func Paginate(rows []Row, page, pageSize int) []Row {
	if pageSize <= 0 {
		return rows
	}

	start := (page - 1) * pageSize
	if start < 0 || start >= len(rows) {
		return []Row{}
	}

	return rows[start:min(start+pageSize, len(rows))]
}
