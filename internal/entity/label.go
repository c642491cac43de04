package entity

import "strings"

// labelPreference is the ordered list of key names that usually carry a human readable label.
var labelPreference = map[string]struct{}{
	"name":         {},
	"title":        {},
	"label":        {},
	"code":         {},
	"display_name": {},
	"description":  {},
}

// PickLabel selects the display label of a referenced row.
//
// An explicit labelKey with a non-empty value wins. Otherwise the first key whose lower-cased name is in the
// preference list and holds a non-empty string is used, then the first non-empty string value, and finally
// the raw value under valueKey.
func PickLabel(row Row, valueKey, labelKey string) any {
	if labelKey != "" {
		if v, ok := row[labelKey]; ok && v != nil && v != "" {
			return v
		}
	}

	keys := row.Keys()

	for _, k := range keys {
		if _, preferred := labelPreference[strings.ToLower(k)]; !preferred {
			continue
		}

		if s, ok := row[k].(string); ok && s != "" {
			return s
		}
	}

	for _, k := range keys {
		if s, ok := row[k].(string); ok && s != "" {
			return s
		}
	}

	return row[valueKey]
}

// RefOptionsFromRows projects referenced rows to select options.
func RefOptionsFromRows(rows []Row, ref Ref) []Option {
	ref = ref.WithDefaults()

	out := make([]Option, 0, len(rows))
	for _, r := range rows {
		out = append(out, Option{
			Value: r[ref.ValueKey],
			Label: ToString(PickLabel(r, ref.ValueKey, ref.LabelKey)),
		})
	}

	return out
}
