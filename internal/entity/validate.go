package entity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationErrors maps a field name to the reason it was rejected.
type ValidationErrors map[string]string

// Error implements error.
func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateRow checks row against the constraints declared in schema.
// Absent optional fields are not checked. File kinds are skipped, their payload shape is backend specific.
func ValidateRow(row Row, schema Schema) error {
	errs := ValidationErrors{}

	for _, f := range schema {
		if msg := validateField(row[f.Name], f); msg != "" {
			errs[f.Name] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

func validateField(value any, f SchemaField) string {
	rules := f.Validate
	if rules == nil {
		rules = &Validation{}
	}

	fail := func(def string) string {
		if rules.Message != "" {
			return rules.Message
		}

		return def
	}

	if value == nil || value == "" {
		if f.Required {
			return fail("is required")
		}

		return ""
	}

	switch f.Kind {
	case KindFile, KindImage, KindImageGallery:
		return ""
	}

	if tag := formatTag(f, rules); tag != "" {
		if err := validate.Var(ToString(value), tag); err != nil {
			return fail("must be a valid " + tag)
		}
	}

	if f.Kind == KindNumber || rules.Min != nil || rules.Max != nil || f.Min != nil || f.Max != nil {
		if msg := checkRange(value, f, rules); msg != "" {
			return fail(msg)
		}
	}

	if rules.MinLength != nil || rules.MaxLength != nil {
		var tags []string
		if rules.MinLength != nil {
			tags = append(tags, fmt.Sprintf("min=%d", *rules.MinLength))
		}

		if rules.MaxLength != nil {
			tags = append(tags, fmt.Sprintf("max=%d", *rules.MaxLength))
		}

		if err := validate.Var(ToString(value), strings.Join(tags, ",")); err != nil {
			return fail("has an invalid length")
		}
	}

	if pattern := firstNonEmpty(rules.Regex, f.Regex); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err == nil && !re.MatchString(ToString(value)) {
			return fail("does not match " + pattern)
		}
	}

	if allowed := append(append([]any{}, f.OneOf...), rules.OneOf...); len(allowed) > 0 {
		if !oneOf(value, allowed) {
			return fail("is not an allowed value")
		}
	}

	return ""
}

func formatTag(f SchemaField, rules *Validation) string {
	switch {
	case f.Kind == KindEmail || rules.Type == "email":
		return "email"
	case f.Kind == KindURL || rules.Type == "url":
		return "url"
	}

	return ""
}

func checkRange(value any, f SchemaField, rules *Validation) string {
	n := ToNumber(value)
	if !IsFinite(n) {
		return "must be a number"
	}

	var tags []string

	if lo := firstBound(rules.Min, f.Min); lo != nil {
		tags = append(tags, fmt.Sprintf("gte=%v", *lo))
	}

	if hi := firstBound(rules.Max, f.Max); hi != nil {
		tags = append(tags, fmt.Sprintf("lte=%v", *hi))
	}

	if len(tags) == 0 {
		return ""
	}

	if err := validate.Var(n, strings.Join(tags, ",")); err != nil {
		return "is out of range"
	}

	return ""
}

func oneOf(value any, allowed []any) bool {
	for _, a := range allowed {
		if StrictEqual(value, a) || ToString(value) == ToString(a) {
			return true
		}
	}

	return false
}

func firstBound(a, b *float64) *float64 {
	if a != nil {
		return a
	}

	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
