package entity

import (
	"encoding/json"
)

// Kind tags the semantic type of a schema field.
type Kind string

// Known field kinds.
const (
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindBool         Kind = "bool"
	KindDate         Kind = "date"
	KindFK           Kind = "fk"
	KindEnum         Kind = "enum"
	KindEmail        Kind = "email"
	KindURL          Kind = "url"
	KindFile         Kind = "file"
	KindImage        Kind = "image"
	KindImageGallery Kind = "image_gallery"
)

const (
	// DefaultValueKey is the reference value key used when none is configured.
	DefaultValueKey = "id"
	// DefaultLabelKey is the reference label key used when none is configured.
	DefaultLabelKey = "name"
	// DefaultRefSize bounds the page fetched for reference options.
	DefaultRefSize = 500
)

// Ref points a fk/enum field at a foreign entity.
type Ref struct {
	Entity   string `json:"entity"             toml:"entity"`
	ValueKey string `json:"valueKey,omitempty" toml:"valueKey"`
	LabelKey string `json:"labelKey,omitempty" toml:"labelKey"`
	Size     int    `json:"size,omitempty"     toml:"size"`
}

// WithDefaults fills unset keys and size.
func (r Ref) WithDefaults() Ref {
	if r.ValueKey == "" {
		r.ValueKey = DefaultValueKey
	}

	if r.LabelKey == "" {
		r.LabelKey = DefaultLabelKey
	}

	if r.Size <= 0 {
		r.Size = DefaultRefSize
	}

	return r
}

// Validation carries the optional per-field constraints.
type Validation struct {
	Type      string   `json:"type,omitempty"`
	Regex     string   `json:"regex,omitempty"`
	Message   string   `json:"message,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	OneOf     []any    `json:"one_of,omitempty"`
}

// Option is a {value, label} pair for select inputs.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// SchemaField describes one entity attribute.
type SchemaField struct {
	Name      string      `json:"name"`
	ClassName string      `json:"className,omitempty"`
	Kind      Kind        `json:"kind,omitempty"`
	Required  bool        `json:"required,omitempty"`
	Ref       *Ref        `json:"ref,omitempty"`
	OneOf     []any       `json:"one_of,omitempty"`
	Regex     string      `json:"regex,omitempty"`
	Min       *float64    `json:"min,omitempty"`
	Max       *float64    `json:"max,omitempty"`
	Validate  *Validation `json:"validate,omitempty"`
	Options   []Option    `json:"options,omitempty"`
}

// Schema is an ordered list of fields.
type Schema []SchemaField

// Field returns the named field.
func (s Schema) Field(name string) (SchemaField, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}

	return SchemaField{}, false
}

// KindOf returns the kind of the named field, or "" when it is unknown.
func (s Schema) KindOf(name string) Kind {
	f, _ := s.Field(name)
	return f.Kind
}

// Names lists the field names in order.
func (s Schema) Names() []string {
	out := make([]string, 0, len(s))
	for _, f := range s {
		out = append(out, f.Name)
	}

	return out
}

// TableConfig is the table column configuration of an entity.
type TableConfig struct {
	Columns         []string        `json:"columns"`
	ColumnResolvers map[string]bool `json:"columnResolvers"`
}

// Options is the normalized response of the options operation.
type Options struct {
	Schema Schema      `json:"schema"`
	Table  TableConfig `json:"table"`
}

// FieldNames returns the table columns when configured, the schema names otherwise.
func (o Options) FieldNames() []string {
	if len(o.Table.Columns) > 0 {
		out := make([]string, len(o.Table.Columns))
		copy(out, o.Table.Columns)

		return out
	}

	return o.Schema.Names()
}

// ParseOptions normalizes a raw options response.
// The schema is read from "schema", then "fields", then the bare top-level array.
// Bare string entries become {name}; entries without a name are dropped.
func ParseOptions(raw any) Options {
	var (
		out  Options
		list []any
	)

	switch v := raw.(type) {
	case Options:
		return v
	case *Options:
		if v != nil {
			return *v
		}

		return out
	case []any:
		list = v
	case map[string]any:
		if s, ok := v["schema"].([]any); ok {
			list = s
		} else if f, ok := v["fields"].([]any); ok {
			list = f
		}

		if t, ok := v["table"].(map[string]any); ok {
			out.Table = parseTable(t)
		}
	}

	out.Schema = NormalizeSchema(list)

	return out
}

// NormalizeSchema turns raw schema entries into fields.
func NormalizeSchema(list []any) Schema {
	out := make(Schema, 0, len(list))

	for _, entry := range list {
		switch e := entry.(type) {
		case string:
			if e != "" {
				out = append(out, SchemaField{Name: e})
			}
		case map[string]any:
			var f SchemaField
			if err := remarshal(e, &f); err != nil || f.Name == "" {
				continue
			}

			out = append(out, f)
		case SchemaField:
			if e.Name != "" {
				out = append(out, e)
			}
		}
	}

	return out
}

func parseTable(t map[string]any) TableConfig {
	cfg := TableConfig{ColumnResolvers: map[string]bool{}}

	if cols, ok := t["columns"].([]any); ok {
		for _, c := range cols {
			if s, ok := c.(string); ok && s != "" {
				cfg.Columns = append(cfg.Columns, s)
			}
		}
	}

	if res, ok := t["columnResolvers"].(map[string]any); ok {
		for k, v := range res {
			b, _ := v.(bool)
			cfg.ColumnResolvers[k] = b
		}
	}

	return cfg
}

func remarshal(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, out)
}
