package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))

	return v
}

func TestParseOptions(t *testing.T) {
	testCases := []struct {
		name          string
		raw           string
		expectedNames []string
		expectedCols  []string
	}{
		{
			name: "schema and table",
			raw: `{"schema":[{"name":"id","kind":"number"},"title",{"kind":"string"}],
				"table":{"columns":["title"],"columnResolvers":{"title":true}}}`,
			expectedNames: []string{"id", "title"},
			expectedCols:  []string{"title"},
		},
		{
			name:          "fields fallback",
			raw:           `{"fields":["a","b"]}`,
			expectedNames: []string{"a", "b"},
		},
		{
			name:          "bare array",
			raw:           `[{"name":"x","kind":"image","required":true}]`,
			expectedNames: []string{"x"},
		},
		{
			name:          "nothing usable",
			raw:           `{"other":1}`,
			expectedNames: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := ParseOptions(decode(t, tc.raw))
			assert.Equal(t, tc.expectedNames, opts.Schema.Names())
			assert.Equal(t, tc.expectedCols, opts.Table.Columns)
		})
	}
}

func TestParseOptions_FieldDetails(t *testing.T) {
	opts := ParseOptions(decode(t, `{"schema":[
		{"name":"owner","kind":"fk","ref":{"entity":"user","labelKey":"username"}},
		{"name":"photo","kind":"image"}]}`))

	owner, ok := opts.Schema.Field("owner")
	require.True(t, ok)
	require.NotNil(t, owner.Ref)
	assert.Equal(t, "user", owner.Ref.Entity)
	assert.Equal(t, Ref{Entity: "user", ValueKey: "id", LabelKey: "username", Size: 500}, owner.Ref.WithDefaults())

	assert.Equal(t, KindImage, opts.Schema.KindOf("photo"))
	assert.Equal(t, Kind(""), opts.Schema.KindOf("missing"))
	assert.Equal(t, []string{"owner", "photo"}, opts.FieldNames())
}
