package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

func TestDeepMerge(t *testing.T) {
	base := map[string]any{
		"schema": []any{"a"},
		"table":  map[string]any{"columns": []any{"a"}, "columnResolvers": map[string]any{"a": true}},
		"keep":   1,
	}
	extra := map[string]any{
		"schema": []any{"b"},
		"table":  map[string]any{"columns": []any{"b"}},
	}

	out := DeepMerge(base, extra)

	assert.Equal(t, []any{"b"}, out["schema"], "arrays are replaced")
	assert.Equal(t, 1, out["keep"])
	assert.Equal(t, map[string]any{
		"columns":         []any{"b"},
		"columnResolvers": map[string]any{"a": true},
	}, out["table"])
	assert.Equal(t, []any{"a"}, base["table"].(map[string]any)["columns"], "base is not mutated")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("acme", ProviderFunc(func(_ context.Context, entityName string) (map[string]any, error) {
		return map[string]any{"schema": []any{entityName}}, nil
	}))

	doc, err := r.Options(context.Background(), "acme", "user")
	require.NoError(t, err)
	assert.Equal(t, []any{"user"}, doc["schema"])

	_, err = r.Options(context.Background(), "other", "user")
	require.ErrorIs(t, err, ErrUnknownClient)

	assert.Equal(t, []string{"acme"}, r.Clients())
}

func writeDoc(t *testing.T, dir, client, name, body string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, client), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, client, name), []byte(body), 0o600))
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()

	writeDoc(t, dir, "acme", "user.toml", `
[[schema]]
name = "id"
kind = "number"

[[schema]]
name = "name"
kind = "string"
required = true

[table]
columns = ["name"]
`)
	writeDoc(t, dir, "acme", "order.toml", `
[base]
[[base.schema]]
name = "id"

[base.table]
columns = ["id"]

[extra.table]
columnResolvers = { id = true }
`)
	writeDoc(t, dir, "acme", "notes.txt", "ignored")

	p := NewDirProvider(dir, "acme")

	testCases := []struct {
		name          string
		entity        string
		expectedNames []string
		expectedCols  []string
		expectedErr   error
	}{
		{name: "plain document", entity: "user", expectedNames: []string{"id", "name"}, expectedCols: []string{"name"}},
		{name: "base and extra", entity: "order", expectedNames: []string{"id"}, expectedCols: []string{"id"}},
		{name: "missing document", entity: "invoice", expectedErr: ErrNoSchema},
		{name: "path traversal", entity: "../acme/user", expectedErr: ErrInvalidEntity},
		{name: "hidden file", entity: ".user", expectedErr: ErrInvalidEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := p.Options(context.Background(), tc.entity)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)

			opts := entity.ParseOptions(doc)
			assert.Equal(t, tc.expectedNames, opts.Schema.Names())
			assert.Equal(t, tc.expectedCols, opts.Table.Columns)
		})
	}

	order, err := p.Options(context.Background(), "order")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"id": true}, entity.ParseOptions(order).Table.ColumnResolvers)

	names, err := p.Entities()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "order"}, names)
}

func TestDBProvider(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	p := NewDBProvider(db, "acme")
	ctx := context.Background()

	_, err = p.Options(ctx, "user")
	require.ErrorIs(t, err, ErrNoSchema)

	require.NoError(t, p.Store(ctx, "user", map[string]any{
		"base":  map[string]any{"schema": []any{"id", "name"}},
		"extra": map[string]any{"table": map[string]any{"columns": []any{"name"}}},
	}))

	doc, err := p.Options(ctx, "user")
	require.NoError(t, err)

	opts := entity.ParseOptions(doc)
	assert.Equal(t, []string{"id", "name"}, opts.Schema.Names())
	assert.Equal(t, []string{"name"}, opts.Table.Columns)

	_, err = NewDBProvider(nil, "acme").Options(ctx, "user")
	require.Error(t, err)
}
